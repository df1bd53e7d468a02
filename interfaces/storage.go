package interfaces

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Filter is an equality predicate on a top-level document field.
type Filter struct {
	Field string
	Value any
}

// Eq returns the predicate field == value.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Matches reports whether the document fields satisfy every filter.
func Matches(fields Fields, filters []Filter) bool {
	for _, f := range filters {
		want, err := NormalizeValue(f.Value)
		if err != nil {
			return false
		}
		if !ValuesEqual(fields[f.Field], want) {
			return false
		}
	}
	return true
}

// DocumentStore is a document database offering single-document atomicity only.
//
// Implementations must not provide multi-document transactions to callers;
// every method is a single independent store call. ArrayUnion and ArrayRemove
// are atomic with respect to other writes to the same document.
type DocumentStore interface {
	// Get returns the document or ErrDocumentNotFound.
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Query returns all documents in the collection matching every filter,
	// in store-native order.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)

	// Create inserts a new document and returns its store-assigned id.
	Create(ctx context.Context, collection string, fields Fields) (string, error)

	// Update merges the given top-level fields into an existing document,
	// leaving other fields untouched. Returns ErrDocumentNotFound if absent.
	Update(ctx context.Context, collection, id string, fields Fields) error

	// Delete removes the document. Deleting an absent document succeeds.
	Delete(ctx context.Context, collection, id string) error

	// ArrayUnion atomically appends each value not already present
	// (by full value equality) to the array field.
	ArrayUnion(ctx context.Context, collection, id, field string, values ...any) error

	// ArrayRemove atomically removes every element equal to any of the values.
	ArrayRemove(ctx context.Context, collection, id, field string, values ...any) error

	// Available checks if the store is reachable.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns the URI identifying this store.
	LocationURI() string

	// Close releases the store's connections.
	Close() error
}

// StoreLocation is a parsed URI selecting a DocumentStore or Authenticator implementation.
type StoreLocation struct {
	Raw    string     // Original URI
	Scheme string     // Implementation
	Host   string     // Hostname, project id or region
	Path   string     // Resource path
	Query  url.Values // Query parameters
	Auth   string     // Authentication info
}

// ParseLocation parses a location URI of the form scheme://[auth@]host[/path][?params].
func ParseLocation(uri string) (StoreLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return StoreLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}
	if parsed.Scheme == "" {
		return StoreLocation{}, fmt.Errorf("%w: missing scheme in %q", ErrInvalidLocationURI, uri)
	}

	var auth string
	if parsed.User != nil {
		auth = parsed.User.String()
	}

	return StoreLocation{
		Raw:    uri,
		Scheme: strings.ToLower(parsed.Scheme),
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		Auth:   auth,
	}, nil
}

// String returns the original URI with any password redacted.
func (loc StoreLocation) String() string {
	parsed, err := url.Parse(loc.Raw)
	if err != nil {
		return loc.Raw
	}
	return parsed.Redacted()
}

// GetParam returns a query parameter value.
func (loc StoreLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}

// GetParamBool returns a boolean query parameter value.
func (loc StoreLocation) GetParamBool(name string) bool {
	value := loc.Query.Get(name)
	return value == "true" || value == "1" || value == "yes"
}
