package interfaces

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when a bearer credential is missing or fails verification.
	ErrUnauthenticated = errors.New("unauthorized")

	// ErrForbidden is returned when a valid caller does not own the addressed resource.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when an addressed resource has no document.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when a required request field is missing or malformed.
	ErrValidation = errors.New("unable to parse request body")

	// ErrConflict is returned when a create would violate per-owner name uniqueness.
	ErrConflict = errors.New("duplicate entry")

	// ErrDocumentNotFound is returned by DocumentStore implementations for
	// operations addressing a document id that does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrStoreUnavailable is returned when a document store cannot be reached.
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrInvalidLocationURI is returned when a store or authenticator URI is malformed or unsupported.
	ErrInvalidLocationURI = errors.New("invalid location URI")
)

// StoreError wraps a failed DocumentStore call. It is terminal for the request
// and its details are never echoed to API callers.
type StoreError struct {
	Op  string
	Err error
}

// NewStoreError wraps err as a failure of the named store operation.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
