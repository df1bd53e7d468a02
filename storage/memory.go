package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/houseplants-app/plants-api/interfaces"
)

// MemoryBackend is an in-process DocumentStore for development and tests.
//
// The mutex only makes each individual call atomic, mirroring the
// single-document guarantees of a real document database; callers get no
// cross-call isolation.
type MemoryBackend struct {
	mu          sync.Mutex
	collections map[string]*memoryCollection
	log         *slog.Logger
	locationURI string
}

type memoryCollection struct {
	docs  map[string]interfaces.Fields
	order []string
}

// NewMemoryBackend creates an empty in-memory store.
func NewMemoryBackend(log *slog.Logger) *MemoryBackend {
	if log == nil {
		log = slog.Default()
	}
	return &MemoryBackend{
		collections: make(map[string]*memoryCollection),
		log:         log,
		locationURI: "memory://",
	}
}

func (b *MemoryBackend) collection(name string) *memoryCollection {
	c, ok := b.collections[name]
	if !ok {
		c = &memoryCollection{docs: make(map[string]interfaces.Fields)}
		b.collections[name] = c
	}
	return c
}

// Get returns a copy of the document.
func (b *MemoryBackend) Get(ctx context.Context, collection, id string) (*interfaces.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fields, ok := b.collection(collection).docs[id]
	if !ok {
		return nil, interfaces.ErrDocumentNotFound
	}
	return &interfaces.Document{ID: id, Fields: fields.Clone()}, nil
}

// Query returns matching documents in insertion order.
func (b *MemoryBackend) Query(ctx context.Context, collection string, filters ...interfaces.Filter) ([]interfaces.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.collection(collection)
	docs := []interfaces.Document{}
	for _, id := range c.order {
		fields := c.docs[id]
		if interfaces.Matches(fields, filters) {
			docs = append(docs, interfaces.Document{ID: id, Fields: fields.Clone()})
		}
	}
	return docs, nil
}

// Create stores the document under a fresh random id.
func (b *MemoryBackend) Create(ctx context.Context, collection string, fields interfaces.Fields) (string, error) {
	normalized, err := interfaces.FieldsFrom(fields)
	if err != nil {
		return "", err
	}
	if normalized == nil {
		normalized = interfaces.Fields{}
	}

	id := uuid.NewString()

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.collection(collection)
	c.docs[id] = normalized
	c.order = append(c.order, id)

	b.log.Debug("Created document in memory", slog.String("collection", collection), slog.String("id", id))
	return id, nil
}

// Update merges top-level fields into an existing document.
func (b *MemoryBackend) Update(ctx context.Context, collection, id string, fields interfaces.Fields) error {
	normalized, err := interfaces.FieldsFrom(fields)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	existing, ok := b.collection(collection).docs[id]
	if !ok {
		return interfaces.ErrDocumentNotFound
	}
	for k, v := range normalized {
		existing[k] = v
	}
	return nil
}

// Delete removes the document if present.
func (b *MemoryBackend) Delete(ctx context.Context, collection, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.collection(collection)
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, docID := range c.order {
		if docID == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// ArrayUnion appends values not already present in the array field.
func (b *MemoryBackend) ArrayUnion(ctx context.Context, collection, id, field string, values ...any) error {
	return b.modifyArray(collection, id, field, values, unionArray)
}

// ArrayRemove removes values from the array field.
func (b *MemoryBackend) ArrayRemove(ctx context.Context, collection, id, field string, values ...any) error {
	return b.modifyArray(collection, id, field, values, differenceArray)
}

func (b *MemoryBackend) modifyArray(collection, id, field string, values []any, op func(current, values []any) []any) error {
	normalized, err := normalizeValues(values)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	existing, ok := b.collection(collection).docs[id]
	if !ok {
		return interfaces.ErrDocumentNotFound
	}
	current, err := arrayField(existing, field)
	if err != nil {
		return fmt.Errorf("%s/%s: %w", collection, id, err)
	}
	existing[field] = op(current, normalized)
	return nil
}

// Available always reports true.
func (b *MemoryBackend) Available(ctx context.Context) bool {
	return true
}

// Name returns a unique identifier for this store.
func (b *MemoryBackend) Name() string {
	return "memory"
}

// LocationURI returns the URI that identifies this store.
func (b *MemoryBackend) LocationURI() string {
	return b.locationURI
}

// Close is a no-op.
func (b *MemoryBackend) Close() error {
	return nil
}
