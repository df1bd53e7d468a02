package storage

import (
	"context"
	"errors"
	"time"

	"github.com/houseplants-app/plants-api/interfaces"
	"github.com/houseplants-app/plants-api/metrics"
)

// InstrumentedStore records a metric for every call to the wrapped store.
// It adds no behavior of its own.
type InstrumentedStore struct {
	interfaces.DocumentStore
	metrics *metrics.Metrics
}

// NewInstrumentedStore wraps store.
func NewInstrumentedStore(store interfaces.DocumentStore, m *metrics.Metrics) *InstrumentedStore {
	return &InstrumentedStore{DocumentStore: store, metrics: m}
}

// observe records one call. ErrDocumentNotFound is an answer, not a store
// failure, and is counted as ok for every operation.
func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	if errors.Is(err, interfaces.ErrDocumentNotFound) {
		err = nil
	}
	s.metrics.ObserveStore(s.DocumentStore.Name(), op, err, time.Since(start))
}

func (s *InstrumentedStore) Get(ctx context.Context, collection, id string) (*interfaces.Document, error) {
	start := time.Now()
	doc, err := s.DocumentStore.Get(ctx, collection, id)
	s.observe("get", start, err)
	return doc, err
}

func (s *InstrumentedStore) Query(ctx context.Context, collection string, filters ...interfaces.Filter) ([]interfaces.Document, error) {
	start := time.Now()
	docs, err := s.DocumentStore.Query(ctx, collection, filters...)
	s.observe("query", start, err)
	return docs, err
}

func (s *InstrumentedStore) Create(ctx context.Context, collection string, fields interfaces.Fields) (string, error) {
	start := time.Now()
	id, err := s.DocumentStore.Create(ctx, collection, fields)
	s.observe("create", start, err)
	return id, err
}

func (s *InstrumentedStore) Update(ctx context.Context, collection, id string, fields interfaces.Fields) error {
	start := time.Now()
	err := s.DocumentStore.Update(ctx, collection, id, fields)
	s.observe("update", start, err)
	return err
}

func (s *InstrumentedStore) Delete(ctx context.Context, collection, id string) error {
	start := time.Now()
	err := s.DocumentStore.Delete(ctx, collection, id)
	s.observe("delete", start, err)
	return err
}

func (s *InstrumentedStore) ArrayUnion(ctx context.Context, collection, id, field string, values ...any) error {
	start := time.Now()
	err := s.DocumentStore.ArrayUnion(ctx, collection, id, field, values...)
	s.observe("array_union", start, err)
	return err
}

func (s *InstrumentedStore) ArrayRemove(ctx context.Context, collection, id, field string, values ...any) error {
	start := time.Now()
	err := s.DocumentStore.ArrayRemove(ctx, collection, id, field, values...)
	s.observe("array_remove", start, err)
	return err
}
