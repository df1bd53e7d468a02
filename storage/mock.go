package storage

import (
	"context"

	"github.com/houseplants-app/plants-api/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockDocumentStore implements interfaces.DocumentStore for testing.
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Get(ctx context.Context, collection, id string) (*interfaces.Document, error) {
	args := m.Called(ctx, collection, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Document), args.Error(1)
}

func (m *MockDocumentStore) Query(ctx context.Context, collection string, filters ...interfaces.Filter) ([]interfaces.Document, error) {
	args := m.Called(ctx, collection, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.Document), args.Error(1)
}

func (m *MockDocumentStore) Create(ctx context.Context, collection string, fields interfaces.Fields) (string, error) {
	args := m.Called(ctx, collection, fields)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStore) Update(ctx context.Context, collection, id string, fields interfaces.Fields) error {
	args := m.Called(ctx, collection, id, fields)
	return args.Error(0)
}

func (m *MockDocumentStore) Delete(ctx context.Context, collection, id string) error {
	args := m.Called(ctx, collection, id)
	return args.Error(0)
}

func (m *MockDocumentStore) ArrayUnion(ctx context.Context, collection, id, field string, values ...any) error {
	args := m.Called(ctx, collection, id, field, values)
	return args.Error(0)
}

func (m *MockDocumentStore) ArrayRemove(ctx context.Context, collection, id, field string, values ...any) error {
	args := m.Called(ctx, collection, id, field, values)
	return args.Error(0)
}

func (m *MockDocumentStore) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockDocumentStore) Name() string {
	return "mock"
}

func (m *MockDocumentStore) LocationURI() string {
	return "mock://"
}

func (m *MockDocumentStore) Close() error {
	return nil
}
