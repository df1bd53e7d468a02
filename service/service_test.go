package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/houseplants-app/plants-api/interfaces"
	"github.com/houseplants-app/plants-api/storage"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T {
	return &v
}

var fixedTime = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type testServices struct {
	store     interfaces.DocumentStore
	guard     *Guard
	plants    *ResourceService
	rooms     *ResourceService
	waterings *WateringService
}

func newTestServices(t *testing.T, store interfaces.DocumentStore, opts PlantServiceOptions) *testServices {
	t.Helper()
	if store == nil {
		store = storage.NewMemoryBackend(testLogger())
	}
	guard := NewGuard(store, testLogger())
	waterings := NewWateringService(store, testLogger())
	plants := NewPlantService(store, guard, waterings, opts, testLogger())
	plants.SetClock(func() time.Time { return fixedTime })
	rooms := NewRoomService(store, guard, testLogger())
	rooms.SetClock(func() time.Time { return fixedTime })
	return &testServices{store: store, guard: guard, plants: plants, rooms: rooms, waterings: waterings}
}

func fern() *interfaces.PlantInput {
	return &interfaces.PlantInput{
		Name:      ptr("Fern"),
		WaterAt:   ptr("09:00"),
		RoomID:    ptr("r1"),
		TrefleID:  ptr(42),
		HasDevice: ptr(false),
	}
}

// queryBarrier holds every Query until n of them have run, so n concurrent
// check-then-act sequences all observe the store before any of them writes.
type queryBarrier struct {
	interfaces.DocumentStore
	wg sync.WaitGroup
}

func newQueryBarrier(store interfaces.DocumentStore, n int) *queryBarrier {
	b := &queryBarrier{DocumentStore: store}
	b.wg.Add(n)
	return b
}

func (b *queryBarrier) Query(ctx context.Context, collection string, filters ...interfaces.Filter) ([]interfaces.Document, error) {
	docs, err := b.DocumentStore.Query(ctx, collection, filters...)
	b.wg.Done()
	b.wg.Wait()
	return docs, err
}

func countDocs(t *testing.T, store interfaces.DocumentStore, collection string, filters ...interfaces.Filter) int {
	t.Helper()
	docs, err := store.Query(context.Background(), collection, filters...)
	require.NoError(t, err)
	return len(docs)
}
