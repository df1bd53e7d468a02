package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/houseplants-app/plants-api/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// backendsUnderTest returns one fresh instance of every backend that runs
// without external services.
func backendsUnderTest(t *testing.T) map[string]interfaces.DocumentStore {
	t.Helper()

	sqlite, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "plants.db"), false, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]interfaces.DocumentStore{
		"memory": NewMemoryBackend(testLogger()),
		"sqlite": sqlite,
	}
}

func TestDocumentStore_CreateGet(t *testing.T) {
	for name, store := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			id, err := store.Create(ctx, "plants", interfaces.Fields{
				"ownerId":  "u1",
				"name":     "Fern",
				"trefleId": 42,
				"records":  []any{},
			})
			require.NoError(t, err)
			require.NotEmpty(t, id)

			doc, err := store.Get(ctx, "plants", id)
			require.NoError(t, err)
			assert.Equal(t, id, doc.ID)
			assert.Equal(t, "Fern", doc.Fields["name"])
			assert.Equal(t, float64(42), doc.Fields["trefleId"])
			assert.Equal(t, []any{}, doc.Fields["records"])

			_, err = store.Get(ctx, "plants", "missing")
			assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)

			_, err = store.Get(ctx, "rooms", id)
			assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)
		})
	}
}

func TestDocumentStore_Query(t *testing.T) {
	for name, store := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, f := range []interfaces.Fields{
				{"ownerId": "u1", "name": "Fern"},
				{"ownerId": "u1", "name": "Cactus"},
				{"ownerId": "u2", "name": "Fern"},
			} {
				_, err := store.Create(ctx, "plants", f)
				require.NoError(t, err)
			}

			all, err := store.Query(ctx, "plants")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			mine, err := store.Query(ctx, "plants", interfaces.Eq("ownerId", "u1"))
			require.NoError(t, err)
			var names []any
			for _, d := range mine {
				names = append(names, d.Fields["name"])
			}
			assert.ElementsMatch(t, []any{"Fern", "Cactus"}, names)

			dup, err := store.Query(ctx, "plants", interfaces.Eq("ownerId", "u2"), interfaces.Eq("name", "Fern"))
			require.NoError(t, err)
			assert.Len(t, dup, 1)

			none, err := store.Query(ctx, "rooms", interfaces.Eq("ownerId", "u1"))
			require.NoError(t, err)
			assert.NotNil(t, none)
			assert.Empty(t, none)
		})
	}
}

func TestDocumentStore_UpdateMerges(t *testing.T) {
	for name, store := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			id, err := store.Create(ctx, "rooms", interfaces.Fields{"ownerId": "u1", "name": "Kitchen", "iconId": 3})
			require.NoError(t, err)

			require.NoError(t, store.Update(ctx, "rooms", id, interfaces.Fields{"name": "Bath"}))

			doc, err := store.Get(ctx, "rooms", id)
			require.NoError(t, err)
			assert.Equal(t, interfaces.Fields{"ownerId": "u1", "name": "Bath", "iconId": float64(3)}, doc.Fields)

			err = store.Update(ctx, "rooms", "missing", interfaces.Fields{"name": "x"})
			assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)
		})
	}
}

func TestDocumentStore_DeleteIsIdempotent(t *testing.T) {
	for name, store := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			id, err := store.Create(ctx, "plants", interfaces.Fields{"name": "Fern"})
			require.NoError(t, err)

			require.NoError(t, store.Delete(ctx, "plants", id))
			require.NoError(t, store.Delete(ctx, "plants", id))

			_, err = store.Get(ctx, "plants", id)
			assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)
		})
	}
}

func TestDocumentStore_ArrayOperations(t *testing.T) {
	first := map[string]any{"id": "r1", "wateredAt": "2024-01-01", "health": 80}
	second := map[string]any{"id": "r2", "wateredAt": "2024-01-02", "health": 90.5}

	for name, store := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			id, err := store.Create(ctx, "waterings", interfaces.Fields{"plantId": "p1", "records": []any{}})
			require.NoError(t, err)

			require.NoError(t, store.ArrayUnion(ctx, "waterings", id, "records", first))
			require.NoError(t, store.ArrayUnion(ctx, "waterings", id, "records", first, second))

			doc, err := store.Get(ctx, "waterings", id)
			require.NoError(t, err)
			records := doc.Fields["records"].([]any)
			require.Len(t, records, 2, "union must not duplicate an equal element")
			assert.Equal(t, "r1", records[0].(map[string]any)["id"])
			assert.Equal(t, float64(80), records[0].(map[string]any)["health"])

			// A value differing in one field is not the stored element.
			stale := map[string]any{"id": "r1", "wateredAt": "2024-01-01", "health": 81}
			require.NoError(t, store.ArrayRemove(ctx, "waterings", id, "records", stale))
			doc, err = store.Get(ctx, "waterings", id)
			require.NoError(t, err)
			assert.Len(t, doc.Fields["records"], 2)

			require.NoError(t, store.ArrayRemove(ctx, "waterings", id, "records", records[0]))
			doc, err = store.Get(ctx, "waterings", id)
			require.NoError(t, err)
			assert.Equal(t, []any{records[1]}, doc.Fields["records"])
			assert.Equal(t, "p1", doc.Fields["plantId"])
		})
	}
}

func TestDocumentStore_ArrayOnMissingFieldOrDocument(t *testing.T) {
	for name, store := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			id, err := store.Create(ctx, "waterings", interfaces.Fields{"plantId": "p1"})
			require.NoError(t, err)

			require.NoError(t, store.ArrayUnion(ctx, "waterings", id, "records", "a"))
			doc, err := store.Get(ctx, "waterings", id)
			require.NoError(t, err)
			assert.Equal(t, []any{"a"}, doc.Fields["records"])

			err = store.ArrayUnion(ctx, "waterings", "missing", "records", "a")
			assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)
			err = store.ArrayRemove(ctx, "waterings", "missing", "records", "a")
			assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)

			err = store.ArrayUnion(ctx, "waterings", id, "plantId", "a")
			assert.Error(t, err)
		})
	}
}

func TestMemoryBackend_ConcurrentArrayUnion(t *testing.T) {
	store := NewMemoryBackend(testLogger())
	ctx := context.Background()

	id, err := store.Create(ctx, "waterings", interfaces.Fields{"records": []any{}})
	require.NoError(t, err)

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.ArrayUnion(ctx, "waterings", id, "records", map[string]any{"id": fmt.Sprintf("r%d", i)}))
		}(i)
	}
	wg.Wait()

	doc, err := store.Get(ctx, "waterings", id)
	require.NoError(t, err)
	assert.Len(t, doc.Fields["records"], writers)
}

func TestMemoryBackend_GetReturnsCopy(t *testing.T) {
	store := NewMemoryBackend(testLogger())
	ctx := context.Background()

	id, err := store.Create(ctx, "waterings", interfaces.Fields{"records": []any{map[string]any{"id": "r1"}}})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "waterings", id)
	require.NoError(t, err)
	doc.Fields["records"].([]any)[0].(map[string]any)["id"] = "changed"

	again, err := store.Get(ctx, "waterings", id)
	require.NoError(t, err)
	assert.Equal(t, "r1", again.Fields["records"].([]any)[0].(map[string]any)["id"])
}
