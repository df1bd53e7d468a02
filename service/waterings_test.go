package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/houseplants-app/plants-api/interfaces"
	"github.com/houseplants-app/plants-api/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func watering(at string, health float64) *interfaces.WateringInput {
	return &interfaces.WateringInput{WateredAt: ptr(at), Health: ptr(health)}
}

func TestWateringService_AppendThenList(t *testing.T) {
	s := newTestServices(t, nil, DefaultPlantServiceOptions())
	ctx := context.Background()

	id, err := s.waterings.Append(ctx, "p1", watering("2024-03-01T09:00:00.000Z", 80))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	records, err := s.waterings.List(ctx, "p1")
	require.NoError(t, err)

	matches := 0
	for _, r := range records {
		if r.ID == id {
			matches++
			assert.Equal(t, "2024-03-01T09:00:00.000Z", r.WateredAt)
			assert.Equal(t, float64(80), r.Health)
		}
	}
	assert.Equal(t, 1, matches)
	assert.Len(t, records, 1)
}

func TestWateringService_ListCreatesEmptyLog(t *testing.T) {
	s := newTestServices(t, nil, DefaultPlantServiceOptions())
	ctx := context.Background()

	records, err := s.waterings.List(ctx, "p1")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Equal(t, 1, countDocs(t, s.store, interfaces.WateringCollection, interfaces.Eq("plantId", "p1")))

	_, err = s.waterings.List(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, countDocs(t, s.store, interfaces.WateringCollection, interfaces.Eq("plantId", "p1")))
}

func TestWateringService_AppendValidation(t *testing.T) {
	s := newTestServices(t, nil, DefaultPlantServiceOptions())
	ctx := context.Background()

	for name, in := range map[string]*interfaces.WateringInput{
		"missing health":    {WateredAt: ptr("2024-03-01")},
		"missing wateredAt": {Health: ptr(50.0)},
		"nil":               nil,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.waterings.Append(ctx, "p1", in)
			assert.ErrorIs(t, err, interfaces.ErrValidation)
		})
	}
	assert.Equal(t, 0, countDocs(t, s.store, interfaces.WateringCollection))
}

func TestWateringService_Remove(t *testing.T) {
	s := newTestServices(t, nil, DefaultPlantServiceOptions())
	ctx := context.Background()

	first, err := s.waterings.Append(ctx, "p1", watering("2024-03-01", 70))
	require.NoError(t, err)
	second, err := s.waterings.Append(ctx, "p1", watering("2024-03-02", 75.5))
	require.NoError(t, err)
	third, err := s.waterings.Append(ctx, "p1", watering("2024-03-03", 90))
	require.NoError(t, err)

	before, err := s.waterings.List(ctx, "p1")
	require.NoError(t, err)

	t.Run("unknown id is success", func(t *testing.T) {
		require.NoError(t, s.waterings.Remove(ctx, "p1", "does-not-exist"))
		after, err := s.waterings.List(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("present id removes exactly that record", func(t *testing.T) {
		require.NoError(t, s.waterings.Remove(ctx, "p1", second))

		after, err := s.waterings.List(ctx, "p1")
		require.NoError(t, err)
		assert.ElementsMatch(t, []interfaces.WateringRecord{before[0], before[2]}, after)

		ids := []string{after[0].ID, after[1].ID}
		assert.ElementsMatch(t, []string{first, third}, ids)
	})

	t.Run("second removal is success", func(t *testing.T) {
		require.NoError(t, s.waterings.Remove(ctx, "p1", second))
	})
}

func TestWateringService_RemoveWithoutLogCreatesOne(t *testing.T) {
	s := newTestServices(t, nil, DefaultPlantServiceOptions())

	require.NoError(t, s.waterings.Remove(context.Background(), "p1", "w1"))
	assert.Equal(t, 1, countDocs(t, s.store, interfaces.WateringCollection, interfaces.Eq("plantId", "p1")))
}

func TestWateringService_Update(t *testing.T) {
	s := newTestServices(t, nil, DefaultPlantServiceOptions())
	ctx := context.Background()

	first, err := s.waterings.Append(ctx, "p1", watering("2024-03-01", 70))
	require.NoError(t, err)
	second, err := s.waterings.Append(ctx, "p1", watering("2024-03-02", 75))
	require.NoError(t, err)

	before, err := s.waterings.List(ctx, "p1")
	require.NoError(t, err)

	got, err := s.waterings.Update(ctx, "p1", second, interfaces.WateringPatch{Health: ptr(99.0)})
	require.NoError(t, err)
	assert.Equal(t, second, got)

	after, err := s.waterings.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, after, 2)

	for _, r := range after {
		switch r.ID {
		case first:
			assert.Equal(t, before[0], r, "other records must be unchanged")
		case second:
			assert.Equal(t, interfaces.WateringRecord{ID: second, WateredAt: "2024-03-02", Health: 99}, r)
		default:
			t.Fatalf("unexpected record %s", r.ID)
		}
	}

	t.Run("unknown record", func(t *testing.T) {
		_, err := s.waterings.Update(ctx, "p1", "nope", interfaces.WateringPatch{Health: ptr(1.0)})
		assert.ErrorIs(t, err, interfaces.ErrNotFound)
	})

	t.Run("no log yet", func(t *testing.T) {
		_, err := s.waterings.Update(ctx, "p2", first, interfaces.WateringPatch{Health: ptr(1.0)})
		assert.ErrorIs(t, err, interfaces.ErrNotFound)
		assert.Equal(t, 1, countDocs(t, s.store, interfaces.WateringCollection, interfaces.Eq("plantId", "p2")))
	})
}

func TestWateringService_StoreErrors(t *testing.T) {
	boom := errors.New("unavailable")
	ctx := context.Background()

	store := new(storage.MockDocumentStore)
	store.On("Query", mock.Anything, interfaces.WateringCollection, mock.Anything).
		Return([]interfaces.Document{{ID: "log1", Fields: interfaces.Fields{"plantId": "p1", "records": []any{}}}}, nil)
	store.On("ArrayUnion", mock.Anything, interfaces.WateringCollection, "log1", "records", mock.Anything).Return(boom)

	_, err := NewWateringService(store, testLogger()).Append(ctx, "p1", watering("2024-03-01", 50))
	var storeErr *interfaces.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "array-union", storeErr.Op)
	store.AssertExpectations(t)
}

// Two concurrent first accesses can both see no log and both create one.
// Later calls use whichever log the store lists first, so records written
// through the other log are not visible. This is an accepted inconsistency:
// the test shows the duplicate can arise, not that logs are unique.
func TestWateringService_ConcurrentFirstAccessMayDuplicateLog(t *testing.T) {
	memory := storage.NewMemoryBackend(testLogger())
	barrier := newQueryBarrier(memory, 2)
	waterings := NewWateringService(barrier, testLogger())

	var wg sync.WaitGroup
	logIDs := make([]string, 2)
	for i := range logIDs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := waterings.GetOrCreateLog(context.Background(), "p1")
			assert.NoError(t, err)
			logIDs[i] = doc.ID
		}(i)
	}
	wg.Wait()

	assert.NotEqual(t, logIDs[0], logIDs[1])
	assert.Equal(t, 2, countDocs(t, memory, interfaces.WateringCollection, interfaces.Eq("plantId", "p1")))

	// Subsequent calls consistently pick the first listed log.
	plain := NewWateringService(memory, testLogger())
	doc, err := plain.GetOrCreateLog(context.Background(), "p1")
	require.NoError(t, err)
	again, err := plain.GetOrCreateLog(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, again.ID)
	assert.Contains(t, logIDs, doc.ID)
}

// interleavedUpdate runs before once, just ahead of the first Update it
// forwards, to place another writer between a read and the write that follows.
type interleavedUpdate struct {
	interfaces.DocumentStore
	once   sync.Once
	before func()
}

func (s *interleavedUpdate) Update(ctx context.Context, collection, id string, fields interfaces.Fields) error {
	s.once.Do(s.before)
	return s.DocumentStore.Update(ctx, collection, id, fields)
}

// Update rewrites the whole records array it read, so a record appended
// between that read and the write is lost. This is an accepted loss: the
// test shows last-writer-wins can drop data, not that appends survive.
func TestWateringService_UpdateOverwritesConcurrentAppend(t *testing.T) {
	memory := storage.NewMemoryBackend(testLogger())
	plain := NewWateringService(memory, testLogger())
	ctx := context.Background()

	existing, err := plain.Append(ctx, "p1", watering("2024-03-01", 50))
	require.NoError(t, err)

	var appended string
	store := &interleavedUpdate{DocumentStore: memory, before: func() {
		id, err := plain.Append(ctx, "p1", watering("2024-03-02", 70))
		require.NoError(t, err)
		appended = id
	}}
	updater := NewWateringService(store, testLogger())

	_, err = updater.Update(ctx, "p1", existing, interfaces.WateringPatch{Health: ptr(100.0)})
	require.NoError(t, err)
	require.NotEmpty(t, appended)

	records, err := plain.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, interfaces.WateringRecord{ID: existing, WateredAt: "2024-03-01", Health: 100}, records[0])
	for _, r := range records {
		assert.NotEqual(t, appended, r.ID)
	}
}
