package planthandler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/houseplants-app/plants-api/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecords(t *testing.T, env envelope) []interfaces.WateringRecord {
	t.Helper()
	var records []interfaces.WateringRecord
	require.NoError(t, json.Unmarshal(env.Data, &records))
	return records
}

func TestWaterings(t *testing.T) {
	a := newTestAPI(t, nil)
	plantID := a.createPlant(t, "alice-token", "Fern")
	base := "/api/v1/plants/" + plantID + "/waterings"

	status, env := a.do(t, http.MethodGet, base, "alice-token", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "[]", string(env.Data))

	status, env = a.do(t, http.MethodPost, base, "alice-token", map[string]any{"wateredAt": "2024-03-01T09:00:00.000Z", "health": 0.9})
	require.Equal(t, http.StatusCreated, status)
	recordID := decodeID(t, env)

	status, env = a.do(t, http.MethodPut, base+"/"+recordID, "alice-token", map[string]any{"health": 0.4})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, recordID, decodeID(t, env))

	_, env = a.do(t, http.MethodGet, base, "alice-token", nil)
	records := decodeRecords(t, env)
	require.Len(t, records, 1)
	assert.Equal(t, interfaces.WateringRecord{ID: recordID, WateredAt: "2024-03-01T09:00:00.000Z", Health: 0.4}, records[0])

	status, _ = a.do(t, http.MethodPut, base+"/unknown", "alice-token", map[string]any{"health": 0.1})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = a.do(t, http.MethodDelete, base+"/"+recordID, "alice-token", nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = a.do(t, http.MethodDelete, base+"/"+recordID, "alice-token", nil)
	assert.Equal(t, http.StatusNoContent, status)

	_, env = a.do(t, http.MethodGet, base, "alice-token", nil)
	assert.Empty(t, decodeRecords(t, env))
}

func TestWateringsValidation(t *testing.T) {
	a := newTestAPI(t, nil)
	plantID := a.createPlant(t, "alice-token", "Fern")

	status, env := a.do(t, http.MethodPost, "/plants/"+plantID+"/waterings", "alice-token", map[string]any{"wateredAt": "2024-03-01T09:00:00.000Z"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Message, "health")

	status, _ = a.do(t, http.MethodPost, "/plants/"+plantID+"/waterings", "alice-token", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWateringsOwnership(t *testing.T) {
	a := newTestAPI(t, nil)
	bobPlant := a.createPlant(t, "bob-token", "Fern")
	base := "/plants/" + bobPlant + "/waterings"

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"add", http.MethodPost, base, map[string]any{"wateredAt": "2024-03-01T09:00:00.000Z", "health": 1}, http.StatusForbidden},
		{"add checks owner before body", http.MethodPost, base, `{broken`, http.StatusForbidden},
		{"list", http.MethodGet, base, nil, http.StatusForbidden},
		{"update", http.MethodPut, base + "/w1", map[string]any{"health": 1}, http.StatusForbidden},
		{"delete", http.MethodDelete, base + "/w1", nil, http.StatusForbidden},
		{"add to missing plant", http.MethodPost, "/plants/missing/waterings", map[string]any{"wateredAt": "x", "health": 1}, http.StatusNotFound},
		{"list missing plant", http.MethodGet, "/plants/missing/waterings", nil, http.StatusNotFound},
		{"update on missing plant", http.MethodPut, "/plants/missing/waterings/w1", map[string]any{"health": 1}, http.StatusNotFound},
		{"delete on missing plant", http.MethodDelete, "/plants/missing/waterings/w1", nil, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := a.do(t, tt.method, tt.path, "alice-token", tt.body)
			assert.Equal(t, tt.want, status)
		})
	}

	docs, err := a.store.Query(t.Context(), interfaces.WateringCollection, interfaces.Eq(interfaces.FieldPlantID, "missing"))
	require.NoError(t, err)
	assert.Empty(t, docs, "no log may be created for a plant that does not exist")
}
