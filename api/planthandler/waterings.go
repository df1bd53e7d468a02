package planthandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/houseplants-app/plants-api/api"
	"github.com/houseplants-app/plants-api/interfaces"
)

// authorizePlant runs the ownership check for the parent plant of a watering
// route and writes the error response when it fails.
func (h *Handler) authorizePlant(w http.ResponseWriter, r *http.Request, principal interfaces.Principal, plantID string) bool {
	if err := h.guard.Authorize(r.Context(), principal.ID, interfaces.PlantCollection, plantID); err != nil {
		h.writeError(w, err)
		return false
	}
	return true
}

// HandleAddWatering appends a watering record to a plant.
//
// URL format: POST /plants/{plantId}/waterings
func (h *Handler) HandleAddWatering(w http.ResponseWriter, r *http.Request, principal interfaces.Principal) {
	plantID := r.PathValue("plantId")
	if !h.authorizePlant(w, r, principal, plantID) {
		return
	}

	var in interfaces.WateringInput
	if err := h.decodeBody(r, &in); err != nil {
		h.writeError(w, err)
		return
	}

	id, err := h.waterings.Append(r.Context(), plantID, &in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeEnvelope(w, http.StatusCreated, api.IDResponse{ID: id}, "")
}

// HandleListWaterings returns a plant's watering records.
//
// URL format: GET /plants/{plantId}/waterings
func (h *Handler) HandleListWaterings(w http.ResponseWriter, r *http.Request, principal interfaces.Principal) {
	plantID := r.PathValue("plantId")
	if !h.authorizePlant(w, r, principal, plantID) {
		return
	}

	records, err := h.waterings.List(r.Context(), plantID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeEnvelope(w, http.StatusOK, records, "")
}

// HandleUpdateWatering edits wateredAt and/or health of one record.
//
// URL format: PUT /plants/{plantId}/waterings/{wateringId}
func (h *Handler) HandleUpdateWatering(w http.ResponseWriter, r *http.Request, principal interfaces.Principal) {
	plantID := r.PathValue("plantId")
	if !h.authorizePlant(w, r, principal, plantID) {
		return
	}

	var patch interfaces.WateringPatch
	if err := h.decodeBody(r, &patch); err != nil {
		h.writeError(w, err)
		return
	}

	id, err := h.waterings.Update(r.Context(), plantID, r.PathValue("wateringId"), patch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeEnvelope(w, http.StatusOK, api.IDResponse{ID: id}, "")
}

// HandleDeleteWatering removes a record. Unknown records and plants answer 204.
//
// URL format: DELETE /plants/{plantId}/waterings/{wateringId}
func (h *Handler) HandleDeleteWatering(w http.ResponseWriter, r *http.Request, principal interfaces.Principal) {
	plantID := r.PathValue("plantId")
	err := h.guard.Authorize(r.Context(), principal.ID, interfaces.PlantCollection, plantID)
	if errors.Is(err, interfaces.ErrNotFound) {
		h.log.Debug("Watering delete for missing plant", slog.String("plant", plantID))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.waterings.Remove(r.Context(), plantID, r.PathValue("wateringId")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
