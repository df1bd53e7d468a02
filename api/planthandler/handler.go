package planthandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/houseplants-app/plants-api/api"
	"github.com/houseplants-app/plants-api/interfaces"
	"github.com/houseplants-app/plants-api/service"
)

// maxBodySize is the maximum accepted request body (64KB).
const maxBodySize = 64 * 1024

// Handler processes requests for plants, rooms, waterings and the caller's profile.
type Handler struct {
	plants    *service.ResourceService
	rooms     *service.ResourceService
	waterings *service.WateringService
	guard     *service.Guard
	auth      interfaces.Authenticator
	users     interfaces.UserDirectory
	log       *slog.Logger
}

// NewHandler creates a handler. plants and rooms are expected to come from
// service.NewPlantService and service.NewRoomService.
func NewHandler(
	plants, rooms *service.ResourceService,
	waterings *service.WateringService,
	guard *service.Guard,
	auth interfaces.Authenticator,
	users interfaces.UserDirectory,
	log *slog.Logger,
) *Handler {
	return &Handler{
		plants:    plants,
		rooms:     rooms,
		waterings: waterings,
		guard:     guard,
		auth:      auth,
		users:     users,
		log:       log,
	}
}

// RegisterRoutes mounts the API at the router root and under /api/v1.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", h.routes)
	h.routes(r)
}

func (h *Handler) routes(r chi.Router) {
	r.Get("/users/me", h.authenticated(h.HandleMe))

	r.Post("/plants", h.authenticated(h.HandleCreatePlant))
	r.Get("/plants", h.authenticated(h.HandleListPlants))
	r.Put("/plants/{plantId}", h.authenticated(h.HandleUpdatePlant))
	r.Delete("/plants/{plantId}", h.authenticated(h.HandleDeletePlant))

	r.Post("/rooms", h.authenticated(h.HandleCreateRoom))
	r.Get("/rooms", h.authenticated(h.HandleListRooms))
	r.Put("/rooms/{roomId}", h.authenticated(h.HandleUpdateRoom))
	r.Delete("/rooms/{roomId}", h.authenticated(h.HandleDeleteRoom))

	r.Post("/plants/{plantId}/waterings", h.authenticated(h.HandleAddWatering))
	r.Get("/plants/{plantId}/waterings", h.authenticated(h.HandleListWaterings))
	r.Put("/plants/{plantId}/waterings/{wateringId}", h.authenticated(h.HandleUpdateWatering))
	r.Delete("/plants/{plantId}/waterings/{wateringId}", h.authenticated(h.HandleDeleteWatering))
}

// principalHandler is a route handler that receives the verified caller.
type principalHandler func(w http.ResponseWriter, r *http.Request, principal interfaces.Principal)

// authenticated verifies the bearer token and calls next with the principal.
// Requests are detached from client cancellation so a disconnect does not
// abort store calls already in flight.
func (h *Handler) authenticated(next principalHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			h.log.Debug("Missing bearer token", slog.String("path", r.URL.Path))
			h.writeError(w, fmt.Errorf("%w: missing bearer token", interfaces.ErrUnauthenticated))
			return
		}

		ctx := context.WithoutCancel(r.Context())
		principal, err := h.auth.Authenticate(ctx, strings.TrimSpace(token))
		if err != nil {
			h.log.Info("Authentication failed", slog.String("path", r.URL.Path), "err", err)
			h.writeError(w, fmt.Errorf("%w: %v", interfaces.ErrUnauthenticated, err))
			return
		}

		next(w, r.WithContext(ctx), principal)
	}
}

// HandleMe returns the caller's profile.
//
// URL format: GET /users/me
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request, principal interfaces.Principal) {
	profile, err := h.users.LookupUser(r.Context(), principal.ID)
	if err != nil {
		h.log.Error("Failed to fetch user", slog.String("uid", principal.ID), "err", err)
		h.writeEnvelope(w, http.StatusInternalServerError, nil, "Internal server error")
		return
	}
	h.writeEnvelope(w, http.StatusOK, profile, "")
}

// HandleCreatePlant creates a plant owned by the caller.
//
// URL format: POST /plants
func (h *Handler) HandleCreatePlant(w http.ResponseWriter, r *http.Request, principal interfaces.Principal) {
	var in interfaces.PlantInput
	if err := h.decodeBody(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	h.create(w, r, h.plants, principal, &in)
}

// HandleListPlants lists the caller's plants.
//
// URL format: GET /plants
func (h *Handler) HandleListPlants(w http.ResponseWriter, r *http.Request, principal interfaces.Principal) {
	h.list(w, r, h.plants, principal)
}

// HandleUpdatePlant merges the fields present in the body into a plant.
//
// URL format: PUT /plants/{plantId}
//
// Ownership is checked before the body is read, so a caller who does not own
// the plant gets 403 or 404 whatever the body holds.
func (h *Handler) HandleUpdatePlant(w http.ResponseWriter, r *http.Request, principal interfaces.Principal) {
	plantID := r.PathValue("plantId")
	if !h.authorizePlant(w, r, principal, plantID) {
		return
	}

	var patch interfaces.PlantPatch
	if err := h.decodeBody(r, &patch); err != nil {
		h.writeError(w, err)
		return
	}
	h.update(w, r, h.plants, principal, plantID, patch)
}

// HandleDeletePlant deletes a plant. Its watering log is left in place.
//
// URL format: DELETE /plants/{plantId}
func (h *Handler) HandleDeletePlant(w http.ResponseWriter, r *http.Request, principal interfaces.Principal) {
	h.delete(w, r, h.plants, principal, r.PathValue("plantId"))
}

// HandleCreateRoom creates a room owned by the caller.
//
// URL format: POST /rooms
func (h *Handler) HandleCreateRoom(w http.ResponseWriter, r *http.Request, principal interfaces.Principal) {
	var in interfaces.RoomInput
	if err := h.decodeBody(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	h.create(w, r, h.rooms, principal, &in)
}

// HandleListRooms lists the caller's rooms.
//
// URL format: GET /rooms
func (h *Handler) HandleListRooms(w http.ResponseWriter, r *http.Request, principal interfaces.Principal) {
	h.list(w, r, h.rooms, principal)
}

// HandleUpdateRoom renames a room and optionally changes its icon.
//
// URL format: PUT /rooms/{roomId}
func (h *Handler) HandleUpdateRoom(w http.ResponseWriter, r *http.Request, principal interfaces.Principal) {
	var in interfaces.RoomInput
	if err := h.decodeBody(r, &in); err != nil {
		h.writeError(w, err)
		return
	}
	h.update(w, r, h.rooms, principal, r.PathValue("roomId"), &in)
}

// HandleDeleteRoom deletes a room. Plants referencing it keep their roomId.
//
// URL format: DELETE /rooms/{roomId}
func (h *Handler) HandleDeleteRoom(w http.ResponseWriter, r *http.Request, principal interfaces.Principal) {
	h.delete(w, r, h.rooms, principal, r.PathValue("roomId"))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, svc *service.ResourceService, principal interfaces.Principal, in service.Input) {
	id, err := svc.Create(r.Context(), principal.ID, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeEnvelope(w, http.StatusCreated, api.IDResponse{ID: id}, "")
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, svc *service.ResourceService, principal interfaces.Principal) {
	docs, err := svc.List(r.Context(), principal.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	items := make([]api.ResourceItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, api.ResourceItem{ID: d.ID, Data: d.Fields})
	}
	h.writeEnvelope(w, http.StatusOK, items, "")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, svc *service.ResourceService, principal interfaces.Principal, id string, patch service.Input) {
	id, err := svc.Update(r.Context(), principal.ID, id, patch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeEnvelope(w, http.StatusOK, api.IDResponse{ID: id}, "")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, svc *service.ResourceService, principal interfaces.Principal, id string) {
	if err := svc.Delete(r.Context(), principal.ID, id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeBody reads a JSON object into out. An empty body decodes as {}.
// Decoder errors name Go types, so they are logged and never returned.
func (h *Handler) decodeBody(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize+1))
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		h.log.Debug("Malformed request body", slog.String("path", r.URL.Path), "err", err)
		return interfaces.ErrValidation
	}
	return nil
}

// statusFor maps a service error to its HTTP status and public message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, interfaces.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, interfaces.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, interfaces.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, interfaces.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, interfaces.ErrConflict):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("Request failed", "err", err)
	} else {
		h.log.Debug("Request rejected", slog.Int("status", status), "err", err)
	}
	h.writeEnvelope(w, status, nil, message)
}

func (h *Handler) writeEnvelope(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(api.Envelope{Status: status, Data: data, Message: message}); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
