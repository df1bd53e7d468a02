package api

import (
	"context"

	"github.com/houseplants-app/plants-api/interfaces"
)

// Envelope wraps every API response body.
type Envelope struct {
	Status  int    `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// IDResponse is the data of create and update responses.
type IDResponse struct {
	ID string `json:"id"`
}

// ResourceItem is one element of a plant or room listing.
type ResourceItem struct {
	ID   string            `json:"id"`
	Data interfaces.Fields `json:"data"`
}

// PlantItem is a listed plant decoded into its typed form.
type PlantItem struct {
	ID   string           `json:"id"`
	Data interfaces.Plant `json:"data"`
}

// RoomItem is a listed room decoded into its typed form.
type RoomItem struct {
	ID   string          `json:"id"`
	Data interfaces.Room `json:"data"`
}

// PlantsAPI is the client view of the HTTP API.
type PlantsAPI interface {
	Me(ctx context.Context) (*interfaces.UserProfile, error)

	CreatePlant(ctx context.Context, in *interfaces.PlantInput) (string, error)
	ListPlants(ctx context.Context) ([]PlantItem, error)
	UpdatePlant(ctx context.Context, plantID string, patch interfaces.PlantPatch) (string, error)
	DeletePlant(ctx context.Context, plantID string) error

	CreateRoom(ctx context.Context, in *interfaces.RoomInput) (string, error)
	ListRooms(ctx context.Context) ([]RoomItem, error)
	UpdateRoom(ctx context.Context, roomID string, in *interfaces.RoomInput) (string, error)
	DeleteRoom(ctx context.Context, roomID string) error

	AddWatering(ctx context.Context, plantID string, in *interfaces.WateringInput) (string, error)
	ListWaterings(ctx context.Context, plantID string) ([]interfaces.WateringRecord, error)
	UpdateWatering(ctx context.Context, plantID, wateringID string, patch interfaces.WateringPatch) (string, error)
	DeleteWatering(ctx context.Context, plantID, wateringID string) error
}
