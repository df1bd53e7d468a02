package service

import (
	"context"
	"log/slog"

	"github.com/houseplants-app/plants-api/interfaces"
)

// PlantKind is the plants collection.
var PlantKind = ResourceKind{Name: "plant", Collection: interfaces.PlantCollection}

// RoomKind is the rooms collection.
var RoomKind = ResourceKind{Name: "room", Collection: interfaces.RoomCollection}

// PlantServiceOptions configures NewPlantService.
type PlantServiceOptions struct {
	// ProvisionLog creates an empty watering log right after each plant
	// insert. Logs are still created lazily on first access when this is
	// off or the plant predates it.
	ProvisionLog bool
}

// DefaultPlantServiceOptions provisions watering logs on create.
func DefaultPlantServiceOptions() PlantServiceOptions {
	return PlantServiceOptions{ProvisionLog: true}
}

// NewPlantService creates the plants resource service. Create expects
// *interfaces.PlantInput and Update interfaces.PlantPatch.
func NewPlantService(store interfaces.DocumentStore, guard *Guard, waterings *WateringService, opts PlantServiceOptions, log *slog.Logger) *ResourceService {
	s := NewResourceService(PlantKind, store, guard, log)
	if opts.ProvisionLog && waterings != nil {
		s.afterCreate = func(ctx context.Context, id string) error {
			_, err := waterings.CreateLog(ctx, id)
			return err
		}
	}
	return s
}

// NewRoomService creates the rooms resource service. Both Create and Update
// expect *interfaces.RoomInput, so a rename always carries a name.
func NewRoomService(store interfaces.DocumentStore, guard *Guard, log *slog.Logger) *ResourceService {
	return NewResourceService(RoomKind, store, guard, log)
}
