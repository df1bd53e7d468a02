package interfaces

// Collection names used by the document store.
const (
	PlantCollection    = "plants"
	RoomCollection     = "rooms"
	WateringCollection = "waterings"
)

// Document field names shared by the services and store adapters.
const (
	FieldOwnerID   = "ownerId"
	FieldName      = "name"
	FieldUpdatedAt = "updatedAt"
	FieldPlantID   = "plantId"
	FieldRecords   = "records"
	FieldRecordID  = "id"
)

// Principal is the authenticated caller. It is produced by an Authenticator
// and never persisted.
type Principal struct {
	ID string
}

// UserProfile is the public profile of a principal returned by GET /users/me.
type UserProfile struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Plant is a user-owned plant document. Name is unique within OwnerID.
type Plant struct {
	OwnerID string `json:"ownerId"`
	Name    string `json:"name"`
	// WaterAt is the time of day to water the plant, "HH:MM".
	WaterAt string `json:"waterAt"`
	// RoomID is a soft reference to a Room; it is never checked or cascaded.
	RoomID string `json:"roomId"`
	// TrefleID references species data in the Trefle API.
	TrefleID  int    `json:"trefleId"`
	HasDevice bool   `json:"hasDevice"`
	UpdatedAt string `json:"updatedAt"`
}

// Room is a user-owned grouping of plants. Name is unique within OwnerID.
type Room struct {
	OwnerID   string `json:"ownerId"`
	Name      string `json:"name"`
	IconID    *int   `json:"iconId,omitempty"`
	UpdatedAt string `json:"updatedAt"`
}

// WateringRecord is one element of a plant's watering history.
// Array removal compares records by full value, including ID.
type WateringRecord struct {
	ID        string  `json:"id"`
	WateredAt string  `json:"wateredAt"`
	Health    float64 `json:"health"`
}

// WateringLog is the single (by convention) history document of a plant.
type WateringLog struct {
	ID      string           `json:"-"`
	PlantID string           `json:"plantId"`
	Records []WateringRecord `json:"records"`
}

// PlantInput is the body of POST /plants. Every field is required.
type PlantInput struct {
	Name      *string `json:"name" validate:"required"`
	WaterAt   *string `json:"waterAt" validate:"required"`
	RoomID    *string `json:"roomId" validate:"required"`
	TrefleID  *int    `json:"trefleId" validate:"required"`
	HasDevice *bool   `json:"hasDevice" validate:"required"`
}

// Fields returns the fields present in the input.
func (in *PlantInput) Fields() Fields {
	return PlantPatch(*in).Fields()
}

// PlantPatch is the body of PUT /plants/{plantId}. Any subset may be present.
type PlantPatch struct {
	Name      *string `json:"name"`
	WaterAt   *string `json:"waterAt"`
	RoomID    *string `json:"roomId"`
	TrefleID  *int    `json:"trefleId"`
	HasDevice *bool   `json:"hasDevice"`
}

// Fields returns the fields present in the patch.
func (in PlantPatch) Fields() Fields {
	f := Fields{}
	if in.Name != nil {
		f[FieldName] = *in.Name
	}
	if in.WaterAt != nil {
		f["waterAt"] = *in.WaterAt
	}
	if in.RoomID != nil {
		f["roomId"] = *in.RoomID
	}
	if in.TrefleID != nil {
		f["trefleId"] = float64(*in.TrefleID)
	}
	if in.HasDevice != nil {
		f["hasDevice"] = *in.HasDevice
	}
	return f
}

// RoomInput is the body of POST /rooms and PUT /rooms/{roomId}.
type RoomInput struct {
	Name   *string `json:"name" validate:"required"`
	IconID *int    `json:"iconId"`
}

// Fields returns the fields present in the input.
func (in *RoomInput) Fields() Fields {
	f := Fields{}
	if in.Name != nil {
		f[FieldName] = *in.Name
	}
	if in.IconID != nil {
		f["iconId"] = float64(*in.IconID)
	}
	return f
}

// WateringInput is the body of POST /plants/{plantId}/waterings.
type WateringInput struct {
	WateredAt *string  `json:"wateredAt" validate:"required"`
	Health    *float64 `json:"health" validate:"required"`
}

// WateringPatch is the body of PUT /plants/{plantId}/waterings/{wateringId}.
type WateringPatch struct {
	WateredAt *string  `json:"wateredAt"`
	Health    *float64 `json:"health"`
}

// Fields returns the fields present in the patch.
func (in WateringPatch) Fields() Fields {
	f := Fields{}
	if in.WateredAt != nil {
		f["wateredAt"] = *in.WateredAt
	}
	if in.Health != nil {
		f["health"] = *in.Health
	}
	return f
}
