package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/houseplants-app/plants-api/interfaces"
)

// WateringService manages the watering log of a plant. Callers must have
// authorized the principal against the parent plant.
type WateringService struct {
	store    interfaces.DocumentStore
	validate *validator.Validate
	log      *slog.Logger
	newID    func() string
}

// NewWateringService creates a watering service on store.
func NewWateringService(store interfaces.DocumentStore, log *slog.Logger) *WateringService {
	return &WateringService{
		store:    store,
		validate: newValidator(),
		log:      log.With(slog.String("resource", "watering")),
		newID:    uuid.NewString,
	}
}

// CreateLog inserts an empty log for plantID without checking for an
// existing one.
func (s *WateringService) CreateLog(ctx context.Context, plantID string) (string, error) {
	id, err := s.store.Create(ctx, interfaces.WateringCollection, interfaces.Fields{
		interfaces.FieldPlantID: plantID,
		interfaces.FieldRecords: []any{},
	})
	if err != nil {
		return "", interfaces.NewStoreError("create", err)
	}
	s.log.Info("Created watering log", slog.String("plant", plantID), slog.String("log", id))
	return id, nil
}

// GetOrCreateLog returns the first log stored for plantID, creating an empty
// one when there is none. The lookup and the insert are separate calls, so
// concurrent first accesses may leave the plant with more than one log.
func (s *WateringService) GetOrCreateLog(ctx context.Context, plantID string) (*interfaces.Document, error) {
	logs, err := s.store.Query(ctx, interfaces.WateringCollection, interfaces.Eq(interfaces.FieldPlantID, plantID))
	if err != nil {
		return nil, interfaces.NewStoreError("query", err)
	}
	if len(logs) > 0 {
		if len(logs) > 1 {
			s.log.Warn("Plant has more than one watering log, using the first",
				slog.String("plant", plantID),
				slog.Int("logs", len(logs)))
		}
		return &logs[0], nil
	}

	s.log.Debug("No watering log for plant, creating one", slog.String("plant", plantID))
	id, err := s.CreateLog(ctx, plantID)
	if err != nil {
		return nil, err
	}
	return &interfaces.Document{
		ID: id,
		Fields: interfaces.Fields{
			interfaces.FieldPlantID: plantID,
			interfaces.FieldRecords: []any{},
		},
	}, nil
}

// List returns the plant's watering records in stored order.
func (s *WateringService) List(ctx context.Context, plantID string) ([]interfaces.WateringRecord, error) {
	doc, err := s.GetOrCreateLog(ctx, plantID)
	if err != nil {
		return nil, err
	}

	var wlog interfaces.WateringLog
	if err := doc.Fields.Decode(&wlog); err != nil {
		return nil, interfaces.NewStoreError("decode", err)
	}
	if wlog.Records == nil {
		wlog.Records = []interfaces.WateringRecord{}
	}
	return wlog.Records, nil
}

// Append adds a record with a fresh id to the plant's log and returns the id.
func (s *WateringService) Append(ctx context.Context, plantID string, in *interfaces.WateringInput) (string, error) {
	if err := validateInput(s.validate, in); err != nil {
		return "", err
	}

	doc, err := s.GetOrCreateLog(ctx, plantID)
	if err != nil {
		return "", err
	}

	record := map[string]any{
		interfaces.FieldRecordID: s.newID(),
		"wateredAt":              *in.WateredAt,
		"health":                 *in.Health,
	}
	err = s.store.ArrayUnion(ctx, interfaces.WateringCollection, doc.ID, interfaces.FieldRecords, record)
	if err != nil {
		return "", interfaces.NewStoreError("array-union", err)
	}

	id := record[interfaces.FieldRecordID].(string)
	s.log.Info("Added watering", slog.String("plant", plantID), slog.String("watering", id))
	return id, nil
}

// Remove deletes the record with recordID from the plant's log. Removing an
// unknown record succeeds.
func (s *WateringService) Remove(ctx context.Context, plantID, recordID string) error {
	doc, err := s.GetOrCreateLog(ctx, plantID)
	if err != nil {
		return err
	}

	for _, raw := range doc.Fields.Array(interfaces.FieldRecords) {
		record, ok := raw.(map[string]any)
		if !ok || record[interfaces.FieldRecordID] != recordID {
			continue
		}

		err := s.store.ArrayRemove(ctx, interfaces.WateringCollection, doc.ID, interfaces.FieldRecords, raw)
		if errors.Is(err, interfaces.ErrDocumentNotFound) {
			return nil
		}
		if err != nil {
			return interfaces.NewStoreError("array-remove", err)
		}
		s.log.Info("Removed watering", slog.String("plant", plantID), slog.String("watering", recordID))
		return nil
	}

	s.log.Debug("Watering to remove not present", slog.String("plant", plantID), slog.String("watering", recordID))
	return nil
}

// Update edits one record in place and writes the whole records array back.
// There is no concurrency token; a concurrent Append, Remove or Update on the
// same log can be overwritten.
func (s *WateringService) Update(ctx context.Context, plantID, recordID string, patch interfaces.WateringPatch) (string, error) {
	doc, err := s.GetOrCreateLog(ctx, plantID)
	if err != nil {
		return "", err
	}

	records := doc.Fields.Clone().Array(interfaces.FieldRecords)
	found := false
	for _, raw := range records {
		record, ok := raw.(map[string]any)
		if !ok || record[interfaces.FieldRecordID] != recordID {
			continue
		}
		for k, v := range patch.Fields() {
			record[k] = v
		}
		found = true
	}
	if !found {
		return "", fmt.Errorf("%w: watering %s does not exist for plant %s", interfaces.ErrNotFound, recordID, plantID)
	}

	err = s.store.Update(ctx, interfaces.WateringCollection, doc.ID, interfaces.Fields{interfaces.FieldRecords: records})
	if errors.Is(err, interfaces.ErrDocumentNotFound) {
		return "", fmt.Errorf("%w: watering log for plant %s", interfaces.ErrNotFound, plantID)
	}
	if err != nil {
		return "", interfaces.NewStoreError("update", err)
	}

	s.log.Info("Updated watering", slog.String("plant", plantID), slog.String("watering", recordID))
	return recordID, nil
}
