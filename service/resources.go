package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/houseplants-app/plants-api/interfaces"
)

// TimestampLayout is the format of stored updatedAt values.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Input is a request body that knows which document fields it carries.
type Input interface {
	Fields() interfaces.Fields
}

// ResourceKind describes one owner-scoped, name-unique collection.
type ResourceKind struct {
	// Name is used in log and error messages.
	Name       string
	Collection string
}

// ResourceService implements create, list, update and delete for one
// ResourceKind.
type ResourceService struct {
	kind     ResourceKind
	store    interfaces.DocumentStore
	guard    *Guard
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time

	// afterCreate runs after a successful insert; an error fails the create
	// but does not remove the inserted document.
	afterCreate func(ctx context.Context, id string) error
}

// NewResourceService creates a service for kind.
func NewResourceService(kind ResourceKind, store interfaces.DocumentStore, guard *Guard, log *slog.Logger) *ResourceService {
	return &ResourceService{
		kind:     kind,
		store:    store,
		guard:    guard,
		validate: newValidator(),
		log:      log.With(slog.String("resource", kind.Name)),
		now:      time.Now,
	}
}

// SetClock replaces the time source used for updatedAt.
func (s *ResourceService) SetClock(now func() time.Time) {
	s.now = now
}

// Kind returns the resource kind served.
func (s *ResourceService) Kind() ResourceKind {
	return s.kind
}

func (s *ResourceService) timestamp() string {
	return s.now().UTC().Format(TimestampLayout)
}

// Create validates in, rejects a name the owner already uses, and inserts.
//
// The uniqueness query and the insert are separate store calls; concurrent
// creates with the same name can both succeed.
func (s *ResourceService) Create(ctx context.Context, ownerID string, in Input) (string, error) {
	if err := validateInput(s.validate, in); err != nil {
		return "", err
	}
	fields := in.Fields()

	existing, err := s.store.Query(ctx, s.kind.Collection,
		interfaces.Eq(interfaces.FieldOwnerID, ownerID),
		interfaces.Eq(interfaces.FieldName, fields[interfaces.FieldName]))
	if err != nil {
		return "", interfaces.NewStoreError("query", err)
	}
	if len(existing) > 0 {
		return "", fmt.Errorf("%w: %s named %q already exists", interfaces.ErrConflict, s.kind.Name, fields.String(interfaces.FieldName))
	}

	fields[interfaces.FieldOwnerID] = ownerID
	fields[interfaces.FieldUpdatedAt] = s.timestamp()

	id, err := s.store.Create(ctx, s.kind.Collection, fields)
	if err != nil {
		return "", interfaces.NewStoreError("create", err)
	}
	s.log.Info("Created resource", slog.String("id", id), slog.String("owner", ownerID))

	if s.afterCreate != nil {
		if err := s.afterCreate(ctx, id); err != nil {
			s.log.Error("Post-create step failed", slog.String("id", id), "err", err)
			return "", err
		}
	}
	return id, nil
}

// List returns the owner's documents in store order.
func (s *ResourceService) List(ctx context.Context, ownerID string) ([]interfaces.Document, error) {
	docs, err := s.store.Query(ctx, s.kind.Collection, interfaces.Eq(interfaces.FieldOwnerID, ownerID))
	if err != nil {
		return nil, interfaces.NewStoreError("query", err)
	}
	return docs, nil
}

// Update merges the fields present in patch into an owned document and
// returns its id. updatedAt is refreshed only when the patch carries at least
// one field; an empty patch writes nothing.
func (s *ResourceService) Update(ctx context.Context, ownerID, id string, patch Input) (string, error) {
	if err := validateInput(s.validate, patch); err != nil {
		return "", err
	}
	if err := s.guard.Authorize(ctx, ownerID, s.kind.Collection, id); err != nil {
		return "", err
	}

	fields := patch.Fields()
	if len(fields) == 0 {
		return id, nil
	}
	fields[interfaces.FieldUpdatedAt] = s.timestamp()

	err := s.store.Update(ctx, s.kind.Collection, id, fields)
	if errors.Is(err, interfaces.ErrDocumentNotFound) {
		// Deleted after the ownership check.
		return "", fmt.Errorf("%w: %s/%s", interfaces.ErrNotFound, s.kind.Collection, id)
	}
	if err != nil {
		return "", interfaces.NewStoreError("update", err)
	}

	s.log.Info("Updated resource", slog.String("id", id))
	return id, nil
}

// Delete removes an owned document. A missing document counts as deleted.
func (s *ResourceService) Delete(ctx context.Context, ownerID, id string) error {
	err := s.guard.Authorize(ctx, ownerID, s.kind.Collection, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		s.log.Debug("Delete of missing resource", slog.String("id", id))
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, s.kind.Collection, id); err != nil {
		return interfaces.NewStoreError("delete", err)
	}
	s.log.Info("Deleted resource", slog.String("id", id))
	return nil
}
