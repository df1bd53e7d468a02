package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/houseplants-app/plants-api/interfaces"
)

// Guard decides whether a principal may act on a stored resource.
//
// It is a pre-check only: the document may change or disappear between
// Authorize and whatever the caller does next.
type Guard struct {
	store interfaces.DocumentStore
	log   *slog.Logger
}

// NewGuard creates a guard reading from store.
func NewGuard(store interfaces.DocumentStore, log *slog.Logger) *Guard {
	return &Guard{store: store, log: log}
}

// Authorize returns nil when principalID owns collection/resourceID,
// ErrNotFound when the document does not exist, ErrForbidden when someone
// else owns it, or a *StoreError.
func (g *Guard) Authorize(ctx context.Context, principalID, collection, resourceID string) error {
	doc, err := g.store.Get(ctx, collection, resourceID)
	if errors.Is(err, interfaces.ErrDocumentNotFound) {
		return fmt.Errorf("%w: %s/%s", interfaces.ErrNotFound, collection, resourceID)
	}
	if err != nil {
		return interfaces.NewStoreError("get", err)
	}

	if owner := doc.Fields.String(interfaces.FieldOwnerID); owner != principalID {
		g.log.Warn("Ownership check failed",
			slog.String("collection", collection),
			slog.String("id", resourceID),
			slog.String("principal", principalID))
		return fmt.Errorf("%w: %s/%s", interfaces.ErrForbidden, collection, resourceID)
	}
	return nil
}
