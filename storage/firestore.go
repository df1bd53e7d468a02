package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/houseplants-app/plants-api/interfaces"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreBackend implements a DocumentStore on Google Cloud Firestore.
// Collections map to top-level Firestore collections and array operations use
// Firestore's native ArrayUnion / ArrayRemove transforms.
type FirestoreBackend struct {
	client      *firestore.Client
	projectID   string
	log         *slog.Logger
	locationURI string
}

// NewFirestoreBackend connects to Firestore for the given project.
// If credentialsFile is empty, application default credentials are used;
// FIRESTORE_EMULATOR_HOST is honoured by the client library.
func NewFirestoreBackend(ctx context.Context, projectID, credentialsFile string, log *slog.Logger) (*FirestoreBackend, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &FirestoreBackend{
		client:      client,
		projectID:   projectID,
		log:         log,
		locationURI: fmt.Sprintf("firestore://%s", projectID),
	}, nil
}

// Get returns a document by id.
func (b *FirestoreBackend) Get(ctx context.Context, collection, id string) (*interfaces.Document, error) {
	snap, err := b.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, interfaces.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document from Firestore: %w", err)
	}
	return snapshotToDocument(snap)
}

// Query runs an equality query against the collection.
func (b *FirestoreBackend) Query(ctx context.Context, collection string, filters ...interfaces.Filter) ([]interfaces.Document, error) {
	start := time.Now()
	q := b.client.Collection(collection).Query
	for _, f := range filters {
		v, err := interfaces.NormalizeValue(f.Value)
		if err != nil {
			return nil, err
		}
		q = q.Where(f.Field, "==", v)
	}

	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		b.log.Error("Firestore query failed",
			slog.String("collection", collection),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to query Firestore: %w", err)
	}

	docs := make([]interfaces.Document, 0, len(snaps))
	for _, snap := range snaps {
		doc, err := snapshotToDocument(snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// Create adds a document with a Firestore-generated id.
func (b *FirestoreBackend) Create(ctx context.Context, collection string, fields interfaces.Fields) (string, error) {
	normalized, err := interfaces.FieldsFrom(fields)
	if err != nil {
		return "", err
	}
	if normalized == nil {
		normalized = interfaces.Fields{}
	}

	ref, _, err := b.client.Collection(collection).Add(ctx, map[string]any(normalized))
	if err != nil {
		return "", fmt.Errorf("failed to add document to Firestore: %w", err)
	}
	return ref.ID, nil
}

// Update merges fields into an existing document.
func (b *FirestoreBackend) Update(ctx context.Context, collection, id string, fields interfaces.Fields) error {
	normalized, err := interfaces.FieldsFrom(fields)
	if err != nil {
		return err
	}
	if len(normalized) == 0 {
		return nil
	}

	updates := make([]firestore.Update, 0, len(normalized))
	for k, v := range normalized {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	return b.update(ctx, collection, id, updates)
}

// Delete removes the document; Firestore deletes of missing documents succeed.
func (b *FirestoreBackend) Delete(ctx context.Context, collection, id string) error {
	if _, err := b.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete Firestore document: %w", err)
	}
	return nil
}

// ArrayUnion applies a Firestore arrayUnion transform.
func (b *FirestoreBackend) ArrayUnion(ctx context.Context, collection, id, field string, values ...any) error {
	normalized, err := normalizeValues(values)
	if err != nil {
		return err
	}
	return b.update(ctx, collection, id, []firestore.Update{
		{FieldPath: firestore.FieldPath{field}, Value: firestore.ArrayUnion(normalized...)},
	})
}

// ArrayRemove applies a Firestore arrayRemove transform.
func (b *FirestoreBackend) ArrayRemove(ctx context.Context, collection, id, field string, values ...any) error {
	normalized, err := normalizeValues(values)
	if err != nil {
		return err
	}
	return b.update(ctx, collection, id, []firestore.Update{
		{FieldPath: firestore.FieldPath{field}, Value: firestore.ArrayRemove(normalized...)},
	})
}

func (b *FirestoreBackend) update(ctx context.Context, collection, id string, updates []firestore.Update) error {
	_, err := b.client.Collection(collection).Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return interfaces.ErrDocumentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update Firestore document: %w", err)
	}
	return nil
}

// Available lists collections to check connectivity and permissions.
func (b *FirestoreBackend) Available(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := b.client.Collections(checkCtx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		b.log.Warn("Firestore unavailable", slog.String("project", b.projectID), "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (b *FirestoreBackend) Name() string {
	return fmt.Sprintf("firestore-%s", b.projectID)
}

// LocationURI returns the URI that identifies this store.
func (b *FirestoreBackend) LocationURI() string {
	return b.locationURI
}

// Close releases the client's connections.
func (b *FirestoreBackend) Close() error {
	return b.client.Close()
}

func snapshotToDocument(snap *firestore.DocumentSnapshot) (*interfaces.Document, error) {
	fields, err := interfaces.FieldsFrom(snap.Data())
	if err != nil {
		return nil, fmt.Errorf("could not normalize Firestore document %s: %w", snap.Ref.ID, err)
	}
	if fields == nil {
		fields = interfaces.Fields{}
	}
	return &interfaces.Document{ID: snap.Ref.ID, Fields: fields}, nil
}
