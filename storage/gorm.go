package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/houseplants-app/plants-api/interfaces"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// documentRow holds one document as a JSON body keyed by (collection, id).
type documentRow struct {
	Collection string    `gorm:"primaryKey;size:64"`
	ID         string    `gorm:"primaryKey;size:64"`
	Body       string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"index"`
	UpdatedAt  time.Time
}

func (documentRow) TableName() string {
	return "documents"
}

// GormBackend implements a DocumentStore on a relational database through gorm.
// Each document is a single row; array operations lock that row for the
// duration of one read-modify-write, which is the adapter's per-document atomicity.
type GormBackend struct {
	db          *gorm.DB
	dialect     string
	log         *slog.Logger
	locationURI string
}

// NewSQLiteBackend opens (creating if needed) a sqlite database file.
func NewSQLiteBackend(path string, debug bool, log *slog.Logger) (*GormBackend, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig(debug))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return newGormBackend(db, "sqlite", fmt.Sprintf("sqlite://%s", path), log)
}

// NewPostgresBackend connects to postgres using a DSN or URL.
func NewPostgresBackend(dsn string, debug bool, log *slog.Logger) (*GormBackend, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig(debug))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return newGormBackend(db, "postgres", redactedURI(dsn), log)
}

func gormConfig(debug bool) *gorm.Config {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return &gorm.Config{Logger: logger.Default.LogMode(level)}
}

func newGormBackend(db *gorm.DB, dialect, uri string, log *slog.Logger) (*GormBackend, error) {
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("failed to prepare documents table: %w", err)
	}
	return &GormBackend{
		db:          db,
		dialect:     dialect,
		log:         log,
		locationURI: uri,
	}, nil
}

// Get returns a document by id.
func (b *GormBackend) Get(ctx context.Context, collection, id string) (*interfaces.Document, error) {
	var row documentRow
	err := b.db.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, interfaces.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return rowToDocument(&row)
}

// Query scans the collection and applies the equality filters to the decoded bodies.
func (b *GormBackend) Query(ctx context.Context, collection string, filters ...interfaces.Filter) ([]interfaces.Document, error) {
	var rows []documentRow
	err := b.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	docs := []interfaces.Document{}
	for i := range rows {
		doc, err := rowToDocument(&rows[i])
		if err != nil {
			return nil, err
		}
		if interfaces.Matches(doc.Fields, filters) {
			docs = append(docs, *doc)
		}
	}
	return docs, nil
}

// Create inserts a new row with a random id.
func (b *GormBackend) Create(ctx context.Context, collection string, fields interfaces.Fields) (string, error) {
	body, err := encodeBody(fields)
	if err != nil {
		return "", err
	}

	row := documentRow{
		Collection: collection,
		ID:         uuid.NewString(),
		Body:       body,
	}
	if err := b.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}

	b.log.Debug("Created document", slog.String("dialect", b.dialect), slog.String("collection", collection), slog.String("id", row.ID))
	return row.ID, nil
}

// Update merges top-level fields into the stored body.
func (b *GormBackend) Update(ctx context.Context, collection, id string, fields interfaces.Fields) error {
	normalized, err := interfaces.FieldsFrom(fields)
	if err != nil {
		return err
	}
	return b.modify(ctx, collection, id, func(existing interfaces.Fields) error {
		for k, v := range normalized {
			existing[k] = v
		}
		return nil
	})
}

// Delete removes the row if present.
func (b *GormBackend) Delete(ctx context.Context, collection, id string) error {
	err := b.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&documentRow{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// ArrayUnion appends values not already present in the array field.
func (b *GormBackend) ArrayUnion(ctx context.Context, collection, id, field string, values ...any) error {
	return b.modifyArray(ctx, collection, id, field, values, unionArray)
}

// ArrayRemove removes values from the array field.
func (b *GormBackend) ArrayRemove(ctx context.Context, collection, id, field string, values ...any) error {
	return b.modifyArray(ctx, collection, id, field, values, differenceArray)
}

func (b *GormBackend) modifyArray(ctx context.Context, collection, id, field string, values []any, op func(current, values []any) []any) error {
	normalized, err := normalizeValues(values)
	if err != nil {
		return err
	}
	return b.modify(ctx, collection, id, func(existing interfaces.Fields) error {
		current, err := arrayField(existing, field)
		if err != nil {
			return err
		}
		existing[field] = op(current, normalized)
		return nil
	})
}

// modify runs fn against one locked row.
func (b *GormBackend) modify(ctx context.Context, collection, id string, fn func(interfaces.Fields) error) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row documentRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection = ? AND id = ?", collection, id).
			Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return interfaces.ErrDocumentNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read document: %w", err)
		}

		doc, err := rowToDocument(&row)
		if err != nil {
			return err
		}
		if err := fn(doc.Fields); err != nil {
			return err
		}

		body, err := encodeBody(doc.Fields)
		if err != nil {
			return err
		}
		err = tx.Model(&documentRow{}).
			Where("collection = ? AND id = ?", collection, id).
			Updates(map[string]any{"body": body, "updated_at": time.Now()}).Error
		if err != nil {
			return fmt.Errorf("failed to write document: %w", err)
		}
		return nil
	})
}

// Available pings the underlying connection pool.
func (b *GormBackend) Available(ctx context.Context) bool {
	sqlDB, err := b.db.DB()
	if err != nil {
		return false
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		b.log.Warn("Database unavailable", slog.String("dialect", b.dialect), "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (b *GormBackend) Name() string {
	return b.dialect
}

// LocationURI returns the URI that identifies this store.
func (b *GormBackend) LocationURI() string {
	return b.locationURI
}

// Close closes the connection pool.
func (b *GormBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func rowToDocument(row *documentRow) (*interfaces.Document, error) {
	fields := interfaces.Fields{}
	if err := json.Unmarshal([]byte(row.Body), &fields); err != nil {
		return nil, fmt.Errorf("corrupt document %s/%s: %w", row.Collection, row.ID, err)
	}
	return &interfaces.Document{ID: row.ID, Fields: fields}, nil
}

func encodeBody(fields interfaces.Fields) (string, error) {
	if fields == nil {
		fields = interfaces.Fields{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("could not encode document: %w", err)
	}
	return string(data), nil
}
