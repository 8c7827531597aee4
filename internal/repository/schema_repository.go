package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"registration-form-api/internal/domain"
)

var (
	// ErrSchemaNotFound is returned when no document is stored under a key
	ErrSchemaNotFound = errors.New("schema not found")
	// ErrDatabaseUnavailable is returned while no database connection exists yet
	ErrDatabaseUnavailable = errors.New("database unavailable")
)

// SchemaRepository defines durable storage for schema documents. Each key holds
// exactly one document; Put overwrites it.
type SchemaRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key, eventID string, doc []byte, version int) error
	Count(ctx context.Context) (int64, error)
}

// schemaRepositoryImpl is the GORM implementation of SchemaRepository
type schemaRepositoryImpl struct {
	provider func() *gorm.DB
}

// NewSchemaRepository creates a new instance of SchemaRepository
func NewSchemaRepository(db *gorm.DB) SchemaRepository {
	return &schemaRepositoryImpl{provider: func() *gorm.DB { return db }}
}

// NewSchemaRepositoryWithProvider resolves the connection on every call, so a
// database connected in the background is picked up once it is available.
func NewSchemaRepositoryWithProvider(provider func() *gorm.DB) SchemaRepository {
	return &schemaRepositoryImpl{provider: provider}
}

func (r *schemaRepositoryImpl) conn(ctx context.Context) (*gorm.DB, error) {
	db := r.provider()
	if db == nil {
		return nil, ErrDatabaseUnavailable
	}
	return db.WithContext(ctx), nil
}

// Get returns the raw document stored under key
func (r *schemaRepositoryImpl) Get(ctx context.Context, key string) ([]byte, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var record domain.FormSchemaRecord
	if err := db.
		Where("key = ?", key).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSchemaNotFound
		}
		return nil, err
	}
	return []byte(record.Document), nil
}

// Put upserts the document stored under key
func (r *schemaRepositoryImpl) Put(ctx context.Context, key, eventID string, doc []byte, version int) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	record := &domain.FormSchemaRecord{
		Key:       key,
		EventID:   eventID,
		Document:  datatypes.JSON(doc),
		Version:   version,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"event_id", "document", "version", "updated_at"}),
	}).Create(record).Error
}

// Count returns the number of stored documents
func (r *schemaRepositoryImpl) Count(ctx context.Context) (int64, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.
		Model(&domain.FormSchemaRecord{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
