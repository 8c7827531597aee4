package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"registration-form-api/internal/domain"
	"registration-form-api/internal/metrics"
	"registration-form-api/internal/repository"
)

// User-visible notices for loads that fell back to the default form
const (
	NoticeUnreadableSchema   = "The saved form for this event could not be read. The default form was loaded instead."
	NoticeStorageUnavailable = "Saved forms are unavailable right now. The default form was loaded instead."
)

// LoadResult is the outcome of SchemaStore.Load
type LoadResult struct {
	Schema       domain.FormSchema
	FromDefaults bool
	Migrated     bool
	// Notice is set when a stored document existed but could not be used
	Notice string
	Source string
}

// SchemaStore persists one schema document per event
type SchemaStore interface {
	// Load never fails: missing or unusable documents yield the default schema
	Load(ctx context.Context, event domain.Event) *LoadResult
	Save(ctx context.Context, eventID string, schema domain.FormSchema) error
	Export(schema domain.FormSchema, event *domain.Event) ([]byte, error)
	Import(data []byte) (domain.FormSchema, error)
}

// schemaStoreImpl is the implementation of SchemaStore
type schemaStoreImpl struct {
	repo      repository.SchemaRepository
	cache     repository.SchemaCache
	keyPrefix string
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewSchemaStore creates a new instance of SchemaStore
func NewSchemaStore(repo repository.SchemaRepository, cache repository.SchemaCache, keyPrefix string, logger *zap.Logger, m *metrics.Metrics) SchemaStore {
	if cache == nil {
		cache = repository.NewNoopSchemaCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &schemaStoreImpl{
		repo:      repo,
		cache:     cache,
		keyPrefix: keyPrefix,
		logger:    logger,
		metrics:   m,
	}
}

func (s *schemaStoreImpl) key(eventID string) string {
	return s.keyPrefix + eventID
}

// Load reads the mirror first, then durable storage, and migrates the document
func (s *schemaStoreImpl) Load(ctx context.Context, event domain.Event) *LoadResult {
	key := s.key(event.ID)

	if raw, ok := s.readCache(ctx, key); ok {
		schema, report, err := domain.Migrate(raw)
		if err == nil {
			return s.loaded(event, schema, report, metrics.LoadSourceCache)
		}
		s.logger.Warn("Discarding malformed cached schema",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	raw, err := s.repo.Get(ctx, key)
	if errors.Is(err, repository.ErrSchemaNotFound) {
		return s.defaults(event, "")
	}
	if err != nil {
		s.logger.Warn("Failed to read stored schema, using defaults",
			zap.String("key", key),
			zap.Error(err),
		)
		return s.defaults(event, NoticeStorageUnavailable)
	}

	schema, report, err := domain.Migrate(raw)
	if err != nil {
		s.logger.Warn("Stored schema is malformed, using defaults",
			zap.String("key", key),
			zap.Error(err),
		)
		return s.defaults(event, NoticeUnreadableSchema)
	}

	s.writeCache(ctx, key, raw)
	return s.loaded(event, schema, report, metrics.LoadSourceStore)
}

func (s *schemaStoreImpl) loaded(event domain.Event, schema domain.FormSchema, report domain.MigrationReport, source string) *LoadResult {
	if schema.Title == "" {
		schema.Title = domain.DefaultTitle(event.Name)
	}
	if report.Changed() {
		s.logger.Info("Migrated stored schema",
			zap.String("event_id", event.ID),
			zap.Int("from_version", report.FromVersion),
			zap.Strings("applied", report.Applied),
		)
	}
	s.metrics.RecordSchemaLoad(source, report.Changed())
	return &LoadResult{
		Schema:   schema,
		Migrated: report.Changed(),
		Source:   source,
	}
}

func (s *schemaStoreImpl) defaults(event domain.Event, notice string) *LoadResult {
	s.metrics.RecordSchemaLoad(metrics.LoadSourceDefaults, false)
	return &LoadResult{
		Schema:       domain.DefaultSchema(event.Name),
		FromDefaults: true,
		Notice:       notice,
		Source:       metrics.LoadSourceDefaults,
	}
}

// Save overwrites the document for eventID. Mirror failures are logged only.
func (s *schemaStoreImpl) Save(ctx context.Context, eventID string, schema domain.FormSchema) error {
	doc, err := json.Marshal(domain.NewSchemaDocument(schema, nil))
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}

	key := s.key(eventID)
	if err := s.repo.Put(ctx, key, eventID, doc, domain.CurrentSchemaVersion); err != nil {
		return fmt.Errorf("failed to store schema: %w", err)
	}
	s.metrics.RecordSchemaSaved()

	s.writeCache(ctx, key, doc)
	return nil
}

// Export encodes schema together with its event as a re-importable document
func (s *schemaStoreImpl) Export(schema domain.FormSchema, event *domain.Event) ([]byte, error) {
	data, err := json.MarshalIndent(domain.NewSchemaDocument(schema, event), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	s.metrics.RecordExport()
	return data, nil
}

// Import parses and migrates an exported document. The event it carries is ignored.
func (s *schemaStoreImpl) Import(data []byte) (domain.FormSchema, error) {
	schema, report, err := domain.Migrate(data)
	if err != nil {
		s.metrics.RecordImport(false)
		return domain.FormSchema{}, err
	}
	if report.Changed() {
		s.logger.Info("Migrated imported schema",
			zap.Int("from_version", report.FromVersion),
			zap.Strings("applied", report.Applied),
		)
	}
	s.metrics.RecordImport(true)
	return schema, nil
}

func (s *schemaStoreImpl) readCache(ctx context.Context, key string) ([]byte, bool) {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Schema mirror read failed",
			zap.String("key", key),
			zap.Error(err),
		)
		s.metrics.RecordMirrorFailure(metrics.MirrorTargetCache)
		return nil, false
	}
	return raw, ok
}

func (s *schemaStoreImpl) writeCache(ctx context.Context, key string, doc []byte) {
	if err := s.cache.Set(ctx, key, doc); err != nil {
		s.logger.Warn("Schema mirror write failed",
			zap.String("key", key),
			zap.Error(err),
		)
		s.metrics.RecordMirrorFailure(metrics.MirrorTargetCache)
	}
}
