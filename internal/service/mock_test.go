package service

import (
	"context"
	"sync"

	"registration-form-api/internal/domain"
	"registration-form-api/internal/repository"
)

// MockSchemaRepository is an in-memory SchemaRepository with optional overrides
type MockSchemaRepository struct {
	GetFunc   func(ctx context.Context, key string) ([]byte, error)
	PutFunc   func(ctx context.Context, key, eventID string, doc []byte, version int) error
	CountFunc func(ctx context.Context) (int64, error)

	mu   sync.Mutex
	docs map[string][]byte
}

func NewMockSchemaRepository() *MockSchemaRepository {
	return &MockSchemaRepository{docs: make(map[string][]byte)}
}

func (m *MockSchemaRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[key]
	if !ok {
		return nil, repository.ErrSchemaNotFound
	}
	return doc, nil
}

func (m *MockSchemaRepository) Put(ctx context.Context, key, eventID string, doc []byte, version int) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, eventID, doc, version)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = doc
	return nil
}

func (m *MockSchemaRepository) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.docs)), nil
}

func (m *MockSchemaRepository) Stored(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[key]
	return doc, ok
}

// MockSchemaCache is a SchemaCache whose behaviour is set per test
type MockSchemaCache struct {
	GetFunc func(ctx context.Context, key string) ([]byte, bool, error)
	SetFunc func(ctx context.Context, key string, doc []byte) error
}

func (m *MockSchemaCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return nil, false, nil
}

func (m *MockSchemaCache) Set(ctx context.Context, key string, doc []byte) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, doc)
	}
	return nil
}

// MockEventSource is an EventSource returning a fixed list
type MockEventSource struct {
	ListEventsFunc func(ctx context.Context) ([]domain.Event, error)
	Events         []domain.Event
}

func (m *MockEventSource) ListEvents(ctx context.Context) ([]domain.Event, error) {
	if m.ListEventsFunc != nil {
		return m.ListEventsFunc(ctx)
	}
	return m.Events, nil
}

// MockSchemaStore wraps a SchemaStore so individual calls can be intercepted
type MockSchemaStore struct {
	SchemaStore
	LoadFunc func(ctx context.Context, event domain.Event) *LoadResult
	SaveFunc func(ctx context.Context, eventID string, schema domain.FormSchema) error
}

func (m *MockSchemaStore) Load(ctx context.Context, event domain.Event) *LoadResult {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, event)
	}
	return m.SchemaStore.Load(ctx, event)
}

func (m *MockSchemaStore) Save(ctx context.Context, eventID string, schema domain.FormSchema) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, eventID, schema)
	}
	return m.SchemaStore.Save(ctx, eventID, schema)
}
