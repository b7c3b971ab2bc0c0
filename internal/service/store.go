package service

import (
	"context"
	"sync"

	"github.com/capitalize-ai/finwise-assistant/internal/model"
)

// Store persists conversation records. Get returns nil and no error when the
// conversation does not exist.
type Store interface {
	Put(ctx context.Context, rec *model.Conversation) error
	Get(ctx context.Context, tenantID, conversationID string) (*model.Conversation, error)
	List(ctx context.Context, tenantID string) ([]*model.Conversation, error)
	Delete(ctx context.Context, tenantID, conversationID string) error
}

// MemoryStore keeps records in process memory. It serves the CLI and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*model.Conversation
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*model.Conversation)}
}

// Put stores a copy of rec.
func (s *MemoryStore) Put(_ context.Context, rec *model.Conversation) error {
	cp := *rec
	s.mu.Lock()
	s.records[rec.ID] = &cp
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the record if it belongs to tenantID.
func (s *MemoryStore) Get(_ context.Context, tenantID, conversationID string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[conversationID]
	if !ok || rec.TenantID != tenantID {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// List returns copies of every record of tenantID.
func (s *MemoryStore) List(_ context.Context, tenantID string) ([]*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Conversation
	for _, rec := range s.records {
		if rec.TenantID == tenantID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Delete removes the record if it belongs to tenantID.
func (s *MemoryStore) Delete(_ context.Context, tenantID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[conversationID]; ok && rec.TenantID == tenantID {
		delete(s.records, conversationID)
	}
	return nil
}
