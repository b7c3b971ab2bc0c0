// Package service provides business logic for the assistant's conversations.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/finwise-assistant/internal/model"
	"github.com/capitalize-ai/finwise-assistant/internal/session"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
	"github.com/capitalize-ai/finwise-assistant/pkg/metrics"
)

// ErrConversationNotFound is returned for unknown conversations and for
// conversations of another tenant.
var ErrConversationNotFound = errors.New("conversation not found")

// live is a loaded conversation. Its lock serializes the turns of one
// conversation; different conversations never share state. A live entry
// that was deleted or evicted is never used again: callers holding it load
// a fresh one.
type live struct {
	tenantID string

	mu       sync.Mutex
	conv     *session.Conversation
	lastUsed time.Time
	deleted  bool
	evicted  bool
}

// ConversationService handles conversation operations.
type ConversationService struct {
	store       Store
	historySize int
	logger      *logger.Logger

	mu    sync.Mutex
	cache map[string]*live
}

// NewConversationService creates a new conversation service. historySize is
// the context history capacity of every conversation.
func NewConversationService(store Store, historySize int, log *logger.Logger) *ConversationService {
	return &ConversationService{
		store:       store,
		historySize: historySize,
		logger:      log.Named("conversations"),
		cache:       make(map[string]*live),
	}
}

// Create starts a new conversation seeded with the greeting.
func (s *ConversationService) Create(ctx context.Context, tenantID, userID string, req *model.CreateConversationRequest) (*model.Conversation, error) {
	conv := session.NewConversation("", req.Title, s.historySize)
	conv.TenantID = tenantID
	conv.UserID = userID

	rec := conv.Record()
	if err := s.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}

	s.mu.Lock()
	s.cache[conv.ID] = &live{tenantID: tenantID, conv: conv, lastUsed: time.Now()}
	s.mu.Unlock()

	metrics.ConversationsTotal.WithLabelValues(tenantID).Inc()
	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("tenant_id", tenantID),
	)

	return rec, nil
}

// Get returns the persisted form of a conversation.
func (s *ConversationService) Get(ctx context.Context, tenantID, conversationID string) (*model.Conversation, error) {
	var rec *model.Conversation
	err := s.view(ctx, tenantID, conversationID, func(conv *session.Conversation) {
		rec = conv.Record()
	})
	return rec, err
}

// Context returns the context summary of a conversation.
func (s *ConversationService) Context(ctx context.Context, tenantID, conversationID string) (*model.ContextSummary, error) {
	var summary model.ContextSummary
	err := s.view(ctx, tenantID, conversationID, func(conv *session.Conversation) {
		summary = conv.Context.Summary()
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// List returns a page of a tenant's conversations, most recently updated first.
func (s *ConversationService) List(ctx context.Context, tenantID string, limit, offset int) (*model.ListConversationsResponse, error) {
	recs, err := s.store.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].UpdatedAt.After(recs[j].UpdatedAt)
	})

	total := len(recs)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	summaries := make([]model.ConversationSummary, 0, end-start)
	for _, rec := range recs[start:end] {
		summaries = append(summaries, model.ConversationSummary{
			ID:           rec.ID,
			Title:        rec.Title,
			MessageCount: len(rec.Messages),
			CreatedAt:    rec.CreatedAt,
			UpdatedAt:    rec.UpdatedAt,
		})
	}

	return &model.ListConversationsResponse{
		Conversations: summaries,
		Total:         total,
		HasMore:       end < total,
	}, nil
}

// Update renames a conversation.
func (s *ConversationService) Update(ctx context.Context, tenantID, conversationID string, req *model.UpdateConversationRequest) (*model.Conversation, error) {
	var rec *model.Conversation
	err := s.modify(ctx, tenantID, conversationID, func(conv *session.Conversation) error {
		conv.Rename(req.Title)
		rec = conv.Record()
		return nil
	})
	return rec, err
}

// Delete removes a conversation.
func (s *ConversationService) Delete(ctx context.Context, tenantID, conversationID string) error {
	l, err := s.acquire(ctx, tenantID, conversationID)
	if err != nil {
		return err
	}
	defer l.mu.Unlock()

	if err := s.store.Delete(ctx, tenantID, conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	l.deleted = true
	s.mu.Lock()
	delete(s.cache, conversationID)
	s.mu.Unlock()

	s.logger.Info("conversation deleted", zap.String("conversation_id", conversationID))
	return nil
}

// EvictIdle drops conversations unused for longer than idle from memory and
// returns how many were dropped. The store keeps them; the next access
// restores them. Conversations in the middle of a turn are skipped.
func (s *ConversationService) EvictIdle(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, l := range s.cache {
		if !l.mu.TryLock() {
			continue
		}
		if time.Since(l.lastUsed) > idle {
			l.evicted = true
			delete(s.cache, id)
			evicted++
		}
		l.mu.Unlock()
	}
	return evicted
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (s *ConversationService) RunEviction(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(idle); n > 0 {
				s.logger.Debug("evicted idle conversations", zap.Int("count", n))
			}
		}
	}
}

// modify runs fn on a copy of the live conversation under its lock. The copy
// replaces the live conversation only once it has been stored, so a failed
// save leaves no trace of fn in memory.
func (s *ConversationService) modify(ctx context.Context, tenantID, conversationID string, fn func(*session.Conversation) error) error {
	l, err := s.acquire(ctx, tenantID, conversationID)
	if err != nil {
		return err
	}
	defer l.mu.Unlock()

	draft, err := session.FromRecord(l.conv.Record(), s.historySize)
	if err != nil {
		return fmt.Errorf("failed to copy conversation: %w", err)
	}
	if err := fn(draft); err != nil {
		return err
	}
	if err := s.store.Put(ctx, draft.Record()); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}

	l.conv = draft
	return nil
}

func (s *ConversationService) view(ctx context.Context, tenantID, conversationID string, fn func(*session.Conversation)) error {
	l, err := s.acquire(ctx, tenantID, conversationID)
	if err != nil {
		return err
	}
	defer l.mu.Unlock()

	fn(l.conv)
	return nil
}

// acquire returns the live conversation locked.
func (s *ConversationService) acquire(ctx context.Context, tenantID, conversationID string) (*live, error) {
	for {
		l, err := s.load(ctx, tenantID, conversationID)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		switch {
		case l.evicted:
			l.mu.Unlock()
			continue
		case l.deleted:
			l.mu.Unlock()
			return nil, ErrConversationNotFound
		}
		l.lastUsed = time.Now()
		return l, nil
	}
}

// load returns the live conversation, restoring it from the store on first use.
func (s *ConversationService) load(ctx context.Context, tenantID, conversationID string) (*live, error) {
	s.mu.Lock()
	l, ok := s.cache[conversationID]
	s.mu.Unlock()
	if ok {
		if l.tenantID != tenantID {
			return nil, ErrConversationNotFound
		}
		return l, nil
	}

	rec, err := s.store.Get(ctx, tenantID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if rec == nil || rec.TenantID != tenantID {
		return nil, ErrConversationNotFound
	}

	conv, err := session.FromRecord(rec, s.historySize)
	if err != nil {
		return nil, fmt.Errorf("failed to restore conversation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cache[conversationID]; ok {
		return existing, nil
	}
	l = &live{tenantID: tenantID, conv: conv, lastUsed: time.Now()}
	s.cache[conversationID] = l
	return l, nil
}
