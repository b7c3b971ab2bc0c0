package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/finwise-assistant/internal/assistant"
	"github.com/capitalize-ai/finwise-assistant/internal/model"
	"github.com/capitalize-ai/finwise-assistant/internal/session"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
	"github.com/capitalize-ai/finwise-assistant/pkg/metrics"
)

// Assistant answers turns against a conversation context.
type Assistant interface {
	HandleTurn(ctx context.Context, input string, sc *session.Context) assistant.Turn
	Insight(ctx context.Context) string
}

// Publisher records transcript messages and turn events.
type Publisher interface {
	PublishMessage(ctx context.Context, msg *model.Message) (uint64, error)
	PublishEvent(ctx context.Context, event *model.ConversationEvent) (uint64, error)
}

// MessageService handles message operations.
type MessageService struct {
	conversations *ConversationService
	assistant     Assistant
	publisher     Publisher
	logger        *logger.Logger
}

// NewMessageService creates a new message service. publisher may be nil.
func NewMessageService(conversations *ConversationService, asst Assistant, publisher Publisher, log *logger.Logger) *MessageService {
	return &MessageService{
		conversations: conversations,
		assistant:     asst,
		publisher:     publisher,
		logger:        log.Named("messages"),
	}
}

// Send runs one turn: it records the user message, lets the assistant answer
// it and records the answer. Turns of the same conversation run one at a time.
func (s *MessageService) Send(ctx context.Context, tenantID, conversationID string, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	var (
		userMsg, assistantMsg *model.Message
		turn                  assistant.Turn
	)

	err := s.conversations.modify(ctx, tenantID, conversationID, func(conv *session.Conversation) error {
		conv.AddMessage(model.RoleUser, req.Content)
		userMsg = newMessage(conv, model.RoleUser, req.Content)

		turn = s.assistant.HandleTurn(ctx, req.Content, conv.Context)

		conv.AddMessage(model.RoleAssistant, turn.Response)
		assistantMsg = newMessage(conv, model.RoleAssistant, turn.Response)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MessagesTotal.WithLabelValues(tenantID, string(model.RoleUser)).Inc()
	metrics.MessagesTotal.WithLabelValues(tenantID, string(model.RoleAssistant)).Inc()

	s.publish(ctx, userMsg)
	s.publish(ctx, assistantMsg)
	if turn.Degraded {
		s.publishDegraded(ctx, tenantID, conversationID, turn)
	}

	return &model.SendMessageResponse{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Diagnostics: &model.TurnDiagnostics{
			Query:       turn.Query,
			Valid:       turn.Valid,
			Explanation: turn.Explanation,
			Parameters:  turn.Parameters,
			RecordCount: len(turn.Records),
			Degraded:    turn.Degraded,
			Entities:    turn.Entities,
			Intent:      turn.Intent,
		},
	}, nil
}

// List returns the transcript of a conversation.
func (s *MessageService) List(ctx context.Context, tenantID, conversationID string) (*model.ListMessagesResponse, error) {
	rec, err := s.conversations.Get(ctx, tenantID, conversationID)
	if err != nil {
		return nil, err
	}
	return &model.ListMessagesResponse{
		Messages: rec.Messages,
		Total:    len(rec.Messages),
	}, nil
}

// Insight returns a short standalone insight about the stored data.
func (s *MessageService) Insight(ctx context.Context) string {
	return s.assistant.Insight(ctx)
}

// publish records a message on the stream. The conversation snapshot is the
// source of truth, so a failed publish is logged and not returned.
func (s *MessageService) publish(ctx context.Context, msg *model.Message) {
	if s.publisher == nil {
		return
	}
	seq, err := s.publisher.PublishMessage(ctx, msg)
	if err != nil {
		s.logger.Error("failed to publish message",
			zap.String("conversation_id", msg.ConversationID),
			zap.String("role", string(msg.Role)),
			zap.Error(err),
		)
		return
	}
	msg.Sequence = seq
}

func (s *MessageService) publishDegraded(ctx context.Context, tenantID, conversationID string, turn assistant.Turn) {
	if s.publisher == nil {
		return
	}

	eventType := model.EventTypeDegradedTurn
	if turn.Reason == assistant.ReasonInvalidQuery {
		eventType = model.EventTypeInvalidQuery
	}
	event := &model.ConversationEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		TenantID:       tenantID,
		Type:           eventType,
		Reason:         turn.Reason,
		Metadata: map[string]any{
			"query":       turn.Query,
			"explanation": turn.Explanation,
		},
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("conversation_id", conversationID),
			zap.String("type", string(eventType)),
			zap.Error(err),
		)
	}
}

func newMessage(conv *session.Conversation, role model.Role, content string) *model.Message {
	return &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conv.ID,
		TenantID:       conv.TenantID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
}
