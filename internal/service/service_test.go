package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/finwise-assistant/internal/assistant"
	"github.com/capitalize-ai/finwise-assistant/internal/model"
	"github.com/capitalize-ai/finwise-assistant/internal/session"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
)

type fakeAssistant struct {
	degraded bool
	reason   string
	active   int32
	overlap  int32
	delay    time.Duration
}

func (f *fakeAssistant) HandleTurn(_ context.Context, input string, sc *session.Context) assistant.Turn {
	if atomic.AddInt32(&f.active, 1) > 1 {
		atomic.StoreInt32(&f.overlap, 1)
	}
	defer atomic.AddInt32(&f.active, -1)
	time.Sleep(f.delay)

	entities := model.NewEntityBag()
	entities.Companies = []string{"TCS"}
	sc.Update(input, entities, model.UnknownIntent(), "[]")
	answer := "answer to " + input
	sc.UpdateAIResponse(answer)
	return assistant.Turn{
		Response: answer,
		Entities: entities,
		Intent:   model.UnknownIntent(),
		Query:    "MATCH (c:Company) RETURN c",
		Valid:    !f.degraded,
		Degraded: f.degraded,
		Reason:   f.reason,
	}
}

func (f *fakeAssistant) Insight(context.Context) string { return "TCS leads on revenue." }

type fakePublisher struct {
	mu       sync.Mutex
	messages []*model.Message
	events   []*model.ConversationEvent
	err      error
}

func (p *fakePublisher) PublishMessage(_ context.Context, msg *model.Message) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	p.messages = append(p.messages, msg)
	return uint64(len(p.messages)), nil
}

func (p *fakePublisher) PublishEvent(_ context.Context, event *model.ConversationEvent) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	p.events = append(p.events, event)
	return uint64(len(p.events)), nil
}

func newServices(store Store, asst Assistant, pub Publisher) (*ConversationService, *MessageService) {
	convs := NewConversationService(store, 5, logger.Nop())
	return convs, NewMessageService(convs, asst, pub, logger.Nop())
}

func TestConversationService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	convs, _ := newServices(NewMemoryStore(), &fakeAssistant{}, nil)

	created, err := convs.Create(ctx, "acme", "u1", &model.CreateConversationRequest{})
	require.NoError(t, err)
	assert.Equal(t, session.DefaultTitle, created.Title)
	assert.Equal(t, []model.ChatMessage{{Role: model.RoleAssistant, Content: session.Greeting}}, created.Messages)

	got, err := convs.Get(ctx, "acme", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = convs.Get(ctx, "other", created.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	renamed, err := convs.Update(ctx, "acme", created.ID, &model.UpdateConversationRequest{Title: "Q3 review"})
	require.NoError(t, err)
	assert.Equal(t, "Q3 review", renamed.Title)

	list, err := convs.List(ctx, "acme", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, "Q3 review", list.Conversations[0].Title)
	assert.Equal(t, 1, list.Conversations[0].MessageCount)

	require.NoError(t, convs.Delete(ctx, "acme", created.ID))
	_, err = convs.Get(ctx, "acme", created.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.ErrorIs(t, convs.Delete(ctx, "acme", created.ID), ErrConversationNotFound)
}

func TestConversationService_ListPagination(t *testing.T) {
	ctx := context.Background()
	convs, _ := newServices(NewMemoryStore(), &fakeAssistant{}, nil)

	for i := 0; i < 3; i++ {
		_, err := convs.Create(ctx, "acme", "u1", &model.CreateConversationRequest{})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	page, err := convs.List(ctx, "acme", 2, 0)
	require.NoError(t, err)
	assert.Len(t, page.Conversations, 2)
	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasMore)
	assert.False(t, page.Conversations[0].UpdatedAt.Before(page.Conversations[1].UpdatedAt))

	page, err = convs.List(ctx, "acme", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Conversations, 1)
	assert.False(t, page.HasMore)

	page, err = convs.List(ctx, "nobody", 2, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Conversations)
}

func TestMessageService_Send(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	convs, msgs := newServices(NewMemoryStore(), &fakeAssistant{}, pub)

	conv, err := convs.Create(ctx, "acme", "u1", &model.CreateConversationRequest{})
	require.NoError(t, err)

	resp, err := msgs.Send(ctx, "acme", conv.ID, &model.SendMessageRequest{Content: "What was the revenue of TCS in FY2023?"})
	require.NoError(t, err)

	assert.Equal(t, model.RoleUser, resp.UserMessage.Role)
	assert.Equal(t, "answer to What was the revenue of TCS in FY2023?", resp.AssistantMessage.Content)
	assert.Equal(t, uint64(1), resp.UserMessage.Sequence)
	assert.Equal(t, uint64(2), resp.AssistantMessage.Sequence)
	assert.False(t, resp.Diagnostics.Degraded)
	assert.Len(t, pub.messages, 2)
	assert.Empty(t, pub.events)

	got, err := convs.Get(ctx, "acme", conv.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 3)
	assert.Equal(t, "What was the revenue of TCS in", got.Title)
	assert.Equal(t, []string{"TCS"}, got.Context.CurrentEntities.Companies)
	require.Len(t, got.Context.RecentHistory, 1)
	assert.Equal(t, resp.AssistantMessage.Content, got.Context.RecentHistory[0].AIResponse)

	list, err := msgs.List(ctx, "acme", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
}

func TestMessageService_SendDegradedPublishesEvent(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	convs, msgs := newServices(NewMemoryStore(), &fakeAssistant{degraded: true, reason: assistant.ReasonInvalidQuery}, pub)

	conv, err := convs.Create(ctx, "acme", "u1", &model.CreateConversationRequest{})
	require.NoError(t, err)

	resp, err := msgs.Send(ctx, "acme", conv.ID, &model.SendMessageRequest{Content: "Show revenue"})
	require.NoError(t, err)
	assert.True(t, resp.Diagnostics.Degraded)

	require.Len(t, pub.events, 1)
	assert.Equal(t, model.EventTypeInvalidQuery, pub.events[0].Type)
	assert.Equal(t, conv.ID, pub.events[0].ConversationID)
}

func TestMessageService_PublishFailureDoesNotFailTurn(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("nats down")}
	convs, msgs := newServices(NewMemoryStore(), &fakeAssistant{}, pub)

	conv, err := convs.Create(ctx, "acme", "u1", &model.CreateConversationRequest{})
	require.NoError(t, err)

	resp, err := msgs.Send(ctx, "acme", conv.ID, &model.SendMessageRequest{Content: "hi"})
	require.NoError(t, err)
	assert.Zero(t, resp.UserMessage.Sequence)
}

func TestMessageService_UnknownConversation(t *testing.T) {
	_, msgs := newServices(NewMemoryStore(), &fakeAssistant{}, nil)

	_, err := msgs.Send(context.Background(), "acme", "missing", &model.SendMessageRequest{Content: "hi"})
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestMessageService_TurnsOfOneConversationSerialize(t *testing.T) {
	ctx := context.Background()
	asst := &fakeAssistant{delay: 5 * time.Millisecond}
	convs, msgs := newServices(NewMemoryStore(), asst, nil)

	conv, err := convs.Create(ctx, "acme", "u1", &model.CreateConversationRequest{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := msgs.Send(ctx, "acme", conv.ID, &model.SendMessageRequest{Content: "hi"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&asst.overlap))
	got, err := convs.Get(ctx, "acme", conv.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 17)
	assert.Len(t, got.Context.RecentHistory, 5)
}

func TestConversationService_RestoresFromStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	convs, msgs := newServices(store, &fakeAssistant{}, nil)

	conv, err := convs.Create(ctx, "acme", "u1", &model.CreateConversationRequest{})
	require.NoError(t, err)
	_, err = msgs.Send(ctx, "acme", conv.ID, &model.SendMessageRequest{Content: "Revenue of TCS"})
	require.NoError(t, err)

	fresh, _ := newServices(store, &fakeAssistant{}, nil)
	summary, err := fresh.Context(ctx, "acme", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"TCS"}, summary.CurrentEntities.Companies)
	require.Len(t, summary.RecentHistory, 1)
	assert.Equal(t, "Revenue of TCS", summary.RecentHistory[0].UserInput)
}

func TestMessageService_Insight(t *testing.T) {
	_, msgs := newServices(NewMemoryStore(), &fakeAssistant{}, nil)
	assert.Equal(t, "TCS leads on revenue.", msgs.Insight(context.Background()))
}
