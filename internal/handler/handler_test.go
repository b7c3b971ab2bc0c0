package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/finwise-assistant/internal/assistant"
	"github.com/capitalize-ai/finwise-assistant/internal/graph"
	"github.com/capitalize-ai/finwise-assistant/internal/middleware"
	"github.com/capitalize-ai/finwise-assistant/internal/model"
	"github.com/capitalize-ai/finwise-assistant/internal/service"
	"github.com/capitalize-ai/finwise-assistant/internal/session"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
)

const testSecret = "test-secret"

type echoAssistant struct{}

func (echoAssistant) HandleTurn(_ context.Context, input string, sc *session.Context) assistant.Turn {
	sc.Update(input, model.NewEntityBag(), model.UnknownIntent(), "[]")
	sc.UpdateAIResponse("echo: " + input)
	return assistant.Turn{Response: "echo: " + input, Query: "MATCH (c:Company) RETURN c", Valid: true}
}

func (echoAssistant) Insight(context.Context) string { return "Infosys grew fastest." }

type fakeStats struct {
	stats graph.Stats
	err   error
}

func (f fakeStats) Stats(context.Context) (graph.Stats, error) { return f.stats, f.err }

type apiClient struct {
	t      *testing.T
	server http.Handler
	token  string
}

func newAPI(t *testing.T, checks map[string]Check) *apiClient {
	t.Helper()
	log := logger.Nop()
	convs := service.NewConversationService(service.NewMemoryStore(), session.DefaultHistorySize, log)
	msgs := service.NewMessageService(convs, echoAssistant{}, nil, log)

	router := NewRouter(RouterConfig{
		Health:            NewHealthHandler(checks),
		Conversations:     NewConversationHandler(convs, log),
		Messages:          NewMessageHandler(msgs, log),
		Graph:             NewGraphHandler(fakeStats{stats: graph.Stats{Companies: 4}}, graph.DefaultSchema(), log),
		JWTSecret:         testSecret,
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		MessageRateLimit:  1000,
	}, log)

	return &apiClient{t: t, server: router, token: token(t, "acme", "graph:read")}
}

func token(t *testing.T, tenant string, scopes ...string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TenantID: tenant,
		Scopes:   scopes,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (c *apiClient) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func (c *apiClient) createConversation() model.Conversation {
	rec := c.do(http.MethodPost, "/api/v1/conversations", `{}`)
	require.Equal(c.t, http.StatusCreated, rec.Code)
	return decodeBody[model.Conversation](c.t, rec)
}

func TestConversationEndpoints(t *testing.T) {
	api := newAPI(t, nil)

	conv := api.createConversation()
	assert.Equal(t, session.DefaultTitle, conv.Title)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, session.Greeting, conv.Messages[0].Content)

	rec := api.do(http.MethodGet, "/api/v1/conversations/"+conv.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPut, "/api/v1/conversations/"+conv.ID, `{"title":"Margins"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Margins", decodeBody[model.Conversation](t, rec).Title)

	rec = api.do(http.MethodGet, "/api/v1/conversations?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[model.ListConversationsResponse](t, rec)
	assert.Equal(t, 1, list.Total)

	rec = api.do(http.MethodDelete, "/api/v1/conversations/"+conv.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/conversations/"+conv.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConversationEndpoints_BadRequests(t *testing.T) {
	api := newAPI(t, nil)
	conv := api.createConversation()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "malformed id", method: http.MethodGet, path: "/api/v1/conversations/abc", status: http.StatusBadRequest},
		{name: "unknown id", method: http.MethodGet, path: "/api/v1/conversations/0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b", status: http.StatusNotFound},
		{name: "invalid json", method: http.MethodPost, path: "/api/v1/conversations", body: `{`, status: http.StatusBadRequest},
		{name: "empty title on rename", method: http.MethodPut, path: "/api/v1/conversations/" + conv.ID, body: `{"title":""}`, status: http.StatusBadRequest},
		{name: "empty message", method: http.MethodPost, path: "/api/v1/conversations/" + conv.ID + "/messages", body: `{"content":""}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestConversationEndpoints_TenantIsolation(t *testing.T) {
	api := newAPI(t, nil)
	conv := api.createConversation()

	other := &apiClient{t: t, server: api.server, token: token(t, "globex")}
	rec := other.do(http.MethodGet, "/api/v1/conversations/"+conv.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = other.do(http.MethodPost, "/api/v1/conversations/"+conv.ID+"/messages", `{"content":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMessageEndpoints(t *testing.T) {
	api := newAPI(t, nil)
	conv := api.createConversation()

	rec := api.do(http.MethodPost, "/api/v1/conversations/"+conv.ID+"/messages", `{"content":"Revenue of TCS"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeBody[model.SendMessageResponse](t, rec)
	assert.Equal(t, "Revenue of TCS", resp.UserMessage.Content)
	assert.Equal(t, "echo: Revenue of TCS", resp.AssistantMessage.Content)
	assert.Nil(t, resp.Diagnostics)

	rec = api.do(http.MethodPost, "/api/v1/conversations/"+conv.ID+"/messages?diagnostics=true", `{"content":"And Infosys?"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	resp = decodeBody[model.SendMessageResponse](t, rec)
	require.NotNil(t, resp.Diagnostics)
	assert.Equal(t, "MATCH (c:Company) RETURN c", resp.Diagnostics.Query)

	rec = api.do(http.MethodGet, "/api/v1/conversations/"+conv.ID+"/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	msgs := decodeBody[model.ListMessagesResponse](t, rec)
	assert.Equal(t, 5, msgs.Total)

	rec = api.do(http.MethodGet, "/api/v1/conversations/"+conv.ID+"/context", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody[model.ContextSummary](t, rec)
	require.Len(t, summary.RecentHistory, 2)
	assert.Equal(t, "echo: And Infosys?", summary.LastAIResponse)
}

func TestInsightEndpoint(t *testing.T) {
	api := newAPI(t, nil)

	rec := api.do(http.MethodGet, "/api/v1/insights", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Infosys grew fastest.", decodeBody[model.InsightResponse](t, rec).Insight)
}

func TestGraphEndpoints(t *testing.T) {
	api := newAPI(t, nil)

	rec := api.do(http.MethodGet, "/api/v1/graph/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(4), decodeBody[graph.Stats](t, rec).Companies)

	rec = api.do(http.MethodGet, "/api/v1/graph/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"label":"Company"`)

	noScope := &apiClient{t: t, server: api.server, token: token(t, "acme")}
	rec = noScope.do(http.MethodGet, "/api/v1/graph/stats", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	api := newAPI(t, nil)
	api.token = ""

	rec := api.do(http.MethodGet, "/api/v1/conversations", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	healthy := newAPI(t, map[string]Check{
		"nats":  func(context.Context) error { return nil },
		"graph": func(context.Context) error { return nil },
	})
	healthy.token = ""

	rec := healthy.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = healthy.do(http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	unhealthy := newAPI(t, map[string]Check{
		"nats":  func(context.Context) error { return nil },
		"graph": func(context.Context) error { return errors.New("connection refused") },
	})
	rec = unhealthy.do(http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, map[string]any{"graph": "connection refused"}, body["checks"])
}
