package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/finwise-assistant/internal/middleware"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
)

// GraphReadScope is the token scope required for the graph endpoints.
const GraphReadScope = "graph:read"

// RouterConfig holds the handlers and HTTP policy of the API.
type RouterConfig struct {
	Health        *HealthHandler
	Conversations *ConversationHandler
	Messages      *MessageHandler
	Graph         *GraphHandler

	JWTSecret          string
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	MessageRateLimit   int
}

// NewRouter builds the API routes.
func NewRouter(cfg RouterConfig, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", cfg.Health.Health)
	r.Get("/ready", cfg.Health.Ready)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/insights", cfg.Messages.Insight)

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", cfg.Conversations.Create)
			r.Get("/", cfg.Conversations.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.Conversations.Get)
				r.Put("/", cfg.Conversations.Update)
				r.Delete("/", cfg.Conversations.Delete)
				r.Get("/context", cfg.Conversations.Context)

				r.Get("/messages", cfg.Messages.List)
				r.With(middleware.UserRateLimit(cfg.MessageRateLimit, cfg.RateLimitWindow)).
					Post("/messages", cfg.Messages.Send)
			})
		})

		if cfg.Graph != nil {
			r.Route("/graph", func(r chi.Router) {
				r.Use(middleware.RequireScope(GraphReadScope))
				r.Get("/stats", cfg.Graph.Stats)
				r.Get("/schema", cfg.Graph.Schema)
			})
		}
	})

	return r
}
