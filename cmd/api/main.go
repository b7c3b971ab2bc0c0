// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/finwise-assistant/internal/app"
	"github.com/capitalize-ai/finwise-assistant/internal/config"
	"github.com/capitalize-ai/finwise-assistant/internal/handler"
	natsclient "github.com/capitalize-ai/finwise-assistant/internal/nats"
	"github.com/capitalize-ai/finwise-assistant/internal/service"
	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
	"github.com/capitalize-ai/finwise-assistant/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	log.Info("starting API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "finwise-assistant", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS
	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer natsClient.Close()

	streamManager := natsclient.NewStreamManager(natsClient)
	if err := streamManager.EnsureStream(ctx); err != nil {
		return fmt.Errorf("ensuring stream: %w", err)
	}

	snapshots, err := natsclient.NewSnapshotStore(ctx, natsClient)
	if err != nil {
		return fmt.Errorf("opening snapshot store: %w", err)
	}

	components, err := app.Build(cfg, log)
	if err != nil {
		return err
	}
	defer components.Close(context.Background())
	executor := components.Executor

	if err := executor.VerifyConnectivity(ctx); err != nil {
		log.Warn("knowledge graph unreachable, turns will answer without data", zap.Error(err))
	} else if executor.IsEmpty(ctx) {
		log.Warn("knowledge graph is empty")
	}

	conversationSvc := service.NewConversationService(snapshots, cfg.HistorySize, log)
	evictCtx, stopEviction := context.WithCancel(ctx)
	defer stopEviction()
	go conversationSvc.RunEviction(evictCtx, time.Minute, cfg.ConversationIdleTimeout)

	messageSvc := service.NewMessageService(conversationSvc, components.Pipeline, streamManager, log)

	router := handler.NewRouter(handler.RouterConfig{
		Health: handler.NewHealthHandler(map[string]handler.Check{
			"nats":  func(context.Context) error { return natsClient.Ping() },
			"graph": executor.VerifyConnectivity,
		}),
		Conversations:      handler.NewConversationHandler(conversationSvc, log),
		Messages:           handler.NewMessageHandler(messageSvc, log),
		Graph:              handler.NewGraphHandler(executor, components.Schema, log),
		JWTSecret:          cfg.JWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRequests:  cfg.RateLimitRequests,
		RateLimitWindow:    cfg.RateLimitWindow,
		MessageRateLimit:   cfg.MessageRateLimit,
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("serving HTTP: %w", err)
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}
