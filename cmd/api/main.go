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

	"github.com/capitalize-ai/coursechat/internal/assistant"
	"github.com/capitalize-ai/coursechat/internal/auth"
	"github.com/capitalize-ai/coursechat/internal/chat"
	"github.com/capitalize-ai/coursechat/internal/config"
	"github.com/capitalize-ai/coursechat/internal/course"
	natsclient "github.com/capitalize-ai/coursechat/internal/nats"
	"github.com/capitalize-ai/coursechat/internal/server"
	"github.com/capitalize-ai/coursechat/internal/service"
	"github.com/capitalize-ai/coursechat/internal/upload"
	"github.com/capitalize-ai/coursechat/pkg/logger"
	"github.com/capitalize-ai/coursechat/pkg/tracing"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "coursechat", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer func() { _ = tracing.Shutdown(context.Background(), tp) }()
		}
	}

	// Connect to NATS when event publishing is configured
	var (
		natsClient *natsclient.Client
		publisher  service.EventPublisher = service.NopPublisher{}
	)
	if cfg.NATSURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		natsClient, err = natsclient.Connect(connectCtx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		cancel()
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsClient.Close()
		publisher = natsclient.NewPublisher(natsClient)
	} else {
		log.Info("NATS_URL not set, chat events disabled")
	}

	// Initialize the mock backends
	delays := assistant.DefaultDelays()
	if !cfg.AssistantDelays {
		delays = assistant.Delays{}
	}
	mock := assistant.NewMock(
		assistant.WithDelays(delays),
		assistant.WithFailureRate(cfg.FailureRate),
	)

	// Initialize services
	courses := course.NewSeededDirectory()
	sessions := chat.NewSessions(chat.WithTitleLimit(cfg.TitleLimit))
	chatSvc := service.NewChatService(sessions, courses, mock, publisher, log, cfg.AssistantTimeout)
	catalogSvc := service.NewCatalogService(courses, upload.NewService(cfg.UploadStep), publisher, log)

	router := server.New(server.Deps{
		Chat:              chatSvc,
		Catalog:           catalogSvc,
		SSO:               auth.NewSSO(cfg.LoginDelay),
		Issuer:            auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiration),
		NATS:              natsClient,
		Logger:            log,
		AllowedOrigins:    cfg.AllowedOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		MaxUploadBytes:    cfg.MaxUploadBytes,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
