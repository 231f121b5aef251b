// Package main is the entry point for the messaging API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linkedout/messaging-platform/internal/config"
	"github.com/linkedout/messaging-platform/internal/handler"
	"github.com/linkedout/messaging-platform/internal/middleware"
	"github.com/linkedout/messaging-platform/internal/model"
	natsclient "github.com/linkedout/messaging-platform/internal/nats"
	"github.com/linkedout/messaging-platform/internal/relay"
	"github.com/linkedout/messaging-platform/internal/service"
	"github.com/linkedout/messaging-platform/internal/store"
	"github.com/linkedout/messaging-platform/pkg/logger"
	"github.com/linkedout/messaging-platform/pkg/tracing"
)

func main() {
	// Load configuration
	_ = godotenv.Load()
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting messaging API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "messaging-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", "error", err)
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to the database
	db, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := store.Migrate(db); err != nil {
		log.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Connect to NATS
	nats, err := natsclient.Connect(natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nats.Close()

	// Initialize stores
	messages := store.NewMessages(db)
	users := store.NewUsers(db)

	// Relay and services are mutually referential: services publish events
	// through the bridge, the hub calls back into services for websocket
	// sends and acknowledgments. Wire the hooks through late-bound services.
	var messageSvc *service.MessageService
	var conversationSvc *service.ConversationService

	hub := relay.NewHub(
		func(ctx context.Context, messageID, userID string) error {
			return conversationSvc.Acknowledge(ctx, messageID, userID)
		},
		func(ctx context.Context, senderID, receiverID, content string) (*model.Message, error) {
			return messageSvc.Send(ctx, senderID, receiverID, content, "ws")
		},
		log,
	)
	bridge := relay.NewBridge(nats, hub, log)

	messageSvc = service.NewMessageService(messages, users, bridge, log)
	conversationSvc = service.NewConversationService(messages, users, bridge, log)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go hub.Run(hubCtx)

	sub, err := bridge.Start()
	if err != nil {
		log.Error("failed to start relay bridge", "error", err)
		os.Exit(1)
	}
	defer sub.Unsubscribe()

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db, nats)
	conversationHandler := handler.NewConversationHandler(conversationSvc, cfg.PollInterval, log)
	messageHandler := handler.NewMessageHandler(messageSvc, log)
	wsHandler := handler.NewWSHandler(hub, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Real-time channel
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Get("/ws", wsHandler.Serve)
	})

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversationHandler.List)
			r.Get("/{counterpartID}", conversationHandler.Open)
		})
		r.Post("/messages", messageHandler.Send)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
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

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
