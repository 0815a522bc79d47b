// Package api exposes the HTTP ingest surface: create sessions, stream
// command bytes into them, disconnect, and observe the pipeline via the
// health, batches, and events endpoints.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/bulkd/internal/auth"
	"github.com/mattjoyce/bulkd/internal/events"
	"github.com/mattjoyce/bulkd/internal/journal"
)

// SessionRegistry defines the session operations the API fronts.
type SessionRegistry interface {
	Connect(capacity int) (string, error)
	Receive(handle string, data []byte)
	Disconnect(handle string)
	Count() int
}

// QueueStats reports dispatch queue depths for the health endpoint.
type QueueStats interface {
	ConsoleDepth() int
	FileDepth() int
}

// BatchJournal is the read side of the batch journal.
type BatchJournal interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
	Count(ctx context.Context) (int, error)
}

// Config holds API server configuration.
type Config struct {
	Listen string
	// APIKey is an optional bearer token; empty disables auth.
	APIKey string
	// DefaultCapacity is used when a session request names none.
	DefaultCapacity int
}

// Server represents the HTTP ingest server.
type Server struct {
	config    Config
	registry  SessionRegistry
	stats     QueueStats
	journal   BatchJournal // nil when the journal is disabled
	hub       *events.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a new API server instance. journal may be nil.
func New(config Config, registry SessionRegistry, stats QueueStats, journal BatchJournal, hub *events.Hub, logger *slog.Logger) *Server {
	if config.DefaultCapacity <= 0 {
		config.DefaultCapacity = 3
	}
	return &Server{
		config:    config,
		registry:  registry,
		stats:     stats,
		journal:   journal,
		hub:       hub,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start starts the HTTP server (blocking until ctx is cancelled).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE connections stay open
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoint.
	r.Get("/healthz", s.handleHealthz)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/v1/sessions", s.handleCreateSession)
		r.Post("/v1/sessions/{handle}/commands", s.handleCommands)
		r.Delete("/v1/sessions/{handle}", s.handleDisconnect)
		r.Get("/v1/batches", s.handleBatches)
		r.Get("/v1/events", s.handleEvents)
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// authMiddleware enforces the bearer token when one is configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.APIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := auth.ExtractBearerToken(r)
		if err != nil || !auth.TokenMatches(token, s.config.APIKey) {
			s.writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
