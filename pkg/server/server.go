package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"lite-hq/lite/pkg/chat"
	"lite-hq/lite/pkg/config"
	"lite-hq/lite/pkg/providers"
	"lite-hq/lite/pkg/server/middleware"
	"lite-hq/lite/pkg/storage"
	"lite-hq/lite/pkg/telemetry"
	"lite-hq/lite/pkg/telemetry/health"
	"lite-hq/lite/pkg/telemetry/tracing"
)

// Registry is the part of providerfactory.Manager the server needs beyond
// the chat service: dropping cached adapters when a provider changes.
type Registry interface {
	RemoveProvider(cfg providers.ProviderConfig)
}

// Deps are the collaborators of a Server.
type Deps struct {
	Store    storage.Store
	Chat     *chat.Service
	Registry Registry

	// Telemetry supplies metrics, health and version endpoints. It may be
	// nil, in which case only /health is served.
	Telemetry *telemetry.Telemetry

	// MetricsPath exposes the Prometheus handler; empty disables it.
	MetricsPath string

	Logger *slog.Logger
}

// Server is the lite HTTP API server.
type Server struct {
	config     config.ServerConfig
	store      storage.Store
	chat       *chat.Service
	registry   Registry
	telemetry  *telemetry.Telemetry
	logger     *slog.Logger
	handler    http.Handler
	httpServer *http.Server

	mu           sync.Mutex
	running      bool
	addr         string
	shutdownOnce sync.Once
}

// New creates a server and builds its routes.
func New(cfg config.ServerConfig, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if deps.Chat == nil {
		return nil, errors.New("server: chat service is required")
	}
	if deps.Registry == nil {
		return nil, errors.New("server: provider registry is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:    cfg,
		store:     deps.Store,
		chat:      deps.Chat,
		registry:  deps.Registry,
		telemetry: deps.Telemetry,
		logger:    logger.With("component", "server"),
	}
	s.handler = s.routes(deps.MetricsPath)
	return s, nil
}

// routePattern returns the matched chi route, or "" before routing.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func (s *Server) routes(metricsPath string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.RequestID)
	if s.telemetry != nil {
		r.Use(tracing.HTTPMiddleware(routePattern))
		r.Use(s.telemetry.Metrics.Middleware(routePattern))
	}
	r.Use(middleware.Logging(s.logger))
	r.Use(middleware.CORS(s.config.CORS))

	if s.telemetry != nil {
		r.Get("/health", s.telemetry.Health.LivenessHandler())
		r.Get("/ready", s.telemetry.Health.ReadinessHandler())
		r.Get("/version", health.VersionHandler(s.telemetry.Version))
		if metricsPath != "" {
			r.Handle(metricsPath, s.telemetry.Metrics.Handler())
		}
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.sendChat)
		r.Post("/chat/complete", s.completeChat)
		r.Get("/chat/{id}/messages", s.listMessages)

		r.Get("/chats", s.listChats)
		r.Post("/chats", s.createChat)
		r.Get("/chats/{id}", s.getChat)
		r.Patch("/chats/{id}", s.renameChat)
		r.Delete("/chats/{id}", s.deleteChat)

		r.Patch("/messages/{id}", s.updateMessage)
		r.Delete("/messages/{id}", s.deleteMessage)

		r.Get("/providers", s.listProviders)
		r.Post("/providers", s.createProvider)
		r.Patch("/providers/{id}", s.updateProvider)
		r.Delete("/providers/{id}", s.deleteProvider)
		r.Post("/providers/{id}/default", s.setDefaultProvider)

		r.Get("/models", s.listModels)
		r.Get("/models/preferences", s.listModelPreferences)
		r.Post("/models/favorite", s.toggleFavorite)

		r.Get("/preferences", s.getPreferences)
		r.Put("/preferences", s.putPreferences)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})

	return r
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and blocks until ctx is done or
// the listener fails. Cancelling ctx triggers a graceful shutdown bounded
// by ShutdownTimeout.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	s.httpServer = &http.Server{
		Handler:        s.handler,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}
	s.addr = ln.Addr().String()
	s.running = true
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", s.addr)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	}
}

// Addr returns the bound listen address once Start has begun.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Shutdown gracefully stops the server. Open streams are given until
// ShutdownTimeout to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		srv := s.httpServer
		running := s.running
		s.mu.Unlock()
		if !running || srv == nil {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}
