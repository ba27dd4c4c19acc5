package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"factory/internal/auth"
	"factory/internal/services"
)

// Server is the HTTP surface over the factory engines: Prometheus metrics,
// health checks, registry projections, and the deploy/admin entry points.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	registry   *services.Registry
	creds      auth.Credentials
	limiter    *callerLimiter
	port       int
}

// NewServer creates the API server. Credentials gate the mutating endpoints;
// an empty credential set leaves them open, which is intended for local runs
// with the allow-all authorizer.
func NewServer(port int, registry *services.Registry, creds auth.Credentials) *Server {
	mux := http.NewServeMux()
	limiter := newCallerLimiter(10, 20)

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      limiter.wrap(mux),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		mux:      mux,
		registry: registry,
		creds:    creds,
		limiter:  limiter,
		port:     port,
	}

	s.registerRoutes()
	return s
}

// registerRoutes sets up all HTTP routes
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", s.handleMetrics())
	s.mux.HandleFunc("/events", s.handleEvents)

	// Factory endpoints
	s.mux.HandleFunc("/factories", s.handleFactories)
	s.mux.HandleFunc("/factories/", s.handleFactoryRoutes)
}

// handleFactories routes the list endpoint (without trailing slash)
func (s *Server) handleFactories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.handleListFactories(w, r)
}

// handleFactoryRoutes routes factory sub-endpoints (with trailing slash)
func (s *Server) handleFactoryRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/factories/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		s.sendError(w, "Factory name required", http.StatusBadRequest)
		return
	}

	eng, ok := s.registry.Get(parts[0])
	if !ok {
		s.sendError(w, "Factory not found", http.StatusNotFound)
		return
	}

	// GET /factories/{name}
	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handleGetFactory(w, r, eng)
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "deployments":
			// GET /factories/{name}/deployments
			if r.Method != http.MethodGet {
				s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			s.handleDeployments(w, r, eng)
			return
		case "slots":
			// GET /factories/{name}/slots
			if r.Method != http.MethodGet {
				s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			s.handleSlots(w, r, eng)
			return
		case "deploy":
			s.mutating(w, r, eng, s.handleDeploy)
			return
		case "pause":
			s.mutating(w, r, eng, s.handlePause)
			return
		case "unpause":
			s.mutating(w, r, eng, s.handleUnpause)
			return
		case "upgrade":
			s.mutating(w, r, eng, s.handleUpgrade)
			return
		case "wasm":
			s.mutating(w, r, eng, s.handleSetWasm)
			return
		}
	}

	// POST /factories/{name}/transfer/{initiate|accept|cancel}
	if len(parts) == 3 && parts[1] == "transfer" {
		switch parts[2] {
		case "initiate":
			s.mutating(w, r, eng, s.handleTransferInitiate)
			return
		case "accept":
			s.mutating(w, r, eng, s.handleTransferAccept)
			return
		case "cancel":
			s.mutating(w, r, eng, s.handleTransferCancel)
			return
		}
	}

	s.sendError(w, "Endpoint not found", http.StatusNotFound)
}

// Start starts the HTTP server in a goroutine and returns immediately
func (s *Server) Start() error {
	go func() {
		slog.Info("API server starting",
			"port", s.port,
			"factories", s.registry.Names(),
		)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("API server error", "error", err)
		}
	}()

	// Give the server a moment to start
	time.Sleep(100 * time.Millisecond)

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("API server shutting down...")
	return s.httpServer.Shutdown(ctx)
}
