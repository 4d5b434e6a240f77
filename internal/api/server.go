// Package api exposes the pipeline, provider selection, the betting assistant
// and the SportMonks passthrough over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/pipeline"
	"github.com/rewired-gh/bettips/internal/refresher"
)

// Pipeline is the part of pipeline.Service the handlers call.
type Pipeline interface {
	LiveFixtures(ctx context.Context, sport models.Sport) (pipeline.Result, error)
	FixturesByDate(ctx context.Context, sport models.Sport, date string) (pipeline.Result, error)
	BTTSPicks(ctx context.Context, opts pipeline.PickOptions) (pipeline.Result, error)
	PlayerStats(ctx context.Context, playerID string) (pipeline.Result, error)
}

// ProviderSelector is the part of selector.Selector the handlers call.
type ProviderSelector interface {
	Snapshot() (models.Provider, uint64)
	Available() []models.Provider
	Set(ctx context.Context, name string) error
}

// Replier answers assistant messages.
type Replier interface {
	Reply(ctx context.Context, msg string) string
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds HTTP server settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	AllowOrigin     string
	UseMockFallback bool
}

// Deps are the collaborators behind the handlers. Board, Assistant, Proxy,
// Storage and Cache may be nil.
type Deps struct {
	Pipeline  Pipeline
	Selector  ProviderSelector
	Board     *refresher.Board
	Assistant Replier
	Proxy     http.Handler
	Storage   Pinger
	Cache     Pinger
}

// Server represents the REST API server
type Server struct {
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(cfg Config, deps Deps) *Server {
	handler := NewHandler(deps, cfg.UseMockFallback)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware(cfg.AllowOrigin))

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Providers
	api.HandleFunc("/providers", handler.GetProviders).Methods("GET")
	api.HandleFunc("/providers/active", handler.SetActiveProvider).Methods("PUT", "OPTIONS")

	// Fixtures and picks
	api.HandleFunc("/fixtures/live", handler.GetLiveFixtures).Methods("GET")
	api.HandleFunc("/fixtures", handler.GetFixturesByDate).Methods("GET")
	api.HandleFunc("/btts", handler.GetBTTSPicks).Methods("GET")
	api.HandleFunc("/players/{playerID}", handler.GetPlayerStats).Methods("GET")

	// Assistant and performance
	api.HandleFunc("/assistant", handler.Ask).Methods("POST", "OPTIONS")
	api.HandleFunc("/performance", handler.GetPerformance).Methods("GET")

	if deps.Proxy != nil {
		router.PathPrefix(SportmonksProxyPrefix + "/").Handler(deps.Proxy).Methods("GET")
	}

	return &Server{
		handler: handler,
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
