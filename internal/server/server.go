package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/healthbridge/internal/gate"
	"github.com/claude/healthbridge/internal/healthstore"
)

// Bridge is the method surface the server exposes.
type Bridge interface {
	Call(ctx context.Context, method string, args map[string]any) (any, error)
	Gate() *gate.Gate
	RequiredScopes() []healthstore.Permission
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	bridge Bridge
	log    *slog.Logger
	apiKey string
	whois  WhoIsClient
	health healthcheck.Handler
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(b Bridge, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		bridge: b,
		log:    log,
		apiKey: apiKey,
		health: healthcheck.NewHandler(),
		router: chi.NewRouter(),
	}
	s.health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(10000))
	s.health.AddReadinessCheck("health-store", s.storeReady)
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale enables caller identification through the tailnet.
func (s *Server) SetTailscale(c WhoIsClient) {
	s.whois = c
}

// SetMCP serves an MCP transport at /mcp behind the API key.
func (s *Server) SetMCP(h http.Handler) {
	s.router.With(APIKeyAuth(s.apiKey)).Handle("/mcp", h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Get("/methods", s.handleListMethods)
		r.Post("/methods/{method}", s.handleCall)
		r.Get("/catalog", s.handleCatalog)
		r.Get("/permissions", s.handlePermissions)
		r.Get("/me", s.handleMe)
	})

	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/live", s.health.LiveEndpoint)
	s.router.Get("/ready", s.health.ReadyEndpoint)
}

func (s *Server) storeReady() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if s.bridge.Gate().CheckAvailable(ctx) != gate.Available {
		return gate.ErrStoreUnavailable
	}
	return nil
}
