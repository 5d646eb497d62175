package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/packagefeed/pkg/api"
	"github.com/rhuss/packagefeed/pkg/observability"
	"github.com/rhuss/packagefeed/pkg/outputcache"
	"github.com/rhuss/packagefeed/pkg/query"
	"github.com/rhuss/packagefeed/pkg/search"
	"github.com/rhuss/packagefeed/pkg/storage"
	"github.com/rhuss/packagefeed/pkg/transport"
)

// FeedContentType is the media type of every feed JSON response.
const FeedContentType = "application/json;odata=verbose;charset=utf-8"

// Config holds configuration for the HTTP adapter.
type Config struct {
	// TrustForwardedProto lets X-Forwarded-Proto decide whether a request
	// arrived over HTTPS. Enable it only behind a proxy that sets the header.
	TrustForwardedProto bool

	// MetricsPath serves Prometheus metrics when non-empty.
	MetricsPath string

	// Cache stores rendered entities. Nil disables server-side caching but
	// keeps cache headers.
	Cache outputcache.Store

	// Search is probed by the readiness endpoint. Nil means no search
	// engine is configured.
	Search search.Engine

	// ReadyTimeout bounds the readiness probe of the repository.
	ReadyTimeout time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MetricsPath:  "/metrics",
		ReadyTimeout: 2 * time.Second,
	}
}

// Adapter serves the package feed over HTTP. Each engine is mounted under
// /api/{version} for the feed version it serves.
type Adapter struct {
	repo    storage.PackageRepository
	engines []*query.Engine
	config  Config
	logger  *slog.Logger
	router  chi.Router
}

// NewAdapter creates an HTTP adapter over the given engines. The repository
// backs the readiness probe.
func NewAdapter(repo storage.PackageRepository, engines []*query.Engine, cfg Config) *Adapter {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Cache == nil {
		cfg.Cache = outputcache.NullStore{}
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultConfig().ReadyTimeout
	}

	a := &Adapter{
		repo:    repo,
		engines: engines,
		config:  cfg,
		logger:  cfg.Logger,
	}
	a.router = a.routes()
	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	return a.router
}

func (a *Adapter) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(
		transport.Recovery(a.logger),
		transport.RequestID(),
		transport.Logging(a.logger),
		observability.MetricsMiddleware,
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		transport.WriteAPIError(w, api.NewNotFoundError("resource "+r.URL.Path+" not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		transport.WriteAPIError(w, api.NewMethodNotAllowedError(r.Method+" is not allowed on "+r.URL.Path))
	})

	r.Get("/healthz", a.handleHealth)
	r.Get("/readyz", a.handleReady)
	if a.config.MetricsPath != "" {
		r.Handle(a.config.MetricsPath, promhttp.Handler())
	}

	for _, e := range a.engines {
		h := &feedHandler{
			engine:              e,
			trustForwardedProto: a.config.TrustForwardedProto,
			logger:              a.logger,
		}
		r.Route("/api/"+e.APIVersion(), func(r chi.Router) {
			r.Use(
				h.protocolVersion,
				outputcache.Middleware(a.config.Cache, h.cachePolicy, a.logger),
			)
			h.mount(r)
		})
	}
	return r
}

func (a *Adapter) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, "ok", nil)
}

// handleReady reports ready when the repository answers. An unavailable
// search engine is reported but does not fail readiness: paging falls back
// to the repository.
func (a *Adapter) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), a.config.ReadyTimeout)
	defer cancel()

	checks := map[string]string{"repository": "ok"}
	status := http.StatusOK
	if err := a.repo.HealthCheck(ctx); err != nil {
		a.logger.Warn("readiness check failed", "component", "repository", "error", err)
		checks["repository"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	switch {
	case a.config.Search == nil:
		checks["search"] = "disabled"
	case a.config.Search.Available():
		checks["search"] = "ok"
	default:
		checks["search"] = "unavailable"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "unavailable"
	}
	writeStatus(w, status, overall, checks)
}

func writeStatus(w http.ResponseWriter, status int, overall string, checks map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks,omitempty"`
	}{overall, checks})
}
