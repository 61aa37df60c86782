package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tokenregistry/internal/platform/metrics"
	"tokenregistry/internal/platform/middleware"
	"tokenregistry/internal/ratelimit"
	"tokenregistry/pkg/platform/httputil"
)

const requestTimeout = 15 * time.Second

// RouterConfig carries what the router needs besides the handler.
type RouterConfig struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Validator middleware.JWTValidator

	// RateLimiter is optional and applies to authenticated routes only.
	RateLimiter *ratelimit.Limiter
	// ReadyChecks back /readyz, keyed by backend name.
	ReadyChecks map[string]func(context.Context) error
}

// NewRouter wires the public and authenticated endpoints behind the common
// middleware chain.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.LatencyMiddleware(cfg.Metrics))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "ok"})
	})
	r.Get("/readyz", readyHandler(cfg.ReadyChecks, cfg.Logger))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.Validator, cfg.Logger))
		if cfg.RateLimiter != nil {
			r.Use(ratelimit.Middleware(cfg.RateLimiter, cfg.Logger))
		}
		h.RegisterProtected(r)
	})
	return r
}

// readyHandler reports 503 naming every backend whose check fails.
func readyHandler(checks map[string]func(context.Context) error, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var failing []string
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "readiness check failed", "backend", name, "error", err)
				failing = append(failing, name)
			}
		}
		if len(failing) > 0 {
			sort.Strings(failing)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, &StatusResponse{Status: "unavailable", Failing: failing})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "ready"})
	}
}
