package apiv1

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"sandbox-billing/internal/infra/api"
)

// HandlerOptions wires the cross-cutting pieces around the v1 routes.
type HandlerOptions struct {
	Auth           *api.AuthManager
	Limiter        api.Limiter // nil disables rate limiting
	RatePerMinute  int
	RequestTimeout time.Duration
	// Health reports dependency readiness for /health.
	Health func(ctx context.Context) error
	// BeforeScrape runs before each /metrics response (pool gauges).
	BeforeScrape func()
	Logger       *zerolog.Logger
}

// NewHandler builds the full HTTP handler: guards, health, metrics and /api.
func NewHandler(srv *Server, opts HandlerOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(
		api.TraceID(logger),
		api.RequestLog(logger),
		api.Recover(logger),
		api.Timeout(timeout),
		api.Metrics(),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Error(w, http.StatusNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Error(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if opts.Health != nil {
			if err := opts.Health(r.Context()); err != nil {
				api.Error(w, http.StatusServiceUnavailable, "Service unavailable", map[string]string{"reason": err.Error()})
				return
			}
		}
		api.Success(w, http.StatusOK, "OK", map[string]string{"status": "ok"})
	})

	metricsHandler := promhttp.Handler()
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		if opts.BeforeScrape != nil {
			opts.BeforeScrape()
		}
		metricsHandler.ServeHTTP(w, r)
	})

	routes := RouteOptions{}
	if opts.Auth != nil {
		routes.RequireUser = opts.Auth.RequireUser()
	}
	routes.Mutations = append(routes.Mutations,
		api.RateLimit(opts.Limiter, "payments", opts.RatePerMinute, time.Minute, logger))

	RegisterAPIV1(r, srv, srv.HandleError, routes)

	return r
}
