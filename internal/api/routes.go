package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ignite/newsletter/internal/pkg/logger"
	"github.com/ignite/newsletter/internal/pkg/metrics"
	"github.com/ignite/newsletter/internal/service/subscription"
	"go.opentelemetry.io/otel/trace"
)

// Dependencies are the collaborators the router needs.
type Dependencies struct {
	Subscriptions  *subscription.Service
	DB             Pinger
	Logger         *logger.Logger
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler // served at /metrics when non-nil
	TracerProvider trace.TracerProvider
	AllowedOrigins []string
}

// SetupRoutes configures all routes.
func SetupRoutes(deps Dependencies) *chi.Mux {
	log := deps.Logger
	if log == nil {
		log = logger.Default()
	}

	r := chi.NewRouter()

	// Trace id first so everything below logs with it
	r.Use(TraceMiddleware(log, deps.TracerProvider))
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	health := NewHealthChecker(deps.DB)
	r.Get("/health_check", health.HandleHealthCheck)
	r.Get("/health/ready", health.HandleReadiness)

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	subs := NewSubscriptionHandler(deps.Subscriptions, deps.Metrics)
	r.Post("/subscriptions", subs.HandleSubscribe)

	return r
}

// metricsMiddleware records request durations labeled by route pattern.
func metricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				route := "unmatched"
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				m.ObserveRequest(route, r.Method, status, start)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
