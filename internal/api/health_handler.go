package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/newsletter/internal/pkg/httputil"
	"github.com/ignite/newsletter/internal/pkg/logger"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthChecker serves the liveness and readiness probes.
type HealthChecker struct {
	db      Pinger
	timeout time.Duration
}

// NewHealthChecker creates a HealthChecker. db may be nil, in which case
// readiness always succeeds.
func NewHealthChecker(db Pinger) *HealthChecker {
	return &HealthChecker{db: db, timeout: 2 * time.Second}
}

// HandleHealthCheck always answers 200 with an empty body. It touches no
// dependency so that it reflects only that the process is serving.
//
//	GET /health_check
func (hc *HealthChecker) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.Empty(w, http.StatusOK)
}

// HandleReadiness reports whether the database answers a ping.
// Suitable for load balancer and orchestrator readiness probes.
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	if hc.db == nil {
		httputil.Text(w, http.StatusOK, "ready")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), hc.timeout)
	defer cancel()

	if err := hc.db.PingContext(ctx); err != nil {
		logger.FromContext(r.Context()).Warn("readiness check failed", "error", err.Error())
		httputil.Text(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	httputil.Text(w, http.StatusOK, "ready")
}
