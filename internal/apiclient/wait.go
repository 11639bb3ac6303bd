package apiclient

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Backoff controls how WaitHealthy spaces its probes.
type Backoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultBackoff starts at 100ms and caps at 5s.
var DefaultBackoff = Backoff{BaseDelay: 100 * time.Millisecond, MaxDelay: 5 * time.Second}

// delay returns the wait before the given attempt (1-based) using
// exponential backoff with full jitter, never below 10ms.
func (b Backoff) delay(attempt int) time.Duration {
	exp := float64(b.BaseDelay) * math.Pow(2, float64(attempt-1))
	if exp > float64(b.MaxDelay) {
		exp = float64(b.MaxDelay)
	}
	d := time.Duration(rand.Float64() * exp)
	if d < 10*time.Millisecond {
		d = 10 * time.Millisecond
	}
	return d
}

// WaitHealthy polls GET /health_check until it answers 2xx or ctx ends.
// Deploy scripts and tests use it to wait for a freshly started server.
func (c *Client) WaitHealthy(ctx context.Context, b Backoff) error {
	if b.BaseDelay <= 0 || b.MaxDelay <= 0 {
		b = DefaultBackoff
	}
	var lastErr error
	for attempt := 1; ; attempt++ {
		if lastErr = c.HealthCheck(ctx); lastErr == nil {
			return nil
		}

		timer := time.NewTimer(b.delay(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("server not healthy after %d attempts: %w", attempt, lastErr)
		}
	}
}
