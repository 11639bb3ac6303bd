package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Subscription outcomes recorded by ObserveSubscription.
const (
	OutcomeCreated  = "created"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeFailed   = "failed"
)

// Metrics provides observability for the signup pipeline.
type Metrics struct {
	Subscriptions       *prometheus.CounterVec
	ConfirmationEmails  *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates a Metrics instance registered with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Subscriptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "newsletter_subscriptions_total",
			Help: "Signup attempts by outcome",
		}, []string{"outcome"}),
		ConfirmationEmails: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "newsletter_confirmation_emails_total",
			Help: "Confirmation email send attempts by result",
		}, []string{"result"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newsletter_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route", "method", "status"}),
	}
}

// ObserveSubscription counts one signup attempt.
func (m *Metrics) ObserveSubscription(outcome string) {
	m.Subscriptions.WithLabelValues(outcome).Inc()
}

// ObserveConfirmationEmail counts one send attempt.
func (m *Metrics) ObserveConfirmationEmail(err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.ConfirmationEmails.WithLabelValues(result).Inc()
}

// ObserveRequest records the duration of a request.
// Call with time.Now() taken at the start of the request.
func (m *Metrics) ObserveRequest(route, method string, status int, start time.Time) {
	m.HTTPRequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}
