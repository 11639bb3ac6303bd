package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveSubscription(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSubscription(OutcomeCreated)
	m.ObserveSubscription(OutcomeCreated)
	m.ObserveSubscription(OutcomeConflict)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Subscriptions.WithLabelValues(OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Subscriptions.WithLabelValues(OutcomeConflict)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Subscriptions.WithLabelValues(OutcomeFailed)))
}

func TestObserveConfirmationEmail(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveConfirmationEmail(nil)
	m.ObserveConfirmationEmail(errors.New("timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfirmationEmails.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfirmationEmails.WithLabelValues("failed")))
}

func TestObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("/subscriptions", http.MethodPost, http.StatusOK, time.Now())

	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration))
}
