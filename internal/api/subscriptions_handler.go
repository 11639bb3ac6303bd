package api

import (
	"net/http"

	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/pkg/apperr"
	"github.com/ignite/newsletter/internal/pkg/httputil"
	"github.com/ignite/newsletter/internal/pkg/metrics"
	"github.com/ignite/newsletter/internal/service/subscription"
)

// maxFormBytes caps the signup form body.
const maxFormBytes = 64 << 10

// SubscriptionHandler serves the signup endpoint.
type SubscriptionHandler struct {
	svc     *subscription.Service
	metrics *metrics.Metrics
}

// NewSubscriptionHandler creates the signup handler. m may be nil.
func NewSubscriptionHandler(svc *subscription.Service, m *metrics.Metrics) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc, metrics: m}
}

// HandleSubscribe decodes a urlencoded form with name and email fields and
// runs the signup pipeline.
//
//	POST /subscriptions
func (h *SubscriptionHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.observe(metrics.OutcomeInvalid)
		httputil.BadRequest(w, "failed to parse the request body: "+err.Error())
		return
	}

	for _, field := range []string{"name", "email"} {
		if _, ok := r.PostForm[field]; !ok {
			h.observe(metrics.OutcomeInvalid)
			httputil.BadRequest(w, "missing field `"+field+"`")
			return
		}
	}

	sub, err := domain.NewSubscriberFromForm(r.PostForm.Get("name"), r.PostForm.Get("email"))
	if err != nil {
		h.observe(metrics.OutcomeInvalid)
		httputil.Error(w, r, err)
		return
	}

	if err := h.svc.Subscribe(r.Context(), sub); err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindConflict:
			h.observe(metrics.OutcomeConflict)
		default:
			h.observe(metrics.OutcomeFailed)
		}
		httputil.Error(w, r, err)
		return
	}

	h.observe(metrics.OutcomeCreated)
	httputil.Empty(w, http.StatusOK)
}

func (h *SubscriptionHandler) observe(outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveSubscription(outcome)
	}
}
