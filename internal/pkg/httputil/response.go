package httputil

import (
	"net/http"

	"github.com/ignite/newsletter/internal/pkg/apperr"
	"github.com/ignite/newsletter/internal/pkg/logger"
)

// Text writes a plain-text response with the given status code.
func Text(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(message)); err != nil {
		logger.Warn("httputil: write body failed", "error", err)
	}
}

// Empty writes a status code with a zero-length body.
func Empty(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(status)
}

// BadRequest writes a 400 with a plain-text reason.
func BadRequest(w http.ResponseWriter, message string) {
	Text(w, http.StatusBadRequest, message)
}

// Error writes the response for a classified error. Infrastructure errors
// are logged with full detail through the request logger and the client
// gets a generic message (never leak internals).
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInfrastructure {
		logger.FromContext(r.Context()).Error("request failed", "error", err.Error())
	}
	Text(w, apperr.StatusCode(kind), apperr.PublicMessage(err))
}
