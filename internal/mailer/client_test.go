package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEmail(t *testing.T, raw string) domain.EmailAddress {
	t.Helper()
	e, err := domain.ParseEmailAddress(raw)
	require.NoError(t, err)
	return e
}

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	return NewClient(ClientConfig{
		BaseURL:   baseURL,
		Sender:    mustEmail(t, "newsletter@example.com"),
		AuthToken: "server-token",
		Timeout:   timeout,
	}, r, nil)
}

func TestSendEmail_SendsExpectedRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/email", r.URL.Path)
		assert.Equal(t, "server-token", r.Header.Get("X-Postmark-Server-Token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "newsletter@example.com", body["From"])
		assert.Equal(t, "john.doe@gmail.com", body["To"])
		assert.Equal(t, domain.ConfirmationTitle, body["Subject"])
		assert.Contains(t, body["HtmlBody"], "/subscriptions/confirm?sub_id=tok-1")
		assert.Contains(t, body["TextBody"], "/subscriptions/confirm?sub_id=tok-1")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL+"/", time.Second)
	err := c.SendEmail(context.Background(), mustEmail(t, "john.doe@gmail.com"),
		domain.NewConfirmation("http://localhost:8000", "tok-1"))

	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSendEmail_Non2xxFails_WithoutRetry(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusUnprocessableEntity, http.StatusTooManyRequests} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"ErrorCode":300,"Message":"Invalid email request"}`))
			}))
			defer server.Close()

			err := newTestClient(t, server.URL, time.Second).SendEmail(context.Background(),
				mustEmail(t, "john@example.com"), domain.NewConfirmation("http://localhost", "tok"))

			require.Error(t, err)
			assert.Equal(t, apperr.KindInfrastructure, apperr.KindOf(err))
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestSendEmail_TimesOut(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	err := newTestClient(t, server.URL, 100*time.Millisecond).SendEmail(context.Background(),
		mustEmail(t, "john@example.com"), domain.NewConfirmation("http://localhost", "tok"))

	require.Error(t, err)
	assert.Equal(t, apperr.KindInfrastructure, apperr.KindOf(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSendEmail_UnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := newTestClient(t, url, time.Second).SendEmail(context.Background(),
		mustEmail(t, "john@example.com"), domain.NewConfirmation("http://localhost", "tok"))

	require.Error(t, err)
	assert.Equal(t, apperr.KindInfrastructure, apperr.KindOf(err))
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	c := NewClient(ClientConfig{BaseURL: "http://mail.example.com"}, r, nil)
	assert.Equal(t, DefaultTimeout, c.timeout)
	hc, ok := c.http.(*http.Client)
	require.True(t, ok)
	assert.Equal(t, DefaultTimeout, hc.Timeout)
}
