//go:build integration

package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/ignite/newsletter/internal/api"
	"github.com/ignite/newsletter/internal/apiclient"
	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/mailer"
	"github.com/ignite/newsletter/internal/pkg/logger"
	"github.com/ignite/newsletter/internal/repository/postgres"
	"github.com/ignite/newsletter/internal/service/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// emailAPI records requests made to the fake email provider.
type emailAPI struct {
	mu       sync.Mutex
	requests []map[string]string
	status   int
}

func (e *emailAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	e.mu.Lock()
	e.requests = append(e.requests, body)
	status := e.status
	e.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

func (e *emailAPI) fail(status int) {
	e.mu.Lock()
	e.status = status
	e.mu.Unlock()
}

func (e *emailAPI) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.requests)
}

type testApp struct {
	client *apiclient.Client
	db     *sql.DB
	email  *emailAPI
}

func spawnApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("newsletter"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := postgres.Open(ctx, dsn, postgres.PoolOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, postgres.Migrate(ctx, db, postgres.MigrateUp, logger.Nop()))

	email := &emailAPI{}
	emailSrv := httptest.NewServer(email)
	t.Cleanup(emailSrv.Close)

	renderer, err := mailer.NewRenderer()
	require.NoError(t, err)
	from, err := domain.ParseEmailAddress("newsletter@example.com")
	require.NoError(t, err)
	sender := mailer.NewClient(mailer.ClientConfig{
		BaseURL:   emailSrv.URL,
		Sender:    from,
		AuthToken: "test-token",
		Timeout:   2 * time.Second,
	}, renderer, nil)

	svc := subscription.NewService(postgres.NewSubscriptionRepo(db), sender, "http://127.0.0.1")
	srv := httptest.NewServer(api.NewServer(api.Dependencies{
		Subscriptions: svc,
		DB:            db,
		Logger:        logger.Nop(),
	}).Handler())
	t.Cleanup(srv.Close)

	client := apiclient.New(srv.URL, srv.Client())
	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	require.NoError(t, client.WaitHealthy(waitCtx, apiclient.DefaultBackoff))

	return &testApp{client: client, db: db, email: email}
}

func TestIntegration_HealthCheck(t *testing.T) {
	app := spawnApp(t)
	require.NoError(t, app.client.HealthCheck(context.Background()))
}

func TestIntegration_SubscribePersistsAndSendsConfirmation(t *testing.T) {
	app := spawnApp(t)
	ctx := context.Background()

	require.NoError(t, app.client.Subscribe(ctx, "le guin", "ursula_le_guin@gmail.com"))

	var name, status string
	err := app.db.QueryRowContext(ctx,
		"SELECT name, status FROM subscriptions WHERE email = $1", "ursula_le_guin@gmail.com").
		Scan(&name, &status)
	require.NoError(t, err)
	assert.Equal(t, "le guin", name)
	assert.Equal(t, string(domain.SubscriptionConfirmed), status)

	require.Equal(t, 1, app.email.count())
	req := app.email.requests[0]
	assert.Equal(t, "ursula_le_guin@gmail.com", req["To"])
	assert.Equal(t, domain.ConfirmationTitle, req["Subject"])
	assert.Contains(t, req["TextBody"], "http://127.0.0.1/subscriptions/confirm?sub_id=")
}

func TestIntegration_DuplicateEmailIsConflict(t *testing.T) {
	app := spawnApp(t)
	ctx := context.Background()

	require.NoError(t, app.client.Subscribe(ctx, "le guin", "ursula_le_guin@gmail.com"))
	err := app.client.Subscribe(ctx, "someone else", "ursula_le_guin@gmail.com")
	assert.Equal(t, http.StatusConflict, apiclient.StatusCode(err))
	assert.Equal(t, 1, app.email.count())
}

func TestIntegration_InvalidInputIsRejected(t *testing.T) {
	app := spawnApp(t)
	ctx := context.Background()

	cases := []url.Values{
		{"name": {"le guin"}},
		{"email": {"ursula_le_guin@gmail.com"}},
		{"name": {""}, "email": {"ursula_le_guin@gmail.com"}},
		{"name": {"Ursula"}, "email": {"definitely-not-an-email"}},
	}
	for _, form := range cases {
		err := app.client.SubscribeForm(ctx, form)
		assert.Equal(t, http.StatusBadRequest, apiclient.StatusCode(err), "form %v", form)
	}

	var n int
	require.NoError(t, app.db.QueryRowContext(ctx, "SELECT count(*) FROM subscriptions").Scan(&n))
	assert.Zero(t, n)
	assert.Zero(t, app.email.count())
}

func TestIntegration_EmailFailureKeepsRow(t *testing.T) {
	app := spawnApp(t)
	ctx := context.Background()
	app.email.fail(http.StatusServiceUnavailable)

	err := app.client.Subscribe(ctx, "le guin", "ursula_le_guin@gmail.com")
	assert.Equal(t, http.StatusInternalServerError, apiclient.StatusCode(err))
	assert.Equal(t, 1, app.email.count(), "no retry")

	var n int
	require.NoError(t, app.db.QueryRowContext(ctx, "SELECT count(*) FROM subscriptions").Scan(&n))
	assert.Equal(t, 1, n)
}
