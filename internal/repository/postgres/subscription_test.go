package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/pkg/apperr"
	"github.com/ignite/newsletter/internal/service/subscription"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*SubscriptionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewSubscriptionRepo(db)
	repo.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return repo, mock
}

func testSubscriber(t *testing.T) domain.NewSubscriber {
	t.Helper()
	sub, err := domain.NewSubscriberFromForm("John Doe", "john.doe@gmail.com")
	require.NoError(t, err)
	return sub
}

func TestCreate_InsertsRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO subscriptions").
		WithArgs(sqlmock.AnyArg(), "john.doe@gmail.com", "John Doe",
			time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), domain.SubscriptionConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), testSubscriber(t))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolation_IsConflict(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO subscriptions").
		WillReturnError(&pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "subscriptions_email_key"`})

	err := repo.Create(context.Background(), testSubscriber(t))
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.ErrorIs(t, err, subscription.ErrEmailExists)
	assert.Equal(t, "email already exists", apperr.PublicMessage(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_OtherPgError_IsInfrastructure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO subscriptions").
		WillReturnError(&pq.Error{Code: "23502", Message: "null value in column"})

	err := repo.Create(context.Background(), testSubscriber(t))
	require.Error(t, err)
	assert.Equal(t, apperr.KindInfrastructure, apperr.KindOf(err))
	assert.NotErrorIs(t, err, subscription.ErrEmailExists)
}

func TestCreate_ConnectionError_IsInfrastructure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO subscriptions").WillReturnError(sql.ErrConnDone)

	err := repo.Create(context.Background(), testSubscriber(t))
	require.Error(t, err)
	assert.Equal(t, apperr.KindInfrastructure, apperr.KindOf(err))
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.Equal(t, "internal server error", apperr.PublicMessage(err))
}

func TestGetByEmail(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, email, name, subscribed_at, status FROM subscriptions").
		WithArgs("john.doe@gmail.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "subscribed_at", "status"}).
			AddRow(id.String(), "john.doe@gmail.com", "John Doe", at, "confirmed"))

	s, err := repo.GetByEmail(context.Background(), "john.doe@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, id, s.ID)
	assert.Equal(t, "John Doe", s.Name)
	assert.Equal(t, at, s.SubscribedAt)
	assert.Equal(t, domain.SubscriptionConfirmed, s.Status)
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, email, name, subscribed_at, status FROM subscriptions").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "subscribed_at", "status"}))

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCount(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM subscriptions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
