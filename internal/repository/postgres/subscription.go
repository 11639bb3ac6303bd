package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/pkg/apperr"
	"github.com/ignite/newsletter/internal/service/subscription"
	"github.com/lib/pq"
)

// SQLSTATE for unique_violation.
const uniqueViolation = pq.ErrorCode("23505")

// SubscriptionRepo implements subscription.Repository against PostgreSQL.
type SubscriptionRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewSubscriptionRepo creates a Postgres-backed subscription repository.
func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db, now: time.Now}
}

func (r *SubscriptionRepo) Create(ctx context.Context, sub domain.NewSubscriber) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), sub.Email.String(), sub.Name.String(), r.now().UTC(), domain.SubscriptionConfirmed)
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return apperr.Conflict("create subscription", "email already exists",
			fmt.Errorf("%w: %w", subscription.ErrEmailExists, err))
	}
	return apperr.Infrastructure("create subscription", err)
}

// GetByEmail returns the stored subscription for email, or sql.ErrNoRows.
func (r *SubscriptionRepo) GetByEmail(ctx context.Context, email string) (*domain.Subscription, error) {
	var s domain.Subscription
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, subscribed_at, status
		FROM subscriptions
		WHERE email = $1
	`, email).Scan(&s.ID, &s.Email, &s.Name, &s.SubscribedAt, &s.Status)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &s, nil
}

// Count returns the number of stored subscriptions.
func (r *SubscriptionRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscriptions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return n, nil
}
