package subscription

import (
	"context"

	"github.com/ignite/newsletter/internal/domain"
)

//go:generate mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks

// Repository defines the data access contract for subscriptions.
type Repository interface {
	// Create stores a new subscription with a server-assigned id, timestamp
	// and status. A duplicate email returns an apperr.KindConflict error
	// wrapping ErrEmailExists; any other failure is apperr.KindInfrastructure.
	Create(ctx context.Context, sub domain.NewSubscriber) error
}

// EmailSender delivers one document to one recipient.
type EmailSender interface {
	// SendEmail makes exactly one delivery attempt. It does not retry and is
	// not idempotent: two calls send two emails.
	SendEmail(ctx context.Context, recipient domain.EmailAddress, doc domain.Document) error
}

// SenderFunc adapts a function to the EmailSender interface.
type SenderFunc func(ctx context.Context, recipient domain.EmailAddress, doc domain.Document) error

func (f SenderFunc) SendEmail(ctx context.Context, recipient domain.EmailAddress, doc domain.Document) error {
	return f(ctx, recipient, doc)
}

// ObserveSends wraps sender so observe is called with the result of every send.
func ObserveSends(sender EmailSender, observe func(error)) EmailSender {
	return SenderFunc(func(ctx context.Context, recipient domain.EmailAddress, doc domain.Document) error {
		err := sender.SendEmail(ctx, recipient, doc)
		observe(err)
		return err
	})
}
