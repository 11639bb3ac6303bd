package subscription

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/pkg/apperr"
	"github.com/ignite/newsletter/internal/pkg/logger"
)

// Subscribe records sub and then sends it the confirmation document.
//
// A store failure is returned unchanged and no email is sent. A send failure
// is returned as an infrastructure error even though the subscription row
// now exists.
func Subscribe(ctx context.Context, repo Repository, sender EmailSender, sub domain.NewSubscriber, confirmation domain.Document) error {
	log := logger.FromContext(ctx).With("subscriber_email", sub.Email.String())

	log.Info("adding a new subscriber")
	if err := repo.Create(ctx, sub); err != nil {
		return err
	}

	log.Info("sending confirmation email")
	if err := sender.SendEmail(ctx, sub.Email, confirmation); err != nil {
		return apperr.Infrastructure("send confirmation email", err)
	}
	return nil
}

// Service binds the pipeline to its ports and the public base URL used in
// confirmation links. It is safe for concurrent use.
type Service struct {
	repo     Repository
	sender   EmailSender
	baseURL  string
	newToken func() string
}

// NewService creates a subscription service. baseURL is the address
// subscribers use to reach the confirmation endpoint.
func NewService(repo Repository, sender EmailSender, baseURL string) *Service {
	return &Service{
		repo:     repo,
		sender:   sender,
		baseURL:  baseURL,
		newToken: uuid.NewString,
	}
}

// Subscribe builds a confirmation document with a fresh token and runs the
// pipeline for sub.
func (s *Service) Subscribe(ctx context.Context, sub domain.NewSubscriber) error {
	doc := domain.NewConfirmation(s.baseURL, s.newToken())
	return Subscribe(ctx, s.repo, s.sender, sub, doc)
}
