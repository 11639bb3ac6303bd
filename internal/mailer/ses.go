package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/pkg/apperr"
	"github.com/ignite/newsletter/internal/pkg/logger"
)

// SESAPI is the subset of the SES v2 client used by SESSender.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESConfig configures SESSender. Empty keys use the default credential chain.
type SESConfig struct {
	Region    string
	AccessKey string
	SecretKey string
	Sender    domain.EmailAddress
	Timeout   time.Duration
}

// SESSender sends email through AWS SES using the SDK v2.
type SESSender struct {
	client   SESAPI
	sender   domain.EmailAddress
	timeout  time.Duration
	renderer *Renderer
}

// NewSESClient builds an SES v2 client from cfg. Retries are disabled so a
// call maps to a single delivery attempt.
func NewSESClient(ctx context.Context, cfg SESConfig) (*sesv2.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithRetryMaxAttempts(1),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return sesv2.NewFromConfig(awsCfg), nil
}

// NewSESSender creates an SES sender over client.
func NewSESSender(client SESAPI, cfg SESConfig, renderer *Renderer) *SESSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SESSender{client: client, sender: cfg.Sender, timeout: timeout, renderer: renderer}
}

// SendEmail renders doc and delivers it with a single SES SendEmail call.
func (s *SESSender) SendEmail(ctx context.Context, recipient domain.EmailAddress, doc domain.Document) error {
	rendered, err := s.renderer.Render(doc)
	if err != nil {
		return apperr.Infrastructure("send email via SES", err)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.sender.String()),
		Destination:      &types.Destination{ToAddresses: []string{recipient.String()}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(rendered.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(rendered.HTMLBody), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(rendered.TextBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return apperr.Infrastructure("send email via SES", err)
	}

	logger.FromContext(ctx).Debug("confirmation email accepted by SES",
		"recipient", recipient.String(), "message_id", aws.ToString(result.MessageId))
	return nil
}
