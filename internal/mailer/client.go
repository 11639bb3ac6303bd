package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/pkg/apperr"
	"github.com/ignite/newsletter/internal/pkg/logger"
)

// DefaultTimeout bounds a single send when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// HTTPDoer is the interface for executing HTTP requests. *http.Client
// satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig configures the HTTP email API client.
type ClientConfig struct {
	BaseURL   string
	Sender    domain.EmailAddress
	AuthToken string
	Timeout   time.Duration
}

// Client sends email through a Postmark-style HTTP API:
// POST {base_url}/email with a JSON body and a server token header.
type Client struct {
	baseURL   string
	sender    domain.EmailAddress
	authToken string
	timeout   time.Duration
	http      HTTPDoer
	renderer  *Renderer
}

// NewClient creates an email API client. A nil doer gets an *http.Client
// whose timeout matches cfg.Timeout.
func NewClient(cfg ClientConfig, renderer *Renderer, doer HTTPDoer) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if doer == nil {
		doer = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		sender:    cfg.Sender,
		authToken: cfg.AuthToken,
		timeout:   timeout,
		http:      doer,
		renderer:  renderer,
	}
}

type sendEmailRequest struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendEmail renders doc and posts it to the API. One attempt, no retry.
func (c *Client) SendEmail(ctx context.Context, recipient domain.EmailAddress, doc domain.Document) error {
	rendered, err := c.renderer.Render(doc)
	if err != nil {
		return apperr.Infrastructure("send email", err)
	}

	body, err := json.Marshal(sendEmailRequest{
		From:     c.sender.String(),
		To:       recipient.String(),
		Subject:  rendered.Subject,
		HtmlBody: rendered.HTMLBody,
		TextBody: rendered.TextBody,
	})
	if err != nil {
		return apperr.Infrastructure("send email", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(body))
	if err != nil {
		return apperr.Infrastructure("send email", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Infrastructure("send email", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return apperr.Infrastructure("send email",
			fmt.Errorf("email API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	logger.FromContext(ctx).Debug("confirmation email accepted", "recipient", recipient.String())
	return nil
}
