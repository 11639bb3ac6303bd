package domain

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/ignite/newsletter/internal/pkg/apperr"
	"github.com/rivo/uniseg"
)

// MaxNameLength is the longest subscriber name accepted, in grapheme clusters.
const MaxNameLength = 256

const forbiddenNameChars = `/()"<>\{}`

// SubscriptionStatus enumerates the states a stored subscription can be in.
type SubscriptionStatus string

const (
	SubscriptionPendingConfirmation SubscriptionStatus = "pending_confirmation"
	SubscriptionConfirmed           SubscriptionStatus = "confirmed"
)

// SubscriberName is a validated, trimmed display name.
type SubscriberName struct {
	value string
}

// ParseSubscriberName trims raw and validates the result.
func ParseSubscriberName(raw string) (SubscriberName, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return SubscriberName{}, apperr.Validation("name must not be empty")
	}
	if uniseg.GraphemeClusterCount(name) > MaxNameLength {
		return SubscriberName{}, apperr.Validation("name must be at most 256 characters")
	}
	if strings.ContainsAny(name, forbiddenNameChars) {
		return SubscriberName{}, apperr.Validation(`name must not contain any of / ( ) " < > \ { }`)
	}
	return SubscriberName{value: name}, nil
}

func (n SubscriberName) String() string { return n.value }

// EmailAddress is a validated bare address of the form local@domain.tld.
type EmailAddress struct {
	value string
}

// the domain part must contain at least one dot and a 2+ letter TLD
var emailDomainRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?)*\.[a-zA-Z]{2,}$`)

// ParseEmailAddress validates raw without altering it.
func ParseEmailAddress(raw string) (EmailAddress, error) {
	invalid := apperr.Validation("invalid email address")

	if raw == "" || strings.IndexFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) >= 0 {
		return EmailAddress{}, invalid
	}

	// net/mail accepts display names and angle brackets; only a bare
	// address that round-trips unchanged is allowed here.
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Name != "" || addr.Address != raw {
		return EmailAddress{}, invalid
	}

	at := strings.LastIndex(raw, "@")
	if at <= 0 || !emailDomainRegex.MatchString(raw[at+1:]) {
		return EmailAddress{}, invalid
	}
	return EmailAddress{value: raw}, nil
}

func (e EmailAddress) String() string { return e.value }

// NewSubscriber is a validated signup request. It is never stored as is.
type NewSubscriber struct {
	Name  SubscriberName
	Email EmailAddress
}

// NewSubscriberFromForm validates both fields of a signup form. The name is
// checked first; the first failure is returned.
func NewSubscriberFromForm(name, email string) (NewSubscriber, error) {
	n, err := ParseSubscriberName(name)
	if err != nil {
		return NewSubscriber{}, err
	}
	e, err := ParseEmailAddress(email)
	if err != nil {
		return NewSubscriber{}, err
	}
	return NewSubscriber{Name: n, Email: e}, nil
}

// Subscription is the persisted form of a NewSubscriber.
type Subscription struct {
	ID           uuid.UUID          `json:"id" db:"id"`
	Email        string             `json:"email" db:"email"`
	Name         string             `json:"name" db:"name"`
	SubscribedAt time.Time          `json:"subscribed_at" db:"subscribed_at"`
	Status       SubscriptionStatus `json:"status" db:"status"`
}
