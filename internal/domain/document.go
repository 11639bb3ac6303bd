package domain

import "strings"

// ConfirmationTitle is the subject line of the confirmation email.
const ConfirmationTitle = "Welcome !"

// DocumentKind is the purpose of an outbound message. The set of kinds is
// closed: only types in this package implement it.
type DocumentKind interface {
	documentKind()
}

// Confirmation asks a new subscriber to confirm their address.
type Confirmation struct {
	Link string
}

func (Confirmation) documentKind() {}

// Document is the content of one outbound email.
type Document struct {
	Title string
	Kind  DocumentKind
}

// NewConfirmation builds the confirmation email for the subscription token.
// baseURL is the public address of the service, e.g. "http://localhost:8000".
func NewConfirmation(baseURL, token string) Document {
	link := strings.TrimRight(baseURL, "/") + "/subscriptions/confirm?sub_id=" + token
	return Document{
		Title: ConfirmationTitle,
		Kind:  Confirmation{Link: link},
	}
}
