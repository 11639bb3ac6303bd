// Package apperr defines the closed set of error kinds surfaced by the
// subscription pipeline and their translation to HTTP status codes.
//
// Adapters wrap their failures in an *Error carrying a Kind. Handlers never
// inspect driver or transport errors directly; they ask KindOf and StatusCode.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the transport boundary.
type Kind int

const (
	// KindInfrastructure is any store or mailer failure that is not a conflict.
	// It is the zero value so that unclassified errors are treated as internal.
	KindInfrastructure Kind = iota
	// KindValidation is malformed input rejected while decoding a request.
	KindValidation
	// KindConflict is a uniqueness violation at the store (duplicate email).
	KindConflict
)

var kindNames = map[Kind]string{
	KindInfrastructure: "infrastructure",
	KindValidation:     "validation",
	KindConflict:       "conflict",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var statusCodes = map[Kind]int{
	KindValidation:     http.StatusBadRequest,
	KindConflict:       http.StatusConflict,
	KindInfrastructure: http.StatusInternalServerError,
}

// StatusCode maps a Kind to the HTTP status returned to the caller.
func StatusCode(k Kind) int {
	if code, ok := statusCodes[k]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// Error is a classified error. Msg is safe to show to a client for
// validation and conflict kinds; Err holds the internal cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	default:
		return e.Msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a KindValidation error with a client-facing message.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// Conflict returns a KindConflict error. msg is shown to the client.
func Conflict(op, msg string, err error) *Error {
	return &Error{Kind: KindConflict, Op: op, Msg: msg, Err: err}
}

// Infrastructure wraps err as a KindInfrastructure error.
func Infrastructure(op string, err error) *Error {
	return &Error{Kind: KindInfrastructure, Op: op, Msg: "internal server error", Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
// Errors that were never classified are infrastructure failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInfrastructure
}

// Is reports whether err's chain holds an *Error of kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// PublicMessage returns the text that may be sent to a client for err.
// Infrastructure failures always collapse to a generic message.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInfrastructure {
		return "internal server error"
	}
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.String()
}
