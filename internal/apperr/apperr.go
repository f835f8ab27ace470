// Package apperr defines the error taxonomy shared by services and the HTTP
// boundary. Services return *Error values; the echo error handler maps the
// Kind to a status code and the response envelope.
package apperr

import (
	"context"
	"errors"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	Internal Kind = iota
	InvalidInput
	Unauthenticated
	InvalidCredentials
	InvalidSession
	Forbidden
	NotFound
	Conflict
	ServerMisconfigured
	Unavailable
)

var kindNames = map[Kind]string{
	Internal:            "internal",
	InvalidInput:        "invalid_input",
	Unauthenticated:     "unauthenticated",
	InvalidCredentials:  "invalid_credentials",
	InvalidSession:      "invalid_session",
	Forbidden:           "forbidden",
	NotFound:            "not_found",
	Conflict:            "conflict",
	ServerMisconfigured: "server_misconfigured",
	Unavailable:         "unavailable",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case InvalidInput:
		return http.StatusBadRequest
	case Unauthenticated, InvalidCredentials, InvalidSession:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error with a client-facing message. Err, when set,
// is the underlying cause and is never shown to clients.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap classifies err. A context deadline is reported as Unavailable
// regardless of the requested kind, so store timeouts read as transient.
func Wrap(kind Kind, msg string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = Unavailable
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the Kind of err, Internal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Unavailable
	}
	return Internal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal server error"
}
