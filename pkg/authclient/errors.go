package authclient

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call so callers can branch without parsing text.
type Kind string

const (
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindValidation         Kind = "Validation"
	KindAuthorization      Kind = "Authorization"
	KindNotFound           Kind = "NotFound"
	KindNetworkUnavailable Kind = "NetworkUnavailable"
	KindServerError        Kind = "ServerError"
)

// Error is returned by every Client method that reached a decision about the
// call. Message is human readable and safe to show to a user.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same Kind, so the sentinels below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrValidation         = &Error{Kind: KindValidation}
	ErrAuthorization      = &Error{Kind: KindAuthorization}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrNetworkUnavailable = &Error{Kind: KindNetworkUnavailable}
	ErrServerError        = &Error{Kind: KindServerError}
)

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// retryable kinds trip the circuit breaker; client-side mistakes do not.
func (k Kind) retryable() bool {
	return k == KindNetworkUnavailable || k == KindServerError
}
