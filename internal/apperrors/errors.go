// Package apperrors defines the error taxonomy for the checkout and
// subscription flows. Handlers map kinds to HTTP statuses; messages of
// validation and declined errors are safe to show to the user verbatim.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthorized    Kind = "unauthorized"
	KindNotFound        Kind = "not_found"
	KindDuplicate       Kind = "duplicate_subscription"
	KindPaymentDeclined Kind = "payment_declined"
	KindUpstream        Kind = "upstream"
	KindInternal        Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf walks the error chain and returns the first taxonomy kind found,
// defaulting to internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Retryable reports whether the failure is transient (rate limit, network)
// and the user should be offered a retry rather than a hard failure.
func Retryable(err error) bool {
	return KindOf(err) == KindUpstream
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindDuplicate:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindPaymentDeclined:
		return http.StatusPaymentRequired
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
