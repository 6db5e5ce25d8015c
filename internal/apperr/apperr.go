// Package apperr defines the error taxonomy shared by every engine and
// mapped to HTTP status codes at the handler layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable error taxonomy used across the request path.
type Kind string

const (
	Validation          Kind = "validation"
	InvalidCredentials  Kind = "invalid_credentials"
	InvalidToken        Kind = "invalid_token"
	Unauthorized        Kind = "unauthorized"
	Forbidden           Kind = "forbidden"
	NotFound            Kind = "not_found"
	EmailExists         Kind = "email_exists"
	WalletExists        Kind = "wallet_exists"
	AccountLocked       Kind = "account_locked"
	RateLimited         Kind = "rate_limited"
	TooManyRequests     Kind = "too_many_requests"
	ChallengeExpired    Kind = "challenge_expired"
	TokenExpired        Kind = "token_expired"
	StepUpRequired      Kind = "step_up_required"
	ConfigErr           Kind = "config"
	Internal            Kind = "internal"
	DuplicateIdempotent Kind = "duplicate_idempotency_key"
)

// Error is the concrete error type carried through the request path. The
// public Message is safe to return to a client; the wrapped Cause is
// logged server-side only.
type Error struct {
	Kind    Kind
	Message string
	Code    string // distinct machine-readable sub-code, e.g. for StepUpRequired
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind with a client-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches an internal cause to a client-safe error. The cause is
// never serialized to the client.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Internalf wraps an unexpected failure as a generic Internal error,
// matching the propagation policy in spec §7: leaves return errors,
// handlers map and annotate, nothing below this layer is exposed.
func Internalf(format string, args ...interface{}) *Error {
	return &Error{Kind: Internal, Message: "internal error", Cause: fmt.Errorf(format, args...)}
}

// HTTPStatus maps a Kind to the HTTP status code per spec §7.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Validation:
		return http.StatusBadRequest
	case InvalidCredentials, InvalidToken, Unauthorized, ChallengeExpired, TokenExpired, StepUpRequired:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case EmailExists, WalletExists, DuplicateIdempotent:
		return http.StatusConflict
	case AccountLocked, RateLimited, TooManyRequests:
		return http.StatusTooManyRequests
	case ConfigErr, Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// As extracts an *Error from any error, defaulting to Internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internalf("unclassified error: %w", err)
}
