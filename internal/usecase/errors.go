package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"tradhub-messaging/internal/integrations/session"
)

type ErrorCode string

const (
	// ErrorValidation covers input rejected locally, before any network call.
	ErrorValidation ErrorCode = "VALIDATION_ERROR"
	// ErrorTransport covers network failures, non-2xx responses and malformed
	// bodies. Safe to retry; previously loaded state must be kept.
	ErrorTransport ErrorCode = "TRANSPORT_ERROR"
	// ErrorAuthorization covers a missing or expired credential. Not retryable
	// here; the caller must escalate to re-authentication.
	ErrorAuthorization ErrorCode = "AUTHORIZATION_ERROR"
	ErrorInternal      ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

// classifyStoreError maps a Message Store client failure onto the taxonomy:
// missing credentials and 401/403 responses are authorization failures,
// everything else is transport.
func classifyStoreError(reason string, err error) *Error {
	if errors.Is(err, session.ErrNoSession) {
		return newError(ErrorAuthorization, "missing_credentials", err)
	}
	if status, ok := upstreamStatusCode(err); ok {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return newError(ErrorAuthorization, reason+"_unauthorized", err)
		}
	}
	return newError(ErrorTransport, reason, err)
}
