package client

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated means the action needs a session user id and none is
// present. Raised locally, before any network call.
var ErrUnauthenticated = errors.New("not logged in")

// ErrNoHistory means the server reported a well-formed empty history, as
// distinct from a transport failure.
var ErrNoHistory = errors.New("no review history")

// ErrBusy rejects a trigger while a request is already in flight. Each
// workflow allows at most one pending request; racing two responses could let
// a stale one overwrite a newer result.
var ErrBusy = errors.New("a request is already in progress")

// ValidationError is a missing or malformed local input. No network call is
// made when one is raised.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validationf builds a ValidationError.
func Validationf(format string, a ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, a...)}
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransportError is a failed request or a non-success server response. The
// server's message, when it sent one, is surfaced verbatim.
type TransportError struct {
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("request failed (status %d)", e.StatusCode)
	}
	return "request failed"
}

// IsTransport reports whether err is a transport/server failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
