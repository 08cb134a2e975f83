package domain

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind is the closed set of failure kinds a domain capability may
// surface. Anything a backing service produces is normalized into one of
// these before the orchestrator sees it.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindConflict         ErrorKind = "conflict"
	KindUnavailable      ErrorKind = "unavailable"
	KindInvalidState     ErrorKind = "invalid_state"
)

// DomainError is a normalized domain-service failure.
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Retryable reports whether the error is eligible for the orchestrator's
// single bounded retry. Only Unavailable qualifies.
func (e *DomainError) Retryable() bool {
	return e.Kind == KindUnavailable
}

func NotFound(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func PermissionDenied(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Unavailable(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindUnavailable, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// Normalize folds an arbitrary capability error into a DomainError.
// DomainErrors pass through untouched, context cancellation and deadline
// become Unavailable, and everything else is reported as InvalidState,
// keeping the original message.
func Normalize(err error) *DomainError {
	if err == nil {
		return nil
	}
	var derr *DomainError
	if errors.As(err, &derr) {
		return derr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Unavailable("operation abandoned: %s", err.Error())
	}
	return InvalidState("%s", err.Error())
}
