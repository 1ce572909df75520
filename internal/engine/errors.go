package engine

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a turn failure. The kind decides what the caller is told:
// validation detail is safe to disclose, collaborator detail is not, and a
// timeout gets its own user-visible message so the caller knows to retry
// with a shorter question.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindCollaborator Kind = "collaborator"
	KindTimeout      Kind = "timeout"
)

// Error is a turn failure with a kind, a stable machine code, and the
// wrapped cause. The cause is for server-side logs only.
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the text safe to surface to the caller. Collaborator
// causes are never echoed.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindTimeout:
		return "response took too long"
	case KindValidation:
		return e.Code
	default:
		return "something went wrong processing your question"
	}
}

func newError(kind Kind, code string, err error) *Error {
	// A cancelled or expired context anywhere in a step is a timeout from
	// the caller's point of view.
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Code: code, Err: err}
}

// AsError extracts an *Error from err, wrapping unknown errors as opaque
// collaborator failures.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return newError(KindCollaborator, "internal_error", err)
}

// IsTimeout reports whether err is a timeout-kind turn failure.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindTimeout
}
