package confession

import (
	"errors"
	"time"
)

// Kind is the stable machine-readable failure classification surfaced to
// clients alongside the human message.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindRateLimited  Kind = "rate_limited"
	KindNotFound     Kind = "not_found"
	KindStorage      Kind = "storage"
	KindUnauthorized Kind = "unauthorized"
)

// Error is a classified service failure.
type Error struct {
	Kind    Kind
	Message string

	// ResetAt is set for rate_limited errors so clients can schedule a
	// retry without polling.
	ResetAt time.Time

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind from err, or KindStorage for unclassified
// failures (the safe default: tell the client to try later, not that
// their request was bad).
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindStorage
}

// AsError returns the *Error inside err, if any.
func AsError(err error) (*Error, bool) {
	var svcErr *Error
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}

func validationErr(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func notFoundErr(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func storageErr(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}
