package sync

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a sync call could not complete
type FailureKind int

const (
	// FailUnconfigured means no server URL has been set
	FailUnconfigured FailureKind = iota
	// FailUnauthenticated means the token is missing, expired or rejected
	FailUnauthenticated
	// FailTransient covers network errors and 5xx responses; safe to retry
	FailTransient
	// FailRejected covers non-auth 4xx responses; retrying will not help
	FailRejected
)

func (k FailureKind) String() string {
	switch k {
	case FailUnconfigured:
		return "unconfigured"
	case FailUnauthenticated:
		return "unauthenticated"
	case FailTransient:
		return "transient"
	case FailRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Error is the sync failure type. Outbox rows touched by a failed push
// stay PENDING regardless of kind; the kind tells the caller whether to
// retry, re-authenticate or escalate.
type Error struct {
	Kind FailureKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sync %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("sync %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two sync errors by kind so errors.Is(err, &Error{Kind: k})
// works without comparing messages
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func errUnconfigured() *Error {
	return &Error{Kind: FailUnconfigured, Msg: "no sync server configured"}
}

func errUnauthenticated(msg string, err error) *Error {
	return &Error{Kind: FailUnauthenticated, Msg: msg, Err: err}
}

func errTransient(msg string, err error) *Error {
	return &Error{Kind: FailTransient, Msg: msg, Err: err}
}

func errRejected(msg string, err error) *Error {
	return &Error{Kind: FailRejected, Msg: msg, Err: err}
}

// ErrSyncInProgress is returned by a manual trigger that lost the
// single-flight race with a running cycle
var ErrSyncInProgress = errors.New("sync already in progress")
