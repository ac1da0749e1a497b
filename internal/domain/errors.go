// Package domain holds the error taxonomy shared by the holdings, history and sync modules.
package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure categories callers branch on.
type ErrorKind int

const (
	// KindAlreadyExists - creating a holding for a code that is already tracked
	KindAlreadyExists ErrorKind = iota + 1
	// KindNotFound - operating on a holding that does not exist
	KindNotFound
	// KindUpstreamUnavailable - the realtime estimate could not be fetched or had an unusable NAV
	KindUpstreamUnavailable
	// KindInvalidState - stored NAV is not positive, shares cannot be recomputed
	KindInvalidState
	// KindUpstreamPartialFailure - history paging stopped before the server-reported total
	KindUpstreamPartialFailure
	// KindInvalidInput - caller supplied values that can never produce a valid holding
	KindInvalidInput
)

// String returns the stable name of the kind (used in logs and API payloads)
func (k ErrorKind) String() string {
	switch k {
	case KindAlreadyExists:
		return "already_exists"
	case KindNotFound:
		return "not_found"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindInvalidState:
		return "invalid_state"
	case KindUpstreamPartialFailure:
		return "upstream_partial_failure"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by the core for classified failures.
type Error struct {
	Kind ErrorKind
	Code string // fund code the failure relates to, may be empty
	Msg  string
	Err  error // underlying cause, may be nil
}

func (e *Error) Error() string {
	prefix := e.Kind.String()
	if e.Code != "" {
		prefix = fmt.Sprintf("%s [%s]", prefix, e.Code)
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", prefix, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", prefix, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	default:
		return prefix
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, &Error{Kind: k}) match on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

// NewError creates a classified error
func NewError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// WrapError creates a classified error around a cause
func WrapError(kind ErrorKind, code, msg string, err error) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg, Err: err}
}

// ErrAlreadyExists reports that a holding for code is already tracked
func ErrAlreadyExists(code string) *Error {
	return NewError(KindAlreadyExists, code, "holding already exists")
}

// ErrNotFound reports that no holding exists for code
func ErrNotFound(code string) *Error {
	return NewError(KindNotFound, code, "holding not found")
}

// KindOf extracts the kind from err, or 0 when err is not classified.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// IsKind reports whether err (or anything it wraps) is a classified error of kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
