// Package domainerrors defines the code-carrying error type used across
// service boundaries. Stores return infrastructure sentinels
// (pkg/platform/sentinel); services translate those into coded errors here so
// transport layers can map them without string matching.
package domainerrors

import "errors"

// Code classifies a domain error for programmatic handling.
type Code string

const (
	// CodeInvalidInput marks malformed input. Recoverable: the caller can
	// correct and resubmit.
	CodeInvalidInput Code = "invalid_input"
	// CodeUnknownObjective marks an objective the course definition does not
	// know. A caller or configuration bug; never retried.
	CodeUnknownObjective Code = "unknown_objective"
	// CodeUnknownSection marks a section missing from its objective.
	CodeUnknownSection Code = "unknown_section"
	// CodeConsentDenied is a terminal no-op outcome, not a failure. It must
	// stay distinguishable from success so callers do not persist anything.
	CodeConsentDenied Code = "consent_denied"
	// CodeInsufficientSample means an aggregate was suppressed because fewer
	// than k students contributed. Expected and non-exceptional.
	CodeInsufficientSample Code = "insufficient_sample"
	// CodeNotFound means the requested entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a transient same-key write collision. Callers retry
	// with backoff.
	CodeConflict Code = "conflict"
	// CodeUnauthorized marks a missing or invalid credential.
	CodeUnauthorized Code = "unauthorized"
	// CodeUnavailable marks a temporarily unreachable collaborator.
	CodeUnavailable Code = "unavailable"
	// CodeInternal marks an unexpected failure with no caller remedy.
	CodeInternal Code = "internal"
)

// Error is a domain error with a stable code and a human-readable message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that records an underlying cause for logs while
// exposing only the code and message to callers.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, or CodeInternal when err is not a domain
// error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
