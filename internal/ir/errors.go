package ir

import (
	"errors"
	"fmt"
)

// QueryError is the closed error taxonomy shared by the store and the engine.
//
// Codes:
//   - UNRESOLVED_TERM: a non-wildcard term has no dictionary id
//   - UNSUPPORTED_CAPABILITY: the dictionary cannot perform substring search
//   - IO: the store failed to open, read or write
//
// The Session absorbs UNRESOLVED_TERM into an empty result. The other two
// are returned to the immediate caller and never retried.
type QueryError struct {
	// Code identifies the error category.
	Code QueryErrorCode

	// Message is a human-readable description.
	Message string

	// Role is the role of the offending term (UNRESOLVED_TERM only).
	Role Role

	// Term is the offending term text (UNRESOLVED_TERM only).
	Term string

	// Err is the underlying cause, if any.
	Err error
}

// QueryErrorCode categorizes query errors.
type QueryErrorCode string

const (
	// ErrCodeUnresolvedTerm indicates a term is missing from the dictionary.
	ErrCodeUnresolvedTerm QueryErrorCode = "UNRESOLVED_TERM"

	// ErrCodeUnsupportedCapability indicates the dictionary lacks substring search.
	ErrCodeUnsupportedCapability QueryErrorCode = "UNSUPPORTED_CAPABILITY"

	// ErrCodeIO indicates a store I/O failure.
	ErrCodeIO QueryErrorCode = "IO"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Term != "" {
		msg = fmt.Sprintf("%s (%s=%q)", msg, e.Role, e.Term)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewUnresolvedTermError creates a QueryError for a dictionary miss.
func NewUnresolvedTermError(role Role, term string) *QueryError {
	return &QueryError{
		Code:    ErrCodeUnresolvedTerm,
		Message: "term not found in dictionary",
		Role:    role,
		Term:    term,
	}
}

// NewUnsupportedCapabilityError creates a QueryError for a missing dictionary capability.
func NewUnsupportedCapabilityError(capability string) *QueryError {
	return &QueryError{
		Code:    ErrCodeUnsupportedCapability,
		Message: fmt.Sprintf("dictionary does not support %s", capability),
	}
}

// NewIOError wraps a store failure.
func NewIOError(op string, err error) *QueryError {
	return &QueryError{
		Code:    ErrCodeIO,
		Message: op,
		Err:     err,
	}
}

// IsUnresolvedTerm returns true if err is an UNRESOLVED_TERM QueryError.
// Uses errors.As to handle wrapped errors.
func IsUnresolvedTerm(err error) bool {
	return hasCode(err, ErrCodeUnresolvedTerm)
}

// IsUnsupportedCapability returns true if err is an UNSUPPORTED_CAPABILITY QueryError.
func IsUnsupportedCapability(err error) bool {
	return hasCode(err, ErrCodeUnsupportedCapability)
}

// IsIOError returns true if err is an IO QueryError.
func IsIOError(err error) bool {
	return hasCode(err, ErrCodeIO)
}

func hasCode(err error, code QueryErrorCode) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}
