// Package apperr defines the error taxonomy shared by the lifecycle
// manager, the stores, and the HTTP handlers. Every error that crosses a
// package boundary carries a Kind so the boundary can map it to a response
// without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the API boundary.
type Kind int

const (
	// KindValidation covers malformed or out-of-range input. Maps to 400.
	KindValidation Kind = iota
	// KindConflict covers state transitions attempted from a state that
	// doesn't allow them. Maps to 400 with a distinct error code.
	KindConflict
	// KindUnauthorized covers failed or missing authentication. Maps to 401.
	KindUnauthorized
	// KindForbidden covers role and ownership violations. Maps to 403.
	KindForbidden
	// KindNotFound covers unknown ids/slugs. Posts hidden from the caller
	// by the visibility rule also surface as KindNotFound so their
	// existence doesn't leak. Maps to 404.
	KindNotFound
	// KindInternal covers opaque infrastructure failures. Maps to 500.
	KindInternal
)

// Error is a classified application error. Fields carries optional
// field-level validation detail.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.err
}

// Validation returns a validation error with a caller-facing message.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// ValidationFields returns a validation error carrying per-field detail.
func ValidationFields(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Conflict returns an invalid-transition error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Unauthorized returns an authentication error.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// Forbidden returns an authorization error.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound returns a not-found error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Internal wraps an infrastructure failure. The cause is preserved for
// logging but never serialized to the caller.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", err: err}
}

// KindOf extracts the Kind from err, defaulting to KindInternal for
// unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err is an application error of the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
