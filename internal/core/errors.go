package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by DocumentService wraps exactly one of these,
// so callers branch with errors.Is.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
)

// Error is a domain error carrying its kind, the operation that produced it and,
// for validation failures, the offending input field.
type Error struct {
	Op     string
	Kind   error
	Field  string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg = e.Detail
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func validationError(op, field, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrValidation, Field: field, Detail: fmt.Sprintf(format, args...)}
}

func notFoundError(op string, docType DocumentType, id fmt.Stringer) error {
	return &Error{Op: op, Kind: ErrNotFound, Detail: fmt.Sprintf("%s %s not found", docType.Label(), id)}
}

func forbiddenError(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrForbidden, Detail: fmt.Sprintf(format, args...)}
}

func transitionError(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrInvalidTransition, Detail: fmt.Sprintf(format, args...)}
}

func conflictError(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrConflict, Detail: fmt.Sprintf(format, args...)}
}

// FieldOf returns the offending field of a validation error, or "".
func FieldOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Field
	}
	return ""
}
