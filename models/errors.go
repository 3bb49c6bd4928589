package models

import (
	"errors"
	"strings"
)

// Kind is the stable tag every failure carries to the client.
type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindTypeMismatch        Kind = "type_mismatch"
	KindDuplicateMembership Kind = "duplicate_membership"
	KindForbidden           Kind = "forbidden"
	KindNotFound            Kind = "not_found"
	KindConflictRetry       Kind = "conflict_retry"
)

// FieldError names the offending input field and why it was rejected.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error is the domain error type. Two errors match with errors.Is when
// their kinds are equal, so the sentinels below work as targets.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Cause   error
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden           = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrDuplicateMembership = &Error{Kind: KindDuplicateMembership, Message: "already a participant of this event"}
	ErrConflict            = &Error{Kind: KindConflictRetry, Message: "concurrent write conflict"}
)

// Validation builds a validation error out of one or more field errors.
func Validation(fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "invalid input", Fields: fields}
}

// InvalidField is shorthand for a single-field validation failure.
func InvalidField(field, reason string) *Error {
	return Validation(FieldError{Field: field, Reason: reason})
}

// TypeMismatch reports data whose shape belongs to another event type.
func TypeMismatch(msg string, fields ...FieldError) *Error {
	return &Error{Kind: KindTypeMismatch, Message: msg, Fields: fields}
}

// KindOf returns the kind of the first *Error in err's chain, or "" for
// errors that did not originate in the domain (storage outages and such).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
