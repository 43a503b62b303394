package models

import (
	"errors"
	"fmt"
)

// Kind classifies command failures.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindPersistence   Kind = "persistence"
)

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrValidation    = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrAuthorization = &Error{Kind: KindAuthorization, Msg: "not authorized"}
	ErrNotFound      = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrPersistence   = &Error{Kind: KindPersistence, Msg: "persistence failed"}
)

// Error is a classified command failure. Its message is what the caller sees.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Invalid returns a validation error with a formatted message.
func Invalid(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Forbidden returns an authorization error with a formatted message.
func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindAuthorization, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity.
func NotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s %q not found", entity, id)}
}

// PersistenceFailed wraps a backing store failure.
func PersistenceFailed(err error) error {
	return &Error{Kind: KindPersistence, Msg: "failed to persist state", Err: err}
}

// KindOf returns the kind of err, or the empty kind for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
