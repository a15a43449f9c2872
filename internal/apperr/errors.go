package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can branch without matching messages.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindGeneration  Kind = "generation"
	KindPersistence Kind = "persistence"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
)

// Error is the tagged error returned by services.
type Error struct {
	Kind    Kind
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a tagged error.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation creates a validation error with optional field details.
func Validation(message string, details interface{}) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// Generation wraps a collaborator failure while producing an asset.
func Generation(message string, err error) *Error {
	return New(KindGeneration, message, err)
}

// Persistence wraps a failure of the episode store.
func Persistence(message string, err error) *Error {
	return New(KindPersistence, message, err)
}

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(KindNotFound, message, nil)
}

// Conflict creates a conflict error.
func Conflict(message string) *Error {
	return New(KindConflict, message, nil)
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
