// Package domain holds the error taxonomy shared by every console component.
package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrSchemaLoad        = errors.New("schema load failed")
	ErrDepartmentLoad    = errors.New("department load failed")
	ErrRecordFetch       = errors.New("record fetch failed")
	ErrRecordMutation    = errors.New("record mutation failed")
	ErrImportParse       = errors.New("import parse failed")
	ErrAttachment        = errors.New("attachment operation failed")
	ErrStaleResponse     = errors.New("response superseded by a newer request")
	ErrInvalidTransition = errors.New("action not permitted")
	ErrValidation        = errors.New("form validation failed")
)

// Error attaches an operation name and a user-facing message to a kind.
type Error struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is/As
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap tags err with kind. A nil err still produces an error so callers can
// report failures that have no underlying cause (e.g. a non-success envelope).
func Wrap(kind error, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds a kind-tagged error with a user-facing message
func Newf(kind error, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// UserMessage returns the user-facing message carried by err, or fallback
func UserMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
