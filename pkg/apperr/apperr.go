// Package apperr defines the typed failures raised by the domain services.
//
// Services never return raw store errors to callers. They return an *Error
// carrying a Kind, and the HTTP boundary (pkg/response.FromError) maps the
// kind to a status code and a safe message.
//
//	if cart == nil {
//	    return nil, apperr.New(apperr.NotFound, "cart not found")
//	}
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	Internal      Kind = "internal"
	NotFound      Kind = "not_found"
	AlreadyExists Kind = "already_exists"
	InvalidInput  Kind = "invalid_input"
	Unauthorized  Kind = "unauthorized"
	Forbidden     Kind = "forbidden"
	EmptyCart     Kind = "empty_cart"
	Conflict      Kind = "conflict"
)

// Error is a classified failure with a user-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// New returns an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with fmt formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Sentinels for errors.Is checks. They carry no message, which makes them
// match any error of their kind.
var (
	ErrNotFound      = &Error{Kind: NotFound}
	ErrAlreadyExists = &Error{Kind: AlreadyExists}
	ErrInvalidInput  = &Error{Kind: InvalidInput}
	ErrUnauthorized  = &Error{Kind: Unauthorized}
	ErrForbidden     = &Error{Kind: Forbidden}
	ErrEmptyCart     = &Error{Kind: EmptyCart}
	ErrConflict      = &Error{Kind: Conflict}
)

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the user-facing message of err, or "" for unclassified errors.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
