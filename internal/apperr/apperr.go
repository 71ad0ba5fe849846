// Package apperr holds the error kinds shared by the stores, services and
// HTTP handlers. Match kinds with errors.Is.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("conflict")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrStore             = errors.New("store error")
)

// Error carries a kind, a client-safe message and an optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func Validation(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }
func Conflict(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }
func Unauthenticated(msg string) error { return &Error{Kind: ErrUnauthenticated, Message: msg} }
func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }
func InvalidID(msg string) error { return &Error{Kind: ErrInvalidIdentifier, Message: msg} }

// Store wraps an unexpected persistence failure. The cause is kept for
// logging; Message never exposes it.
func Store(err error) error {
	return &Error{Kind: ErrStore, Message: "internal server error", Err: err}
}

// Status maps an error kind to its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing text for err. Anything that is not an
// *Error with a known kind collapses to a generic message.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && !errors.Is(e.Kind, ErrStore) {
		return e.Message
	}
	return "internal server error"
}
