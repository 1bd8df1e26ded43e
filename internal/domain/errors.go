package domain

import "errors"

// Error kinds returned by services. Handlers map them onto HTTP status codes.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// KindError attaches a user-facing message to one of the error kinds.
type KindError struct {
	Kind    error
	Message string
}

func (e *KindError) Error() string { return e.Message }

func (e *KindError) Unwrap() error { return e.Kind }

// Validation builds a validation error with the given message.
func Validation(msg string) error { return &KindError{Kind: ErrValidation, Message: msg} }

// Unauthorized builds an unauthorized error with the given message.
func Unauthorized(msg string) error { return &KindError{Kind: ErrUnauthorized, Message: msg} }

// Forbidden builds an ownership/permission error with the given message.
func Forbidden(msg string) error { return &KindError{Kind: ErrForbidden, Message: msg} }

// NotFound builds a not-found error with the given message.
func NotFound(msg string) error { return &KindError{Kind: ErrNotFound, Message: msg} }

// Conflict builds a conflict error with the given message.
func Conflict(msg string) error { return &KindError{Kind: ErrConflict, Message: msg} }
