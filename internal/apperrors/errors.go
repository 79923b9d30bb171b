// Package apperrors defines the error taxonomy shared by services and handlers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a class of failure and doubles as the "error" code in responses.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindDuplicateEmail     Kind = "duplicate_email"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUnauthenticated    Kind = "unauthenticated"
	KindInvalidToken       Kind = "invalid_token"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindOwnerNotFound      Kind = "owner_not_found"
	KindAlreadyExists      Kind = "already_exists"
	KindServer             Kind = "server_error"
)

// Error is a domain failure with a user-facing message.
type Error struct {
	Kind    Kind
	Message string
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

// Status returns the HTTP status for the error's kind.
func (e *Error) Status() int {
	return StatusOf(e.Kind)
}

func StatusOf(kind Kind) int {
	switch kind {
	case KindValidation, KindDuplicateEmail, KindInvalidCredentials, KindAlreadyExists:
		return http.StatusBadRequest
	case KindUnauthenticated, KindInvalidToken:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound, KindOwnerNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func DuplicateEmail() *Error {
	return New(KindDuplicateEmail, "Email already exists")
}

func InvalidCredentials(message string) *Error {
	return New(KindInvalidCredentials, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func OwnerNotFound() *Error {
	return New(KindOwnerNotFound, "Owner not found")
}

func AlreadyExists(message string) *Error {
	return New(KindAlreadyExists, message)
}

// Internal wraps an infrastructure fault. The message stays generic.
func Internal(err error) *Error {
	return &Error{Kind: KindServer, Message: "Server error", Err: err}
}

// As extracts an *Error from err. Anything else is reported as a server error.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
