// Package errors provides coded domain errors for sessions, identities and ratings.
//
// Callers test with errors.Is against the sentinels; the Code decides how the
// web surface answers and whether a message is shown as a warning.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-exported standard library helpers.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// Code is a machine-readable error code.
type Code string

// Error codes.
const (
	CodeUnknownIdentity    Code = "UNKNOWN_IDENTITY"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeAlreadyRegistered  Code = "ALREADY_REGISTERED"
	CodeValidation         Code = "VALIDATION"
	CodeNoSavedRatings     Code = "NO_SAVED_RATINGS"
	CodeNotAuthenticated   Code = "NOT_AUTHENTICATED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInternal           Code = "INTERNAL"
)

// HTTPStatus maps a code to a response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnknownIdentity, CodeInvalidCredentials, CodeNotAuthenticated:
		return http.StatusUnauthorized
	case CodeAlreadyRegistered:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound, CodeNoSavedRatings:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// IsWarning reports whether the code is informational rather than a failure.
func (c Code) IsWarning() bool {
	return c == CodeNoSavedRatings
}

// Error is a domain error with a code and a user-facing message.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: err}
}

// WithMessage returns a copy of e with a different message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, cause: e.cause}
}

// Sentinels for errors.Is.
var (
	ErrUnknownIdentity    = &Error{Code: CodeUnknownIdentity, Message: "user not found"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "incorrect password"}
	ErrAlreadyRegistered  = &Error{Code: CodeAlreadyRegistered, Message: "email already registered"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "invalid input"}
	ErrNoSavedRatings     = &Error{Code: CodeNoSavedRatings, Message: "no saved ratings found"}
	ErrNotAuthenticated   = &Error{Code: CodeNotAuthenticated, Message: "not logged in"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
)

// Validation creates a validation error with a custom message.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// NotFound creates a not-found error with a custom message.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsWarning reports whether err carries a warning code.
func IsWarning(err error) bool {
	return err != nil && CodeOf(err).IsWarning()
}

// Message returns the user-facing message of a domain error, or err.Error().
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
