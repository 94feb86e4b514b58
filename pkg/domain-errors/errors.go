// Package domainerrors carries the coded errors surfaced by the session
// core. Callers switch on the Code, never on provider-specific detail, so
// UI message mapping stays exhaustive.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code enumerates every failure kind an operation may surface.
type Code string

const (
	CodeInvalidCredentials  Code = "invalid_credentials"
	CodeRateLimited         Code = "rate_limited"
	CodeAccountNotFound     Code = "account_not_found"
	CodeEmailAlreadyInUse   Code = "email_already_in_use"
	CodeInvalidEmail        Code = "invalid_email"
	CodeWeakPassword        Code = "weak_password"
	CodeProviderSignIn      Code = "provider_sign_in_failed"
	CodeProviderUnavailable Code = "provider_unavailable"
	CodeBadRequest          Code = "bad_request"
	CodeUnauthorized        Code = "unauthorized"
	CodeUnknown             Code = "unknown"
)

// Error is a coded domain error. The zero Code is not valid; construct
// through New or Wrap.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a cause so infrastructure detail survives for logs while
// callers still only see the code.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is makes errors.Is match on code equality, so sentinel-style comparison
// against New(code, "") works.
func (e *Error) Is(target error) bool {
	var de *Error
	if !errors.As(target, &de) {
		return false
	}
	return e.Code == de.Code
}

// CodeOf extracts the code from err, or CodeUnknown when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUnknown
}

// MessageOf returns the safe human-readable message, or a generic one for
// uncoded errors whose text may leak infrastructure detail.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "unexpected error"
}

// ToHTTPStatus translates a code to the HTTP status the transport layer
// writes. Kept here so every handler maps errors the same way.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidCredentials, CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeAccountNotFound:
		return http.StatusNotFound
	case CodeEmailAlreadyInUse:
		return http.StatusConflict
	case CodeInvalidEmail, CodeWeakPassword, CodeBadRequest:
		return http.StatusBadRequest
	case CodeProviderSignIn:
		return http.StatusBadGateway
	case CodeProviderUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
