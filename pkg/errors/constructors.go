package errors

import (
	"errors"
	"fmt"
)

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a code and message. Returns nil if err is nil.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// Wrapf wraps err with a code and formatted message. Returns nil if err is nil.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Unauthorized creates a general authentication error.
func Unauthorized(message string) *Error {
	return New(CodeAuthentication, message)
}

// MissingToken creates the error returned when a request carries no
// usable bearer token.
//
// Example:
//
//	return errors.MissingToken("empty token provided")
func MissingToken(message string) *Error {
	return New(CodeAuthenticationMissing, message)
}

// MalformedToken wraps a structural decode failure.
func MalformedToken(cause error, message string) *Error {
	if cause == nil {
		return New(CodeAuthenticationInvalid, message)
	}
	return Wrap(cause, CodeAuthenticationInvalid, message)
}

// DomainMissing creates the error returned when a token carries no
// domain identifier.
func DomainMissing(message string) *Error {
	return New(CodeAuthenticationDomainMissing, message)
}

// KeyResolution wraps a failure to resolve a domain's public key.
func KeyResolution(cause error, domainID string) *Error {
	e := &Error{
		Code:    CodeUnavailableKeyResolution,
		Message: "failed to resolve domain public key",
		Cause:   cause,
	}
	return e.WithDetail("domain_id", domainID)
}

// PermissionResolution wraps a failure to resolve an app's permissions.
func PermissionResolution(cause error, credentialID, domainID string) *Error {
	e := &Error{
		Code:    CodeUnavailablePermissionResolution,
		Message: "failed to resolve app permissions",
		Cause:   cause,
	}
	return e.WithDetails(map[string]any{
		"credential_id": credentialID,
		"domain_id":     domainID,
	})
}

// Internal creates an internal error.
func Internal(message string) *Error {
	return New(CodeInternal, message)
}

// Unavailable creates a service unavailable error.
func Unavailable(message string) *Error {
	return New(CodeUnavailable, message)
}

// FromError converts err to an *Error. An *Error anywhere in the chain is
// returned as-is; anything else is wrapped as an internal error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, CodeInternal, "an unexpected error occurred")
}
