package domainerrors

import "errors"

// Code represents a domain error category independent of the transport layer.
// The backend speaks HTTP statuses plus free-text detail strings; everything
// that crosses into this module is translated into one of these stable codes
// so that callers branch on the code, never on message text.
type Code string

const (
	CodeValidation   Code = "validation_failed"
	CodeInternal     Code = "internal_error"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"

	// CodeUnavailable marks transport-level failures (connection refused,
	// timeout, 5xx). Session bootstrap treats it as non-fatal; interactive
	// flows surface it as a retryable error.
	CodeUnavailable Code = "unavailable"

	// Authentication and challenge codes.
	CodeInvalidCredentials Code = "invalid_credentials" // bad email/password pair
	CodeAccountSuspended   Code = "account_suspended"
	CodePINNotSet          Code = "pin_not_set"    // no PIN on record; drives the setup transition
	CodeInvalidSecret      Code = "invalid_secret" // wrong PIN
	CodeOTPInvalid         Code = "otp_invalid"    // wrong or malformed one-time code
	CodeOTPExpired         Code = "otp_expired"
	CodeEmailTaken         Code = "email_taken"
	CodeBalanceTooLow      Code = "balance_too_low" // opening balance below the minimum
)

// Error wraps a backend rejection or infrastructure failure with a stable code.
// Message carries the server-provided text verbatim when one was present.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Is reports whether err carries the given code. Alias kept for call sites
// that read better as a predicate.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// MessageOr returns the server-provided message if err carries one,
// otherwise the supplied fallback. Used wherever the contract says
// "surface the server's message verbatim when present, else a generic string".
func MessageOr(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
