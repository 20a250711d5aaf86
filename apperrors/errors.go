package apperrors

import (
	"errors"
	"fmt"
)

// AppError is the error type every service returns across its boundary.
// Controllers switch on Code to pick an HTTP status.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func Validation(msg string) error {
	return New(CodeValidation, msg)
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

// InvalidState reports a consent-machine guard failure and carries the
// state the record is actually in.
func InvalidState(msg, currentState string) error {
	return New(CodeInvalidState, fmt.Sprintf("%s (current state: %s)", msg, currentState))
}

func Conflict(msg string) error {
	return New(CodeConflict, msg)
}

func Crypto(cause error) error {
	// Detail stays server-side; callers see an opaque failure.
	return Wrap(CodeCrypto, "decryption failed", cause)
}

func Dependency(msg string, cause error) error {
	return Wrap(CodeDependency, msg, cause)
}

func Unauthenticated(msg string) error {
	return New(CodeUnauthenticated, msg)
}

func Forbidden(msg string) error {
	return New(CodePermissionDenied, msg)
}

func Internal(msg string, cause error) error {
	return Wrap(CodeInternal, msg, cause)
}

// CodeOf extracts the Code from any error, defaulting to CodeUnknown.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
