// Package errs provides the error taxonomy shared by the record codec, the
// registry operations and their transports.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error classification.
type Code string

const (
	// CodeUnknown represents an error that carries no classification.
	CodeUnknown Code = "UNKNOWN"

	// CodeInvalidInput covers malformed instructions and empty, oversized or
	// non-UTF-8 names.
	CodeInvalidInput Code = "INVALID_INPUT"

	// CodeAllocationFailed means the slot allocator rejected a request.
	CodeAllocationFailed Code = "ALLOCATION_FAILED"

	// CodeCodec covers record framing violations and size overflow.
	CodeCodec Code = "CODEC_ERROR"
)

// HTTPStatus maps a code to the status returned by the REST API.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeAllocationFailed:
		return http.StatusConflict
	case CodeCodec:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Cause, when set, is reachable through
// errors.Is and errors.As.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies cause under code. A nil cause yields nil.
func Wrap(code Code, cause error, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: cause}
}

// InvalidInput is shorthand for Newf(CodeInvalidInput, ...).
func InvalidInput(format string, args ...any) *Error {
	return Newf(CodeInvalidInput, format, args...)
}

// GetCode extracts the outermost code from err.
// Returns CodeUnknown if err carries no classification.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode reports whether err is classified as code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}
