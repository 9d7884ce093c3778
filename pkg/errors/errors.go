package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode classifies gateway failures.
type ErrorCode string

const (
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeUnsupportedType ErrorCode = "UNSUPPORTED_TYPE"
	ErrCodeRateLimit       ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeTransport       ErrorCode = "TRANSPORT_ERROR"
	ErrCodeParse           ErrorCode = "PARSE_ERROR"
	ErrCodePersistence     ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// AppError carries a classified error across the service boundary.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error { return e.Cause }

// HTTPStatus maps the code onto an HTTP status for the transport layer.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeBadRequest, ErrCodeUnsupportedType:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeRateLimit:
		return http.StatusTooManyRequests
	case ErrCodeTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new classified error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap attaches a cause to a new classified error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}
