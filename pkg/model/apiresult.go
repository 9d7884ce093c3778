package model

import "time"

// ApiResult is the uniform envelope returned by every provider call
// and by the broker itself.
type ApiResult[T any] struct {
	Success     bool       `json:"success"`
	Data        T          `json:"data,omitempty"`
	Error       string     `json:"error,omitempty"`
	VendorError string     `json:"vendorError,omitempty"`
	StatusCode  int        `json:"statusCode,omitempty"`
	RetryAfter  *time.Time `json:"retryAfter,omitempty"`
	Meta        map[string]string
}

// Ok builds a successful envelope carrying data and an HTTP status.
func Ok[T any](data T, statusCode int) ApiResult[T] {
	return ApiResult[T]{Success: true, Data: data, StatusCode: statusCode}
}

// Fail builds a failed envelope with an error message.
func Fail[T any](msg string) ApiResult[T] {
	return ApiResult[T]{Success: false, Error: msg}
}

// FailRetry builds a failed envelope that tells the caller when a
// retry may succeed.
func FailRetry[T any](msg string, retryAfter *time.Time) ApiResult[T] {
	return ApiResult[T]{Success: false, Error: msg, RetryAfter: retryAfter}
}

// FetchGate is the outcome of a provider's rate-limit pre-check.
type FetchGate struct {
	Allowed    bool
	Reason     string
	RetryAfter *time.Time
}

// AllowGate returns a gate that permits the call.
func AllowGate() FetchGate { return FetchGate{Allowed: true} }

// DenyGate returns a gate that blocks the call.
func DenyGate(reason string, retryAfter *time.Time) FetchGate {
	return FetchGate{Allowed: false, Reason: reason, RetryAfter: retryAfter}
}
