package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common errors returned by the gateway.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrRateLimited is wrapped by errors for requests refused during a
	// provider Retry-After window.
	ErrRateLimited = errors.New("provider rate limit active")
)

// Kind is the normalized failure taxonomy exposed to callers.
type Kind string

const (
	// KindNetwork is a transport failure: DNS, connection, timeout.
	KindNetwork Kind = "network"

	// KindProvider is a non-2xx answer from the provider.
	KindProvider Kind = "provider"

	// KindNotFound is a 404: the requested id has no content.
	KindNotFound Kind = "not_found"
)

// ErrorClass drives retry decisions.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Error is the single error shape returned by the gateway. Callers never
// see provider-specific error bodies.
type Error struct {
	Kind       Kind
	Class      ErrorClass
	StatusCode int // 0 for network errors
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "gateway %s error", e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of a gateway error, or "" for other errors.
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return ""
}

// IsNotFound reports whether err is a provider 404.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// StatusCode returns the HTTP status carried by a gateway error, or 0.
func StatusCode(err error) int {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.StatusCode
	}
	return 0
}

// providerBody is the error document the provider returns with non-2xx codes.
type providerBody struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// normalizeResponse converts a non-2xx response into an *Error.
// This is the only place provider error bodies are interpreted.
func normalizeResponse(statusCode int, body []byte) *Error {
	gwErr := &Error{
		Kind:       KindProvider,
		Class:      classifyStatus(statusCode),
		StatusCode: statusCode,
		Message:    http.StatusText(statusCode),
	}
	if statusCode == http.StatusNotFound {
		gwErr.Kind = KindNotFound
	}
	if statusCode == http.StatusTooManyRequests {
		gwErr.Err = ErrRateLimited
	}

	var pb providerBody
	if len(body) > 0 && json.Unmarshal(body, &pb) == nil && pb.StatusMessage != "" {
		gwErr.Message = pb.StatusMessage
	}
	return gwErr
}

// normalizeTransport converts a transport failure into an *Error.
func normalizeTransport(err error) *Error {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}
	return &Error{
		Kind:  KindNetwork,
		Class: ErrorClassNetwork,
		Err:   err,
	}
}

// classifyStatus categorizes an HTTP status for retry handling.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		// 4xx answers will not change on repeat
		return false
	}
}
