package llm

import (
	"errors"
	"fmt"
	"time"
)

// Error codes carried by client errors for machine-readable classification.
const (
	CodeTimeout    = "LLM_TIMEOUT"
	CodeConnection = "LLM_CONNECTION_ERROR"
	CodeResponse   = "LLM_RESPONSE_ERROR"
	CodeJSONParse  = "JSON_PARSE_ERROR"
)

// TimeoutError means the generation endpoint did not answer in time.
// Transient: subject to the retry schedule.
type TimeoutError struct {
	Timeout time.Duration
	Attempt int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("llm request timed out after %s (attempt %d)", e.Timeout, e.Attempt)
}

// Code returns the machine-readable error code.
func (e *TimeoutError) Code() string { return CodeTimeout }

// ConnectionError means the generation endpoint could not be reached.
// Transient: subject to the retry schedule.
type ConnectionError struct {
	URL    string
	Reason error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to llm service at %s: %v", e.URL, e.Reason)
}

func (e *ConnectionError) Unwrap() error { return e.Reason }

// Code returns the machine-readable error code.
func (e *ConnectionError) Code() string { return CodeConnection }

// ResponseError means the endpoint answered but the response is unusable
// (HTTP error status or empty payload). Not retried.
type ResponseError struct {
	Message string
	Snippet string
}

func (e *ResponseError) Error() string { return e.Message }

// Code returns the machine-readable error code.
func (e *ResponseError) Code() string { return CodeResponse }

// ParseError means a JSON decode failed, at either the HTTP body layer or the
// model's text output layer. Not retried.
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse JSON from llm response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Code returns the machine-readable error code.
func (e *ParseError) Code() string { return CodeJSONParse }

// IsTransient reports whether err is worth retrying (timeout or connection
// failure). Response and parse failures are terminal.
func IsTransient(err error) bool {
	var te *TimeoutError
	var ce *ConnectionError
	return errors.As(err, &te) || errors.As(err, &ce)
}
