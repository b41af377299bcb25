package rest

import (
	"errors"
	"fmt"
)

// ErrCallFailed is returned by Envelope.Error when a failure carries no cause.
var ErrCallFailed = errors.New("call failed")

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Method     string
	URL        string
	// Body is an excerpt of the response body.
	Body string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}

	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// RetryExhaustedError reports that every attempt ended on a retry status.
type RetryExhaustedError struct {
	Method     string
	URL        string
	Attempts   int
	StatusCode int
}

// Error implements the error interface.
func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%s %s giving up after %d attempt(s), last status %d",
		e.Method, e.URL, e.Attempts, e.StatusCode)
}

// DecodeError reports a 2xx response whose body is not valid JSON.
type DecodeError struct {
	URL string
	// Body is an excerpt of the response body.
	Body string
	Err  error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding response from %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsRetryExhausted checks if the error reports spent retries.
func IsRetryExhausted(err error) bool {
	target := &RetryExhaustedError{}

	return errors.As(err, &target)
}

// IsHTTPStatus checks if the error is an HTTPError with the given status code.
func IsHTTPStatus(err error, code int) bool {
	target := &HTTPError{}
	if errors.As(err, &target) {
		return target.StatusCode == code
	}

	return false
}
