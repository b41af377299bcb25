package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"
)

// Request is the outgoing call as seen by interceptors. Changes made by a
// RequestInterceptor to Query, Headers or Body are sent.
type Request struct {
	Method Method
	// Path is the endpoint without its leading slash; URL is base + "/" + Path.
	Path     string
	URL      string
	Query    url.Values
	Headers  http.Header
	Body     []byte
	Metadata map[string]interface{}
}

// Response is the outcome of one exchange, including its retries. StatusCode
// is zero when no response was received.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

// RequestInterceptor runs before an exchange. An error cancels the call.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor runs after an exchange. Errors are reported to the
// client logger and do not change the call outcome.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error

// Interceptors holds the hooks configured on a client.
type Interceptors struct {
	before []RequestInterceptor
	after  []ResponseInterceptor
}

// NewInterceptors collects the non-nil interceptors of config, in order.
func NewInterceptors(config *Config) *Interceptors {
	chain := &Interceptors{}

	for _, interceptor := range config.RequestInterceptors {
		if interceptor != nil {
			chain.before = append(chain.before, interceptor)
		}
	}

	for _, interceptor := range config.ResponseInterceptors {
		if interceptor != nil {
			chain.after = append(chain.after, interceptor)
		}
	}

	return chain
}

// Before runs the request interceptors and stops at the first failure.
func (c *Interceptors) Before(ctx context.Context, req *Request) error {
	for i, interceptor := range c.before {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor %d: %w", i, err)
		}
	}

	return nil
}

// After runs every response interceptor and joins their failures.
func (c *Interceptors) After(ctx context.Context, req *Request, resp *Response) error {
	var errs []error

	for i, interceptor := range c.after {
		err := interceptor(ctx, req, resp)
		if err != nil {
			errs = append(errs, fmt.Errorf("response interceptor %d: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// LoggingInterceptor logs each outgoing exchange at debug level.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(_ context.Context, req *Request) error {
		logger.Debug("Sending request", map[string]interface{}{
			"method": req.Method.String(),
			"url":    req.URL,
			"query":  req.Query.Encode(),
		})

		return nil
	}
}

// LoggingResponseInterceptor logs each completed exchange, at warn level when
// it failed.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(_ context.Context, req *Request, resp *Response) error {
		fields := map[string]interface{}{
			"method":      req.Method.String(),
			"url":         req.URL,
			"status_code": resp.StatusCode,
			"bytes":       len(resp.Body),
		}

		if resp.Error != nil {
			fields["error"] = resp.Error.Error()
			logger.Warn("Request failed", fields)

			return nil
		}

		logger.Debug("Received response", fields)

		return nil
	}
}

// HeaderInterceptor sets fixed headers on every request, overriding headers
// of the same name.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(_ context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = make(http.Header, len(headers))
		}

		for key, value := range headers {
			req.Headers.Set(key, value)
		}

		return nil
	}
}

// RateLimitInterceptor spaces requests to requestsPerSecond, allowing bursts
// of burst requests. It blocks until a token is available or ctx is done. A
// non-positive rate disables limiting.
func RateLimitInterceptor(requestsPerSecond float64, burst int) RequestInterceptor {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	limiter := rate.NewLimiter(limit, max(burst, 1))

	return func(ctx context.Context, _ *Request) error {
		err := limiter.Wait(ctx)
		if err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}

		return nil
	}
}
