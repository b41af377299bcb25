// Package http is the transport used by the client: a pooled net/http client
// wrapped by go-retryablehttp with a status-code driven retry policy and
// exponential backoff.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/baguette-io/baguette-utils/internal/constants"
	"github.com/baguette-io/baguette-utils/pkg/rest"
)

// ErrNoResponse is returned when the transport gives up without any response.
var ErrNoResponse = errors.New("no response")

// Request is a single call to the API.
type Request struct {
	Method string
	// Path is joined to the base URL; a leading slash is ignored.
	Path  string
	Query url.Values
	Body  []byte
	// Headers are added to the client's default headers, or replace them
	// when ReplaceHeaders is set.
	Headers        map[string]string
	ReplaceHeaders bool
}

// Response is a completed exchange.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	URL        string
}

// Client performs HTTP requests against a base URL.
type Client struct {
	baseURL       string
	retryClient   *retryablehttp.Client
	logger        rest.Logger
	debug         bool
	userAgent     string
	headers       map[string]string
	retryStatuses map[int]struct{}
	backoffFactor float64
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger rest.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug enables request/response and per-attempt logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout bounds every single exchange.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.retryClient.HTTPClient.Timeout = timeout
	}
}

// WithRetryConfig sets the retry budget, the backoff factor in seconds and
// the longest wait between two attempts.
func WithRetryConfig(maxRetries int, backoff float64, maxWait time.Duration) Option {
	return func(c *Client) {
		c.retryClient.RetryMax = maxRetries
		c.backoffFactor = backoff

		if maxWait > 0 {
			c.retryClient.RetryWaitMax = maxWait
		}
	}
}

// WithRetryStatuses sets the status codes that trigger a retry.
func WithRetryStatuses(statuses []int) Option {
	return func(c *Client) {
		c.retryStatuses = make(map[int]struct{}, len(statuses))

		for _, status := range statuses {
			c.retryStatuses[status] = struct{}{}
		}
	}
}

// WithDefaultHeaders replaces the headers sent with every request.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = make(map[string]string, len(headers))

		for key, value := range headers {
			c.headers[key] = value
		}
	}
}

// NewClient creates a new HTTP client. The underlying connection pool is
// created here and reused by every call.
func NewClient(baseURL string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = 0
	retryClient.RetryWaitMax = constants.MaxBackoffWait
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	client := &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		retryClient:   retryClient,
		logger:        rest.NopLogger{},
		userAgent:     constants.DefaultUserAgent,
		headers:       rest.DefaultHeaders(),
		backoffFactor: constants.DefaultBackoffFactor,
	}

	WithRetryStatuses(constants.DefaultRetryStatuses())(client)

	for _, opt := range opts {
		opt(client)
	}

	retryClient.CheckRetry = client.checkRetry
	retryClient.Backoff = client.backoff
	retryClient.ErrorHandler = client.errorHandler
	retryClient.RequestLogHook = client.logAttempt

	if client.debug {
		retryClient.Logger = &leveledLogger{logger: client.logger}
	}

	return client
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-exchange timeout.
func (c *Client) Timeout() time.Duration {
	return c.retryClient.HTTPClient.Timeout
}

// RetryMax returns the retry budget.
func (c *Client) RetryMax() int {
	return c.retryClient.RetryMax
}

// URL resolves path and query against the base URL.
func (c *Client) URL(path string, query url.Values) (string, error) {
	fullURL := c.baseURL + "/" + strings.TrimPrefix(path, "/")

	parsed, err := url.Parse(fullURL)
	if err != nil {
		return "", fmt.Errorf("parsing URL %s: %w", fullURL, err)
	}

	if len(query) > 0 {
		values := parsed.Query()

		for key, vals := range query {
			values[key] = append([]string(nil), vals...)
		}

		parsed.RawQuery = values.Encode()
	}

	return parsed.String(), nil
}

// Do executes a request. A non-2xx response is returned together with a
// *rest.HTTPError; spent retries on a retry status yield a
// *rest.RetryExhaustedError and no response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL, err := c.URL(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	var body interface{}
	if len(req.Body) > 0 {
		body = req.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	c.applyHeaders(httpReq.Header, req)

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":  req.Method,
			"url":     fullURL,
			"headers": httpReq.Header,
		})
	}

	httpResp, err := c.retryClient.Do(httpReq)
	if err != nil {
		return nil, err
	}

	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
		URL:        fullURL,
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      req.Method,
			"url":         fullURL,
			"status_code": resp.StatusCode,
			"bytes":       len(data),
		})
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp, &rest.HTTPError{
			StatusCode: resp.StatusCode,
			Method:     req.Method,
			URL:        fullURL,
			Body:       Excerpt(data),
		}
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body []byte) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body []byte) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body []byte) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) applyHeaders(header http.Header, req *Request) {
	if !req.ReplaceHeaders {
		for key, value := range c.headers {
			header.Set(key, value)
		}
	}

	for key, value := range req.Headers {
		header.Set(key, value)
	}

	if header.Get(constants.HeaderUserAgent) == "" && c.userAgent != "" {
		header.Set(constants.HeaderUserAgent, c.userAgent)
	}
}

// Excerpt shortens a body for errors and logs.
func Excerpt(body []byte) string {
	if len(body) > constants.MaxLoggedBodyBytes {
		cut := constants.MaxLoggedBodyBytes
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}

		return string(body[:cut]) + "..."
	}

	return string(body)
}
