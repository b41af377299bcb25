package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/baguette-io/baguette-utils/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired   = errors.New("config is required")
	ErrBaseURLRequired  = errors.New("base URL is required")
	ErrInvalidConfig    = errors.New("invalid config")
	ErrInvalidMethod    = errors.New("invalid HTTP method")
	ErrMalformedPage    = errors.New("malformed page")
	ErrTooManyPages     = errors.New("too many pages")
	ErrCacheDisabled    = errors.New("cache disabled")
	ErrKeyNotFound      = errors.New("key not found")
	ErrEntryExpired     = errors.New("entry expired")
	ErrValueTooLarge    = errors.New("value too large")
	ErrNATSConfigNeeded = errors.New("NATS configuration required for NATS cache")
)

// Client is a REST client bound to a single base URL. Every call returns an
// Envelope; no error or panic escapes a call.
type Client interface {
	// Request issues a call with an explicit method.
	Request(ctx context.Context, method Method, endpoint string, opts ...RequestOption) *Envelope
	Get(ctx context.Context, endpoint string, opts ...RequestOption) *Envelope
	// Post serializes data to JSON before sending it.
	Post(ctx context.Context, endpoint string, data any, opts ...RequestOption) *Envelope
	// Put serializes data to JSON before sending it.
	Put(ctx context.Context, endpoint string, data any, opts ...RequestOption) *Envelope
	Patch(ctx context.Context, endpoint string, opts ...RequestOption) *Envelope
	Delete(ctx context.Context, endpoint string, opts ...RequestOption) *Envelope
	// All walks an offset/limit paginated listing and returns every page's
	// data in a single envelope.
	All(ctx context.Context, endpoint string, opts ...RequestOption) *Envelope
	// BaseURL returns the normalized base URL.
	BaseURL() string
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}

// Method is an HTTP verb supported by the client.
type Method string

// Supported methods.
const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodPatch  Method = http.MethodPatch
	MethodDelete Method = http.MethodDelete
)

// ParseMethod converts a case-insensitive verb name into a Method.
func ParseMethod(name string) (Method, error) {
	method := Method(strings.ToUpper(strings.TrimSpace(name)))
	if !method.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, name)
	}

	return method, nil
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
		return true
	default:
		return false
	}
}

// String returns the verb.
func (m Method) String() string {
	return string(m)
}

// Config represents client configuration for building a rest.Client.
//
// # Defaults
//
// Zero values are replaced by DefaultConfig's values when the client is
// built. Because zero cannot be told apart from "unset", retries are turned
// off with DisableRetries and backoff with DisableBackoff.
//
// # Retries
//
// Calls whose response status is in RetryStatuses are retried up to Retries
// times for idempotent methods, waiting Backoff * 2^n seconds before the n-th
// retry (no wait before the first one). Connection errors are retried for every
// method. When the budget is spent on a retry status, the envelope reports
// status 429.
type Config struct {
	// BaseURL of the API. "https://" is prepended when no scheme is present.
	BaseURL string
	// Timeout bounds each HTTP exchange, not a whole pagination walk.
	Timeout time.Duration
	// Retries is the maximum number of retries after the first attempt.
	Retries int
	// DisableRetries forces zero retries.
	DisableRetries bool
	// Backoff is the exponential backoff factor, in seconds.
	Backoff float64
	// DisableBackoff forces a zero backoff factor.
	DisableBackoff bool
	// RetryStatuses lists the status codes that trigger a retry.
	RetryStatuses []int
	// Limit is the page size requested by All.
	Limit int
	// MaxPages bounds the number of pages All fetches.
	MaxPages int
	// Headers replaces the default request headers when non-empty.
	Headers map[string]string
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Debug enables per-attempt transport logging.
	Debug bool
	// Logger receives call logs. Nil discards them.
	Logger Logger
	// Cache stores successful GET bodies when set.
	Cache Cache
	// CacheTTL is the lifetime of cached bodies.
	CacheTTL time.Duration
	// RequestInterceptors run before every exchange, in order.
	RequestInterceptors []RequestInterceptor
	// ResponseInterceptors run after every exchange, in order.
	ResponseInterceptors []ResponseInterceptor
}

// DefaultConfig returns the default client configuration without a base URL.
func DefaultConfig() *Config {
	return &Config{
		Timeout:       constants.DefaultHTTPTimeout,
		Retries:       constants.DefaultRetryMax,
		Backoff:       constants.DefaultBackoffFactor,
		RetryStatuses: constants.DefaultRetryStatuses(),
		Limit:         constants.DefaultPageLimit,
		MaxPages:      constants.DefaultMaxPages,
		Headers:       DefaultHeaders(),
		UserAgent:     constants.DefaultUserAgent,
		CacheTTL:      constants.DefaultCacheTTL,
	}
}

// DefaultHeaders returns the headers sent with every request unless replaced.
func DefaultHeaders() map[string]string {
	return map[string]string{
		constants.HeaderContentType: constants.ContentTypeJSON,
	}
}

// NormalizeBaseURL trims surrounding space and a trailing slash, and adds
// "https://" when the URL has no http or https scheme.
func NormalizeBaseURL(raw string) string {
	base := strings.TrimSuffix(strings.TrimSpace(raw), "/")
	if base == "" {
		return ""
	}

	lower := strings.ToLower(base)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		base = "https://" + base
	}

	return base
}
