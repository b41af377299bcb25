package client

import (
	"context"
	"fmt"
	"time"

	"github.com/baguette-io/baguette-utils/internal/constants"
	"github.com/baguette-io/baguette-utils/internal/http"
	"github.com/baguette-io/baguette-utils/pkg/jsonenc"
	"github.com/baguette-io/baguette-utils/pkg/rest"
)

// Client implements the rest.Client interface.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	logger       rest.Logger
	limit        int
	maxPages     int
	cache        rest.Cache
	cacheTTL     time.Duration
	interceptors *rest.Interceptors
	now          func() time.Time
}

var _ rest.Client = (*Client)(nil)

// validateConfig rejects values no default can repair.
func validateConfig(config *rest.Config) error {
	if config == nil {
		return rest.ErrConfigRequired
	}

	if rest.NormalizeBaseURL(config.BaseURL) == "" {
		return rest.ErrBaseURLRequired
	}

	switch {
	case config.Retries < 0:
		return fmt.Errorf("%w: retries must not be negative", rest.ErrInvalidConfig)
	case config.Backoff < 0:
		return fmt.Errorf("%w: backoff must not be negative", rest.ErrInvalidConfig)
	case config.Limit < 0:
		return fmt.Errorf("%w: limit must be positive", rest.ErrInvalidConfig)
	case config.MaxPages < 0:
		return fmt.Errorf("%w: max pages must be positive", rest.ErrInvalidConfig)
	case config.Timeout < 0:
		return fmt.Errorf("%w: timeout must not be negative", rest.ErrInvalidConfig)
	case config.CacheTTL < 0:
		return fmt.Errorf("%w: cache TTL must not be negative", rest.ErrInvalidConfig)
	}

	return nil
}

// withDefaults returns a copy of config where zero values take the defaults.
func withDefaults(config *rest.Config) *rest.Config {
	defaults := rest.DefaultConfig()
	merged := *config

	merged.BaseURL = rest.NormalizeBaseURL(config.BaseURL)

	if merged.Timeout == 0 {
		merged.Timeout = defaults.Timeout
	}

	if merged.DisableRetries {
		merged.Retries = 0
	} else if merged.Retries == 0 {
		merged.Retries = defaults.Retries
	}

	if merged.DisableBackoff {
		merged.Backoff = 0
	} else if merged.Backoff == 0 {
		merged.Backoff = defaults.Backoff
	}

	if len(merged.RetryStatuses) == 0 {
		merged.RetryStatuses = defaults.RetryStatuses
	}

	if merged.Limit == 0 {
		merged.Limit = defaults.Limit
	}

	if merged.MaxPages == 0 {
		merged.MaxPages = defaults.MaxPages
	}

	if len(merged.Headers) == 0 {
		merged.Headers = defaults.Headers
	}

	if merged.UserAgent == "" {
		merged.UserAgent = defaults.UserAgent
	}

	if merged.CacheTTL == 0 {
		merged.CacheTTL = defaults.CacheTTL
	}

	if merged.Logger == nil {
		merged.Logger = rest.NopLogger{}
	}

	return &merged
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *rest.Config) []http.Option {
	return []http.Option{
		http.WithLogger(config.Logger),
		http.WithDebug(config.Debug),
		http.WithUserAgent(config.UserAgent),
		http.WithTimeout(config.Timeout),
		http.WithRetryConfig(config.Retries, config.Backoff, constants.MaxBackoffWait),
		http.WithRetryStatuses(config.RetryStatuses),
		http.WithDefaultHeaders(config.Headers),
	}
}

// New creates a new client. The transport and its connection pool are built
// once here.
func New(config *rest.Config) (*Client, error) {
	err := validateConfig(config)
	if err != nil {
		return nil, err
	}

	config = withDefaults(config)

	return &Client{
		httpClient:   http.NewClient(config.BaseURL, createHTTPClientOptions(config)...),
		baseURL:      config.BaseURL,
		logger:       config.Logger,
		limit:        config.Limit,
		maxPages:     config.MaxPages,
		cache:        config.Cache,
		cacheTTL:     config.CacheTTL,
		interceptors: rest.NewInterceptors(config),
		now:          time.Now,
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, endpoint string, opts ...rest.RequestOption) *rest.Envelope {
	return c.Request(ctx, rest.MethodGet, endpoint, opts...)
}

// Post serializes data to JSON and sends it.
func (c *Client) Post(ctx context.Context, endpoint string, data any, opts ...rest.RequestOption) *rest.Envelope {
	return c.send(ctx, rest.MethodPost, endpoint, data, opts)
}

// Put serializes data to JSON and sends it.
func (c *Client) Put(ctx context.Context, endpoint string, data any, opts ...rest.RequestOption) *rest.Envelope {
	return c.send(ctx, rest.MethodPut, endpoint, data, opts)
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, endpoint string, opts ...rest.RequestOption) *rest.Envelope {
	return c.Request(ctx, rest.MethodPatch, endpoint, opts...)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string, opts ...rest.RequestOption) *rest.Envelope {
	return c.Request(ctx, rest.MethodDelete, endpoint, opts...)
}

// send encodes data ahead of the caller's options, so an explicit body option
// still wins.
func (c *Client) send(
	ctx context.Context, method rest.Method, endpoint string, data any, opts []rest.RequestOption,
) *rest.Envelope {
	body, err := jsonenc.Marshal(data)
	if err != nil {
		c.logger.Error("Encoding request body failed", map[string]interface{}{
			"method": method.String(),
			"path":   endpoint,
			"error":  err.Error(),
		})

		return rest.Fail(rest.StatusUnknown, rest.KindEncode, err)
	}

	return c.Request(ctx, method, endpoint, append([]rest.RequestOption{rest.WithBody(body)}, opts...)...)
}
