package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for a single HTTP exchange.
	DefaultHTTPTimeout = 60 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry policy.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 5

	// DefaultBackoffFactor seeds the exponential backoff, in seconds.
	DefaultBackoffFactor = 0.1

	// MaxBackoffWait caps the wait between two attempts.
	MaxBackoffWait = 120 * time.Second
)

// DefaultRetryStatuses returns the status codes that trigger a retry when
// none are configured.
func DefaultRetryStatuses() []int {
	return []int{500, 502, 503, 504}
}

// Pagination.
const (
	// DefaultPageLimit is the number of items requested per page.
	DefaultPageLimit = 100

	// DefaultMaxPages bounds the number of pages fetched by a single listing.
	DefaultMaxPages = 1000

	// OffsetParam is the query parameter carrying the pagination offset.
	OffsetParam = "offset"

	// LimitParam is the query parameter carrying the page size.
	LimitParam = "limit"
)

// Headers.
const (
	// HeaderContentType is the content type header name.
	HeaderContentType = "Content-Type"

	// ContentTypeJSON is the default content type of every request.
	ContentTypeJSON = "application/json"

	// HeaderUserAgent is the user agent header name.
	HeaderUserAgent = "User-Agent"

	// HeaderRetryAfter is the header a server uses to ask for a delay.
	HeaderRetryAfter = "Retry-After"

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "baguette-utils/1.0"
)

// Caching.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute

	// MaxCacheValueSize is the maximum size for cached values (1MB).
	MaxCacheValueSize = 1024 * 1024

	// DefaultNATSBucket is the KV bucket used when none is configured.
	DefaultNATSBucket = "baguette-responses"
)

// Logging.
const (
	// MaxLoggedBodyBytes caps the response body excerpt kept in errors and logs.
	MaxLoggedBodyBytes = 512
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)
