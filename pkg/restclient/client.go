package restclient

import (
	"fmt"

	"github.com/baguette-io/baguette-utils/internal/client"
	"github.com/baguette-io/baguette-utils/pkg/rest"
)

// New creates a REST client from config. The config is copied, so later
// changes to it do not affect the client.
func New(config *rest.Config) (rest.Client, error) {
	c, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithBaseURL creates a client with default settings.
func NewWithBaseURL(baseURL string) (rest.Client, error) {
	return New(&rest.Config{BaseURL: baseURL})
}

// NewWithCache creates a client whose GET responses are cached in the backend
// described by cacheConfig.
func NewWithCache(config *rest.Config, cacheConfig *rest.CacheConfig) (rest.Client, error) {
	if config == nil {
		return nil, rest.ErrConfigRequired
	}

	cache, err := rest.NewCacheFromConfig(cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	withCache := *config
	withCache.Cache = cache

	return New(&withCache)
}
