package rest

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/baguette-io/baguette-utils/internal/constants"
)

// CacheEntry is a cached response body.
type CacheEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
	ETag      string    `json:"etag,omitempty"`
}

// Expired reports whether the entry is past its expiry.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Cache stores response bodies.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// CacheKey derives a stable key from a method, a URL and its query. Query
// values are encoded in sorted order.
func CacheKey(method Method, rawURL string, query url.Values) string {
	sum := sha256.Sum256([]byte(method.String() + " " + rawURL + "?" + query.Encode()))

	return hex.EncodeToString(sum[:])
}

// CacheType selects the backend built by NewCacheFromConfig.
type CacheType string

// Cache backends.
const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeNATS   CacheType = "nats"
	CacheTypeNone   CacheType = "none"
)

// ErrUnsupportedCacheType is returned for an unknown CacheType.
var ErrUnsupportedCacheType = fmt.Errorf("%w: unsupported cache type", ErrInvalidConfig)

// CacheConfig describes a response cache. MaxSize applies to the memory
// backend, NATS to the NATS backend.
type CacheConfig struct {
	Type    CacheType
	MaxSize int
	NATS    *NATSKVConfig
}

// DefaultCacheConfig returns a memory cache of the default size.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type:    CacheTypeMemory,
		MaxSize: constants.DefaultCacheSize,
	}
}

// NewCacheFromConfig builds the backend config names. A nil config yields
// the default memory cache.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory, "":
		return NewMemoryCache(config.MaxSize), nil

	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigNeeded
		}

		cache, err := NewNATSKVCache(config.NATS)
		if err != nil {
			return nil, err
		}

		return cache, nil

	case CacheTypeNone:
		return NewNoOpCache(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}

type memoryItem struct {
	key   string
	entry *CacheEntry
}

// MemoryCache is a bounded in-process cache. The least recently used entry
// is evicted when the cache is full.
type MemoryCache struct {
	mu      sync.Mutex
	maxSize int
	order   *list.List
	items   map[string]*list.Element
	now     func() time.Time
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheSize
	}

	return &MemoryCache{
		maxSize: maxSize,
		order:   list.New(),
		items:   make(map[string]*list.Element),
		now:     time.Now,
	}
}

// Get returns a live entry.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	item, _ := elem.Value.(*memoryItem)
	if item.entry.Expired(c.now()) {
		c.removeElement(elem)

		return nil, fmt.Errorf("%w: %s", ErrEntryExpired, key)
	}

	c.order.MoveToFront(elem)

	return item.entry, nil
}

// Set stores an entry, evicting the least recently used one when full.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	if len(entry.Data) > constants.MaxCacheValueSize {
		return fmt.Errorf("%w: %d bytes", ErrValueTooLarge, len(entry.Data))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value = &memoryItem{key: key, entry: entry}
		c.order.MoveToFront(elem)

		return nil
	}

	for c.order.Len() >= c.maxSize {
		c.removeElement(c.order.Back())
	}

	c.items[key] = c.order.PushFront(&memoryItem{key: key, entry: entry})

	return nil
}

// Delete removes an entry.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}

	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)

	return nil
}

// Has checks for a live entry.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

func (c *MemoryCache) removeElement(elem *list.Element) {
	item, _ := c.order.Remove(elem).(*memoryItem)
	delete(c.items, item.key)
}

// NoOpCache never stores anything.
type NoOpCache struct{}

// NewNoOpCache returns a cache that disables caching.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get reports ErrCacheDisabled.
func (*NoOpCache) Get(context.Context, string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

// Set discards entry.
func (*NoOpCache) Set(context.Context, string, *CacheEntry) error { return nil }

// Delete is a no-op.
func (*NoOpCache) Delete(context.Context, string) error { return nil }

// Clear is a no-op.
func (*NoOpCache) Clear(context.Context) error { return nil }

// Has is always false.
func (*NoOpCache) Has(context.Context, string) bool { return false }

// CacheChain layers caches from fastest to slowest, for example a
// MemoryCache in front of a NATSKVCache shared between processes.
type CacheChain struct {
	caches []Cache
}

// NewCacheChain chains caches in lookup order.
func NewCacheChain(caches ...Cache) *CacheChain {
	return &CacheChain{caches: caches}
}

// Get returns the entry from the first layer holding it and copies it into
// the layers in front of that one.
func (c *CacheChain) Get(ctx context.Context, key string) (*CacheEntry, error) {
	for i, cache := range c.caches {
		entry, err := cache.Get(ctx, key)
		if err != nil {
			continue
		}

		for _, front := range c.caches[:i] {
			_ = front.Set(ctx, key, entry)
		}

		return entry, nil
	}

	return nil, fmt.Errorf("%w in any layer: %s", ErrKeyNotFound, key)
}

// Set writes entry to every layer.
func (c *CacheChain) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return c.each(func(cache Cache) error { return cache.Set(ctx, key, entry) })
}

// Delete removes key from every layer.
func (c *CacheChain) Delete(ctx context.Context, key string) error {
	return c.each(func(cache Cache) error { return cache.Delete(ctx, key) })
}

// Clear empties every layer.
func (c *CacheChain) Clear(ctx context.Context) error {
	return c.each(func(cache Cache) error { return cache.Clear(ctx) })
}

// Has reports whether any layer holds a live entry for key.
func (c *CacheChain) Has(ctx context.Context, key string) bool {
	for _, cache := range c.caches {
		if cache.Has(ctx, key) {
			return true
		}
	}

	return false
}

// each applies fn to every layer and joins the failures.
func (c *CacheChain) each(fn func(Cache) error) error {
	var errs []error

	for _, cache := range c.caches {
		if err := fn(cache); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
