package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/baguette-io/baguette-utils/internal/constants"
)

// NATSKVConfig configures a NATS JetStream key-value cache.
type NATSKVConfig struct {
	// URL of the NATS server. Ignored when Conn is set.
	URL string
	// Conn reuses an existing connection. The cache does not close it.
	Conn *nats.Conn
	// Bucket name, created when missing.
	Bucket string
	// TTL applied by the bucket to every value. Zero keeps values until
	// their CacheEntry expiry is checked on read.
	TTL time.Duration
	// Timeout bounds bucket setup.
	Timeout time.Duration
}

// NATSKVCache stores entries in a JetStream key-value bucket so several
// processes can share cached responses.
type NATSKVCache struct {
	conn  *nats.Conn
	owned bool
	kv    jetstream.KeyValue
}

// NewNATSKVCache connects (unless a connection is supplied) and opens or
// creates the bucket.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil {
		return nil, ErrNATSConfigNeeded
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = constants.ShortHTTPTimeout
	}

	conn, owned := config.Conn, false
	if conn == nil {
		var err error

		conn, err = nats.Connect(config.URL, nats.Timeout(timeout))
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS: %w", err)
		}

		owned = true
	}

	js, err := jetstream.New(conn)
	if err != nil {
		closeOwned(conn, owned)

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    config.TTL,
	})
	if err != nil {
		closeOwned(conn, owned)

		return nil, fmt.Errorf("opening KV bucket %s: %w", bucket, err)
	}

	return &NATSKVCache{conn: conn, owned: owned, kv: kv}, nil
}

func closeOwned(conn *nats.Conn, owned bool) {
	if owned {
		conn.Close()
	}
}

// Get returns a live entry.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	kve, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}

		return nil, fmt.Errorf("reading %s: %w", key, err)
	}

	entry := &CacheEntry{}

	err = json.Unmarshal(kve.Value(), entry)
	if err != nil {
		return nil, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}

	if entry.Expired(time.Now()) {
		_ = c.kv.Delete(ctx, key)

		return nil, fmt.Errorf("%w: %s", ErrEntryExpired, key)
	}

	return entry, nil
}

// Set stores an entry.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	if len(entry.Data) > constants.MaxCacheValueSize {
		return fmt.Errorf("%w: %d bytes", ErrValueTooLarge, len(entry.Data))
	}

	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}

	_, err = c.kv.Put(ctx, key, value)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}

	return nil
}

// Delete removes an entry.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}

	return nil
}

// Clear purges every key of the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	lister, err := c.kv.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("listing keys: %w", err)
	}

	defer func() { _ = lister.Stop() }()

	for key := range lister.Keys() {
		err = c.kv.Purge(ctx, key)
		if err != nil {
			return fmt.Errorf("purging %s: %w", key, err)
		}
	}

	return nil
}

// Has checks for a live entry.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close releases the connection when the cache opened it.
func (c *NATSKVCache) Close() {
	closeOwned(c.conn, c.owned)
}
