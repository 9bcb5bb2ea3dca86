// Package cache keeps successful extraction results in Redis, keyed by the
// sha256 of the PDF bytes.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/invoice-autofill/internal/pipeline"
)

const keyPrefix = "invoice:result:"

// DefaultTTL applies when the configured TTL is not positive.
const DefaultTTL = 24 * time.Hour

// store is the subset of redis.Cmdable the cache uses.
type store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

type ResultCache struct {
	client store
	ttl    time.Duration
	logger *slog.Logger
}

// NewClient builds the redis client shared by the cache and health checks.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewResultCache(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *ResultCache {
	return newResultCache(client, ttl, logger)
}

func newResultCache(client store, ttl time.Duration, logger *slog.Logger) *ResultCache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{client: client, ttl: ttl, logger: logger}
}

// ContentHash is the lowercase hex sha256 of the document bytes.
func ContentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Key returns the redis key for a content hash.
func Key(hash string) string {
	return keyPrefix + hash
}

// Get returns the cached result for hash. A miss is (zero, false, nil).
func (c *ResultCache) Get(ctx context.Context, hash string) (pipeline.ExtractionResult, bool, error) {
	if c == nil || c.client == nil {
		return pipeline.ExtractionResult{}, false, nil
	}
	val, err := c.client.Get(ctx, Key(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return pipeline.ExtractionResult{}, false, nil
	}
	if err != nil {
		return pipeline.ExtractionResult{}, false, fmt.Errorf("cache get %s: %w", hash, err)
	}
	var res pipeline.ExtractionResult
	if err := json.Unmarshal(val, &res); err != nil {
		c.logger.Warn("cache.decode_failed", "hash", hash, "err", err)
		return pipeline.ExtractionResult{}, false, nil
	}
	return res, true, nil
}

// Put stores res under hash. Failed results are not cached.
func (c *ResultCache) Put(ctx context.Context, hash string, res pipeline.ExtractionResult) error {
	if c == nil || c.client == nil || !res.OK || res.Data == nil {
		return nil
	}
	// Diagnostics belong to the request that produced them.
	res.Debug = nil
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := c.client.Set(ctx, Key(hash), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", hash, err)
	}
	return nil
}

// Ping backs the readiness check.
func (c *ResultCache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}
