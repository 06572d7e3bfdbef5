// Package rendercache caches compiled diagram definitions in Redis.
//
// Compilation is pure and cheap for a single process, but the diagram
// endpoint is read-heavy; the cache spares recompiling (and re-fetching the
// directory) for unchanged processes. Keys embed the process revision, so a
// save naturally invalidates all cached variants of the old revision and
// stale entries age out through the TTL.
package rendercache

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/orgflowhq/orgflow/pkg/diagram"
	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "orgflow:diagram:"

// Cache stores compiled definitions keyed by process revision and options.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a cache over the Redis instance at redisURL.
func New(redisURL string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &Cache{
		client: redis.NewClient(opts),
		ttl:    ttl,
		logger: logger.With("module", "rendercache"),
	}, nil
}

// Key derives the cache key for one process revision and option set.
func Key(processID string, updatedAt time.Time, opts diagram.Options) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%t|%t|%t|%t",
		processID, updatedAt.UnixNano(),
		opts.GroupByDepartment, opts.ShowDepartments, opts.ShowRoles, opts.Colors)

	return fmt.Sprintf("%s%x", keyPrefix, h.Sum64())
}

// Get returns the cached definition, or "" on a miss. Redis failures are
// logged and reported as misses; the caller recompiles.
func (c *Cache) Get(ctx context.Context, key string) string {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "cache read failed", "error", err)
		}

		return ""
	}

	return value
}

// Set stores a compiled definition.
func (c *Cache) Set(ctx context.Context, key, definition string) {
	if err := c.client.Set(ctx, key, definition, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", "error", err)
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
