// Package cache stores list query results in Redis. Each scope (users,
// courses, reports, tickets) has a generation counter that is part of every
// key; a mutation bumps the generation, which orphans all cached pages of
// that scope at once. A result computed before a bump is written under the
// old generation and can never be read back.
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
)

const keyPrefix = "lms:q:"

type QueryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a cache on client. A nil client yields a cache that never hits.
func New(client *redis.Client, ttl time.Duration) *QueryCache {
	return &QueryCache{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *QueryCache) enabled() bool { return c != nil && c.client != nil }

func genKey(scope string) string { return keyPrefix + scope + ":gen" }

func entryKey(scope string, gen int64, key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s%s:%d:%s", keyPrefix, scope, gen, hex.EncodeToString(sum[:16]))
}

// Generation returns the current generation of scope.
func (c *QueryCache) Generation(ctx context.Context, scope string) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	gen, err := c.client.Get(ctx, genKey(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get decodes the cached value for key into dest. It also returns the
// generation it looked under, which callers pass back to Set.
func (c *QueryCache) Get(ctx context.Context, scope, key string, dest interface{}) (int64, bool) {
	if !c.enabled() {
		return 0, false
	}
	gen, err := c.Generation(ctx, scope)
	if err != nil {
		slog.Warn("query cache generation read failed", "scope", scope, "error", err)
		return 0, false
	}
	raw, err := c.client.Get(ctx, entryKey(scope, gen, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("query cache read failed", "scope", scope, "error", err)
		}
		return gen, false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		slog.Warn("query cache decode failed", "scope", scope, "error", err)
		return gen, false
	}
	return gen, true
}

// Set stores value under the generation observed by Get.
func (c *QueryCache) Set(ctx context.Context, scope string, gen int64, key string, value interface{}) {
	if !c.enabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("query cache encode failed", "scope", scope, "error", err)
		return
	}
	if err := c.client.Set(ctx, entryKey(scope, gen, key), raw, c.ttl).Err(); err != nil {
		slog.Warn("query cache write failed", "scope", scope, "error", err)
	}
}

// Invalidate bumps the generation of each scope.
func (c *QueryCache) Invalidate(ctx context.Context, scopes ...string) {
	if !c.enabled() {
		return
	}
	pipe := c.client.TxPipeline()
	for _, scope := range scopes {
		pipe.Incr(ctx, genKey(scope))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("query cache invalidation failed", "scopes", scopes, "error", err)
	}
}

// Ping reports cache health; a disabled cache is healthy.
func (c *QueryCache) Ping(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}
