// Package cache provides a Redis-backed cache-aside helper for read-mostly
// catalog data (tags, ingredient searches).
//
// A nil *Cache is valid and disables caching: every lookup goes straight to
// the loader. Redis failures never fail a request; they are logged, counted,
// and the loader result is returned instead. A circuit breaker stops talking
// to Redis after repeated failures and probes it again after a cool-down.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

var lookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "foodgram",
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by result (hit, miss, error).",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(lookups)
}

// Cache wraps a Redis client with a key prefix, a default TTL and a breaker.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	cb     *gobreaker.CircuitBreaker[[]byte]
}

// Options tune a Cache. Zero values fall back to defaults.
type Options struct {
	TTL              time.Duration // default 5m
	Prefix           string        // default "foodgram:"
	FailureThreshold uint32        // consecutive failures before opening; default 5
	OpenTimeout      time.Duration // time spent open before a probe; default 30s
}

// New wraps an existing client.
func New(rdb *redis.Client, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.Prefix == "" {
		opts.Prefix = "foodgram:"
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	threshold := opts.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("cache breaker state change")
		},
	})
	return &Cache{rdb: rdb, ttl: opts.TTL, prefix: opts.Prefix, cb: cb}
}

// Connect parses a redis:// URL (or a bare host:port), pings the server and
// returns a ready Cache.
func Connect(ctx context.Context, url string, opts Options) (*Cache, error) {
	var ro *redis.Options
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, err
		}
		ro = parsed
	} else {
		ro = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(ro)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return New(rdb, opts), nil
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

// Aside returns the cached value for key, or calls load, stores its result
// and returns it. Load errors are returned as-is and never cached.
func Aside[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	full := c.prefix + key

	raw, err := c.cb.Execute(func() ([]byte, error) {
		b, err := c.rdb.Get(ctx, full).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return b, err
	})
	switch {
	case err != nil:
		lookups.WithLabelValues("error").Inc()
		log.Ctx(ctx).Warn().Err(err).Str("key", full).Msg("cache get failed")
	case raw != nil:
		var v T
		if uerr := json.Unmarshal(raw, &v); uerr == nil {
			lookups.WithLabelValues("hit").Inc()
			return v, nil
		}
		lookups.WithLabelValues("error").Inc()
	default:
		lookups.WithLabelValues("miss").Inc()
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	b, merr := json.Marshal(v)
	if merr != nil {
		return v, nil
	}
	_, serr := c.cb.Execute(func() ([]byte, error) {
		return nil, c.rdb.Set(ctx, full, b, c.ttl).Err()
	})
	if serr != nil {
		log.Ctx(ctx).Warn().Err(serr).Str("key", full).Msg("cache set failed")
	}
	return v, nil
}

// Invalidate removes keys. Errors are logged and swallowed.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	_, err := c.cb.Execute(func() ([]byte, error) {
		return nil, c.rdb.Del(ctx, full...).Err()
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Strs("keys", full).Msg("cache invalidate failed")
	}
}
