package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lifeimang/dfresh/pkg/config"
	"github.com/lifeimang/dfresh/pkg/logger"
)

const (
	keyNamespace = "df"
	cartPrefix   = "cart"
)

// Nil is re-exported so callers can test for missing keys without importing go-redis.
const Nil = redis.Nil

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	HGet(context.Context, string, string) *redis.StringCmd
	HSet(context.Context, string, ...any) *redis.IntCmd
	HDel(context.Context, string, ...string) *redis.IntCmd
	HGetAll(context.Context, string) *redis.MapStringStringCmd
	HLen(context.Context, string) *redis.IntCmd
	redis.Scripter
}

// hIncrCeil merges a positive delta into a hash field without exceeding the
// ceiling. Returns {1, merged} when the write happened, {0, merged} when the
// merged value would cross the ceiling. The read and the write run inside one
// script invocation, so concurrent adds for the same field cannot lose
// increments.
var hIncrCeil = redis.NewScript(`
local merged = tonumber(ARGV[2])
local current = redis.call('HGET', KEYS[1], ARGV[1])
if current then
  merged = merged + tonumber(current)
end
if merged > tonumber(ARGV[3]) then
  return {0, merged}
end
redis.call('HSET', KEYS[1], ARGV[1], merged)
return {1, merged}
`)

// hSetCeil writes an absolute value into a hash field unless it exceeds the
// ceiling. Same {ok, value} reply convention as hIncrCeil.
var hSetCeil = redis.NewScript(`
local value = tonumber(ARGV[2])
if value > tonumber(ARGV[3]) then
  return {0, value}
end
redis.call('HSET', KEYS[1], ARGV[1], value)
return {1, value}
`)

// Client wraps the redis connection helpers needed by the storefront.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// New bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Set stores a string value with an optional TTL.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Set(ctx, key, value, ttl).Err()
}

// Get returns a string value stored at key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.store == nil {
		return "", errors.New("redis client not initialized")
	}
	return c.store.Get(ctx, key).Result()
}

// Del removes the provided keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Del(ctx, keys...).Err()
}

// Expire refreshes the TTL on a key. A non-positive TTL is a no-op.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	if ttl <= 0 {
		return nil
	}
	return c.store.Expire(ctx, key, ttl).Err()
}

// HashGet returns the value of one hash field. Missing fields surface redis.Nil.
func (c *Client) HashGet(ctx context.Context, key, field string) (string, error) {
	if c.store == nil {
		return "", errors.New("redis client not initialized")
	}
	return c.store.HGet(ctx, key, field).Result()
}

// HashSet writes one hash field.
func (c *Client) HashSet(ctx context.Context, key, field string, value any) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.HSet(ctx, key, field, value).Err()
}

// HashDel removes hash fields; removing an absent field is not an error.
func (c *Client) HashDel(ctx context.Context, key string, fields ...string) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.HDel(ctx, key, fields...).Err()
}

// HashGetAll returns every field of a hash; an absent key yields an empty map.
func (c *Client) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	if c.store == nil {
		return nil, errors.New("redis client not initialized")
	}
	return c.store.HGetAll(ctx, key).Result()
}

// HashLen returns the number of fields in a hash.
func (c *Client) HashLen(ctx context.Context, key string) (int64, error) {
	if c.store == nil {
		return 0, errors.New("redis client not initialized")
	}
	return c.store.HLen(ctx, key).Result()
}

// IncrFieldWithCeiling atomically merges delta into a hash field, refusing the
// write when the merged value would exceed ceiling. Returns the merged value
// and whether the write was applied.
func (c *Client) IncrFieldWithCeiling(ctx context.Context, key, field string, delta, ceiling int64) (int64, bool, error) {
	if c.store == nil {
		return 0, false, errors.New("redis client not initialized")
	}
	return runCeilScript(ctx, hIncrCeil, c.store, key, field, delta, ceiling)
}

// SetFieldWithCeiling atomically writes an absolute hash field value, refusing
// the write when it exceeds ceiling.
func (c *Client) SetFieldWithCeiling(ctx context.Context, key, field string, value, ceiling int64) (int64, bool, error) {
	if c.store == nil {
		return 0, false, errors.New("redis client not initialized")
	}
	return runCeilScript(ctx, hSetCeil, c.store, key, field, value, ceiling)
}

func runCeilScript(ctx context.Context, script *redis.Script, store redis.Scripter, key, field string, amount, ceiling int64) (int64, bool, error) {
	reply, err := script.Run(ctx, store, []string{key}, field, amount, ceiling).Slice()
	if err != nil {
		return 0, false, err
	}
	if len(reply) != 2 {
		return 0, false, fmt.Errorf("unexpected script reply length %d", len(reply))
	}
	ok, okErr := toInt64(reply[0])
	value, valueErr := toInt64(reply[1])
	if okErr != nil || valueErr != nil {
		return 0, false, fmt.Errorf("unexpected script reply %v", reply)
	}
	return value, ok == 1, nil
}

func toInt64(v any) (int64, error) {
	switch typed := v.(type) {
	case int64:
		return typed, nil
	case int:
		return int64(typed), nil
	default:
		return 0, fmt.Errorf("not an integer: %T", v)
	}
}

// CartKey returns the namespaced key holding a user's cart hash.
func (c *Client) CartKey(userID string) string {
	return c.buildKey(cartPrefix, userID)
}

// Ping verifies the connection.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) buildKey(parts ...string) string {
	if len(parts) == 0 {
		return keyNamespace
	}
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part == "" {
			continue
		}
		clean = append(clean, strings.TrimSpace(part))
	}
	return strings.Join(clean, ":")
}
