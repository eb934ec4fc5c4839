// Package cache holds computed group balances between writes.
//
// Entries are keyed by group id and must be invalidated by every write that
// touches the group. Nothing here is authoritative: a miss always falls back
// to recomputation from storage.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// BalanceCache stores one JSON document per group next to a per-group
// version. Invalidate bumps the version, and an entry is only written while
// the version it was computed under is still current, so a result computed
// before a write can never outlive that write's invalidation.
type BalanceCache interface {
	// Get decodes the entry for groupID into dst and reports whether it existed.
	Get(ctx context.Context, groupID int64, dst any) (bool, error)
	// Version returns the current version of groupID.
	Version(ctx context.Context, groupID int64) (int64, error)
	// SetIfVersion stores v for groupID unless the version has moved past
	// version. It reports whether v was stored.
	SetIfVersion(ctx context.Context, groupID int64, version int64, v any) (bool, error)
	// Invalidate bumps the version of groupID and removes its entry.
	Invalidate(ctx context.Context, groupID int64) error
}

// setIfVersion writes KEYS[2] only while KEYS[1] still holds ARGV[1].
// ARGV[3] is the TTL in milliseconds, 0 for none.
var setIfVersion = redis.NewScript(`
local current = redis.call("GET", KEYS[1]) or "0"
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[2], ARGV[2])
end
return 1
`)

// Redis provides Redis-backed caching for group balances. Versions live in
// Redis, so every replica sharing the instance sees every invalidation.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ BalanceCache = (*Redis)(nil)

// NewRedis constructs a balance cache backed by the provided Redis client.
// A zero ttl keeps entries until they are invalidated.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Get fetches a cached entry if it exists.
func (c *Redis) Get(ctx context.Context, groupID int64, dst any) (bool, error) {
	data, err := c.client.Get(ctx, cacheKey(groupID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get cached balances: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode cached balances: %w", err)
	}
	return true, nil
}

// Version reads the group's version; a group never invalidated is at 0.
func (c *Redis) Version(ctx context.Context, groupID int64) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(groupID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get balances version: %w", err)
	}
	return v, nil
}

// SetIfVersion stores the entry for the configured TTL if version is current.
func (c *Redis) SetIfVersion(ctx context.Context, groupID int64, version int64, v any) (bool, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode balances for cache: %w", err)
	}

	keys := []string{versionKey(groupID), cacheKey(groupID)}
	stored, err := setIfVersion.Run(ctx, c.client, keys, version, payload, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("set cached balances: %w", err)
	}
	return stored == 1, nil
}

// Invalidate bumps the version and removes the cached entry in one transaction.
func (c *Redis) Invalidate(ctx context.Context, groupID int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(groupID))
		pipe.Del(ctx, cacheKey(groupID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate cached balances: %w", err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Name identifies the cache in health reports.
func (c *Redis) Name() string {
	return "redis"
}

func cacheKey(groupID int64) string {
	return fmt.Sprintf("splitledger:balances:group:%d", groupID)
}

func versionKey(groupID int64) string {
	return fmt.Sprintf("splitledger:balances:version:%d", groupID)
}

// Nop is a BalanceCache that never stores anything.
type Nop struct{}

var _ BalanceCache = Nop{}

func (Nop) Get(context.Context, int64, any) (bool, error)                 { return false, nil }
func (Nop) Version(context.Context, int64) (int64, error)                 { return 0, nil }
func (Nop) SetIfVersion(context.Context, int64, int64, any) (bool, error) { return false, nil }
func (Nop) Invalidate(context.Context, int64) error                       { return nil }
