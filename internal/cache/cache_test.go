package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	UserID int64 `json:"user_id"`
	Net    int64 `json:"net"`
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedis_SetGetInvalidate(t *testing.T) {
	_, client := setupTestRedis(t)
	c := NewRedis(client, time.Minute)
	ctx := context.Background()

	var got []entry
	ok, err := c.Get(ctx, 1, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	want := []entry{{UserID: 1, Net: -500}, {UserID: 2, Net: 500}}
	version, err := c.Version(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, version)
	stored, err := c.SetIfVersion(ctx, 1, version, want)
	require.NoError(t, err)
	assert.True(t, stored)

	ok, err = c.Get(ctx, 1, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	// Other groups are unaffected.
	ok, err = c.Get(ctx, 2, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Invalidate(ctx, 1))
	ok, err = c.Get(ctx, 1, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	version, err = c.Version(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestRedis_SetIfVersionAfterInvalidate(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	// Two replicas sharing one Redis.
	reader := NewRedis(client, time.Minute)
	writer := NewRedis(client, time.Minute)

	version, err := reader.Version(ctx, 5)
	require.NoError(t, err)

	require.NoError(t, writer.Invalidate(ctx, 5))

	stored, err := reader.SetIfVersion(ctx, 5, version, []entry{{UserID: 1, Net: 100}})
	require.NoError(t, err)
	assert.False(t, stored)

	var got []entry
	ok, err := reader.Get(ctx, 5, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	current, err := reader.Version(ctx, 5)
	require.NoError(t, err)
	stored, err = reader.SetIfVersion(ctx, 5, current, []entry{{UserID: 1, Net: 200}})
	require.NoError(t, err)
	assert.True(t, stored)

	ok, err = writer.Get(ctx, 5, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []entry{{UserID: 1, Net: 200}}, got)
}

func TestRedis_Expires(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewRedis(client, time.Minute)
	ctx := context.Background()

	stored, err := c.SetIfVersion(ctx, 7, 0, []entry{{UserID: 1}})
	require.NoError(t, err)
	require.True(t, stored)
	assert.Equal(t, time.Minute, mr.TTL(cacheKey(7)))
	assert.Zero(t, mr.TTL(versionKey(7)))

	mr.FastForward(2 * time.Minute)
	var got []entry
	ok, err := c.Get(ctx, 7, &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_CorruptEntry(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewRedis(client, 0)

	require.NoError(t, mr.Set(cacheKey(3), "not json"))
	var got []entry
	ok, err := c.Get(context.Background(), 3, &got)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedis_Ping(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewRedis(client, 0)

	assert.NoError(t, c.Ping(context.Background()))
	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}

func TestNop(t *testing.T) {
	var c BalanceCache = Nop{}
	ctx := context.Background()

	stored, err := c.SetIfVersion(ctx, 1, 0, []entry{{UserID: 1}})
	require.NoError(t, err)
	assert.False(t, stored)
	var got []entry
	ok, err := c.Get(ctx, 1, &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx, 1))
}
