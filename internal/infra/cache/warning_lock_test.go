package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *WarningLock) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewWarningLock(client)
}

func TestWarningLock_SecondAcquireFails(t *testing.T) {
	_, lock := setupTestRedis(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "lead-1", 7*24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx, "lead-1", 7*24*time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = lock.Acquire(ctx, "lead-2", 7*24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWarningLock_ExpiresAfterTTL(t *testing.T) {
	mr, lock := setupTestRedis(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "lead-1", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Hour, mr.TTL(warningLockPrefix+"lead-1"))

	mr.FastForward(time.Hour + time.Second)

	ok, err = lock.Acquire(ctx, "lead-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWarningLock_Release(t *testing.T) {
	mr, lock := setupTestRedis(t)
	ctx := context.Background()

	_, err := lock.Acquire(ctx, "lead-1", time.Hour)
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx, "lead-1"))

	assert.False(t, mr.Exists(warningLockPrefix+"lead-1"))
}

func TestWarningLock_ReportsRedisFailure(t *testing.T) {
	mr, lock := setupTestRedis(t)
	mr.Close()

	_, err := lock.Acquire(context.Background(), "lead-1", time.Hour)

	assert.ErrorContains(t, err, "lead-1")
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	defer client.Close()

	_, err = NewRedisClient(context.Background(), "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
