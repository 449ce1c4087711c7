package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const warningLockPrefix = "leads:deadline-warning:"

// WarningLock marks a lead as warned for the hold window so that several
// scanner replicas never dispatch the same warning twice.
type WarningLock struct {
	client *redis.Client
}

func NewWarningLock(client *redis.Client) *WarningLock {
	return &WarningLock{client: client}
}

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// Acquire returns false when another replica already holds the lead.
func (l *WarningLock) Acquire(ctx context.Context, leadID string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, warningLockPrefix+leadID, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire warning lock %s: %w", leadID, err)
	}
	return ok, nil
}

func (l *WarningLock) Release(ctx context.Context, leadID string) error {
	if err := l.client.Del(ctx, warningLockPrefix+leadID).Err(); err != nil {
		return fmt.Errorf("release warning lock %s: %w", leadID, err)
	}
	return nil
}
