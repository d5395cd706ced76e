package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares the cooldown between several service instances. A key is
// written with SET NX and expires on its own once the cooldown has passed.
type Redis struct {
	client   *redis.Client
	cooldown time.Duration
}

func NewRedis(client *redis.Client, cooldown time.Duration) *Redis {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Redis{client: client, cooldown: cooldown}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := "donation:cooldown:" + key

	ok, err := r.client.SetNX(ctx, k, time.Now().UnixMilli(), r.cooldown).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to record submission: %w", err)
	}
	if ok {
		return true, 0, nil
	}

	ttl, err := r.client.PTTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to read cooldown: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return false, ttl, nil
}
