package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis caches conversation state and throttles inbound updates. All
// methods are nil-safe so the bot runs without a cache when REDIS_ADDR is
// unset.
type Redis struct {
	client *redis.Client
}

func NewRedis(addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Close() error {
	if r == nil {
		return nil
	}
	return r.client.Close()
}

func (r *Redis) SetState(ctx context.Context, userID int64, state string, ttl time.Duration) error {
	if r == nil {
		return nil
	}
	return r.client.Set(ctx, stateKey(userID), state, ttl).Err()
}

// GetState returns ("", nil) on a cache miss.
func (r *Redis) GetState(ctx context.Context, userID int64) (string, error) {
	if r == nil {
		return "", nil
	}
	val, err := r.client.Get(ctx, stateKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (r *Redis) DeleteState(ctx context.Context, userID int64) error {
	if r == nil {
		return nil
	}
	return r.client.Del(ctx, stateKey(userID)).Err()
}

func stateKey(userID int64) string {
	return fmt.Sprintf("user:%d:state", userID)
}

// Allow reports whether the user is still within the inbound rate limit
// for the current window. Without redis every update is allowed.
func (r *Redis) Allow(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r == nil {
		return true, nil
	}
	key := fmt.Sprintf("rate:%d", userID)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		r.client.Expire(ctx, key, window)
	}
	return count <= int64(limit), nil
}
