package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// Redis wraps the go-redis client and the idempotency key helpers built on it.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

func idempotencyKey(userID, token string) string {
	return fmt.Sprintf("helpdesk:ticket:new:%s:%s", userID, token)
}

// AcquireSubmitLock takes the double-submit lock for a ticket creation.
// Returns false when the same (user, token) pair already holds it. A missing
// Redis connection degrades to always acquiring: the lock is advisory.
func (r *Redis) AcquireSubmitLock(ctx context.Context, userID, token string, ttl time.Duration) (bool, error) {
	if r == nil || r.Client == nil {
		return true, nil
	}
	return r.Client.SetNX(ctx, idempotencyKey(userID, token), "LOCK", ttl).Result()
}

// ReleaseSubmitLock frees the lock so the user can resubmit after a
// validation failure.
func (r *Redis) ReleaseSubmitLock(ctx context.Context, userID, token string) {
	if r == nil || r.Client == nil {
		return
	}
	_ = r.Client.Del(ctx, idempotencyKey(userID, token)).Err()
}

// MarkSubmitDone replaces the lock with a completion marker kept a while
// longer, so late duplicates still bounce.
func (r *Redis) MarkSubmitDone(ctx context.Context, userID, token, ticketID string) {
	if r == nil || r.Client == nil {
		return
	}
	_ = r.Client.Set(ctx, idempotencyKey(userID, token), "DONE:"+ticketID, 5*time.Minute).Err()
}
