package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"stridehub-webhook-svc/src/internal/config"
	"stridehub-webhook-svc/src/internal/models"
	"stridehub-webhook-svc/src/internal/queue"
	"stridehub-webhook-svc/src/internal/user"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Service interface {
	GetUser(ctx context.Context, userID string) (*user.User, error)
	SaveUser(ctx context.Context, u *user.User) error
	InvalidateUser(ctx context.Context, userID string) error
	TryAcquireDrainLatch(ctx context.Context) (bool, error)
	ReleaseDrainLatch(ctx context.Context) error
	SaveQueueStats(ctx context.Context, stats *queue.Stats) error
	GetQueueStats(ctx context.Context) (*queue.Stats, error)
}

type cacheService struct {
	client *redis.Client
	cfg    *config.CacheConfig
}

func NewCacheService(client *redis.Client, cfg *config.Configuration) Service {
	return &cacheService{
		client: client,
		cfg:    &cfg.Cache}
}

func userKey(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

func (c *cacheService) GetUser(ctx context.Context, userID string) (*user.User, error) {
	data, err := c.client.Get(ctx, userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Not an error, just not found
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to get user from cache")
		return nil, models.ErrRedisGet
	}

	var u user.User
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to unmarshal user from cache")
		return nil, models.ErrRedisGet
	}

	return &u, nil
}

func (c *cacheService) SaveUser(ctx context.Context, u *user.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		logrus.WithError(err).WithField("user_id", u.ID).Error("Failed to marshal user for cache")
		return models.ErrRedisSet
	}

	expiration := time.Duration(c.cfg.UserExpirationMinutes) * time.Minute
	if err := c.client.Set(ctx, userKey(u.ID), data, expiration).Err(); err != nil {
		logrus.WithError(err).WithField("user_id", u.ID).Error("Failed to cache user")
		return models.ErrRedisSet
	}

	return nil
}

func (c *cacheService) InvalidateUser(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, userKey(userID)).Err(); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to invalidate cached user")
		return models.ErrRedisDelete
	}
	return nil
}

// TryAcquireDrainLatch collapses concurrent opportunistic drain triggers into
// a single sweep. The latch is advisory; the drainer is safe without it.
func (c *cacheService) TryAcquireDrainLatch(ctx context.Context) (bool, error) {
	ttl := time.Duration(c.cfg.DrainLatchSeconds) * time.Second
	acquired, err := c.client.SetNX(ctx, c.cfg.DrainLatchKey, "1", ttl).Result()
	if err != nil {
		logrus.WithError(err).Error("Failed to acquire drain latch")
		return false, models.ErrRedisSet
	}
	return acquired, nil
}

func (c *cacheService) ReleaseDrainLatch(ctx context.Context) error {
	if err := c.client.Del(ctx, c.cfg.DrainLatchKey).Err(); err != nil {
		logrus.WithError(err).Error("Failed to release drain latch")
		return models.ErrRedisDelete
	}
	return nil
}

func (c *cacheService) SaveQueueStats(ctx context.Context, stats *queue.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal queue stats for cache")
		return models.ErrRedisSet
	}
	expiration := time.Duration(c.cfg.StatsExpirationMinutes) * time.Minute
	if err := c.client.Set(ctx, c.cfg.QueueStatsKey, data, expiration).Err(); err != nil {
		logrus.WithError(err).Error("Failed to cache queue stats")
		return models.ErrRedisSet
	}
	return nil
}

func (c *cacheService) GetQueueStats(ctx context.Context) (*queue.Stats, error) {
	data, err := c.client.Get(ctx, c.cfg.QueueStatsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Not an error, just not found
		}
		logrus.WithError(err).Error("Failed to get queue stats from cache")
		return nil, models.ErrRedisGet
	}

	var stats queue.Stats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal queue stats from cache")
		return nil, models.ErrRedisGet
	}

	return &stats, nil
}
