package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"square-payment-gateway/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const keyPrefix = "square:credentials:"

type redisCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) CredentialsCache {
	settings := gobreaker.Settings{
		Name:        "redis-credentials-cache",
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= 3 },
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &redisCache{
		client:  client,
		ttl:     ttl,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

func storeKey(storeID int) string {
	return fmt.Sprintf("%s%d", keyPrefix, storeID)
}

func (c *redisCache) Get(ctx context.Context, storeID int) (*model.MerchantCredentials, bool) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		b, err := c.client.Get(ctx, storeKey(storeID)).Bytes()
		if errors.Is(err, redis.Nil) {
			// a miss is not a fault
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		c.logger.Debug("credentials cache get failed", zap.Int("store_id", storeID), zap.Error(err))
		return nil, false
	}
	b, _ := res.([]byte)
	if b == nil {
		return nil, false
	}

	var creds model.MerchantCredentials
	if err := json.Unmarshal(b, &creds); err != nil {
		c.logger.Warn("credentials cache entry unreadable", zap.Int("store_id", storeID), zap.Error(err))
		return nil, false
	}
	return &creds, true
}

func (c *redisCache) Set(ctx context.Context, storeID int, creds *model.MerchantCredentials) {
	b, err := json.Marshal(creds)
	if err != nil {
		return
	}
	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, storeKey(storeID), b, c.ttl).Err()
	})
	if err != nil {
		c.logger.Debug("credentials cache set failed", zap.Int("store_id", storeID), zap.Error(err))
	}
}

func (c *redisCache) Invalidate(ctx context.Context, storeID int) {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Del(ctx, storeKey(storeID)).Err()
	})
	if err != nil {
		c.logger.Warn("credentials cache invalidate failed", zap.Int("store_id", storeID), zap.Error(err))
	}
}

// InvalidateAll drops every cached store, used after a global settings write.
func (c *redisCache) InvalidateAll(ctx context.Context) {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, nil
		}
		return nil, c.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		c.logger.Warn("credentials cache invalidate all failed", zap.Error(err))
	}
}
