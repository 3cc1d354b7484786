package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// release deletes the key only while it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// MinTTL is the shortest expiry a Redis lock is taken with.
const MinTTL = time.Minute

type redisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisLocker returns a Locker shared by every instance using the same
// Redis. The ttl bounds how long a crashed holder can block others and is
// raised to MinTTL when shorter, since a zero expiry never releases.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) Locker {
	return &redisLocker{client: client, ttl: max(ttl, MinTTL)}
}

func (l *redisLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	lockKey := "square:lock:" + key
	token := uuid.NewString()

	set, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis SETNX error: %w", err)
	}
	if !set {
		return nil, false, nil
	}

	return func() {
		// the caller's context may be done by now
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		release.Run(releaseCtx, l.client, []string{lockKey}, token)
	}, true, nil
}
