package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultRetryInterval = 50 * time.Millisecond

// releaseScript deletes the key only while it still holds our token, so a
// holder whose TTL expired cannot delete the next holder's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a Locker backed by Redis SET NX, for deployments running more than
// one instance of the service against the same database. The TTL bounds how
// long a crashed holder can keep the key.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	redisKey := fmt.Sprintf("lock:%s", key)
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return func() {
				releaseScript.Run(context.Background(), r.client, []string{redisKey}, token)
			}, nil
		}

		select {
		case <-time.After(defaultRetryInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
