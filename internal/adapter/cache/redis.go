package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still holds our token, so a
// lock that expired and was taken by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is a ports.RunLock shared by every instance using the same Redis.
type RedisLock struct {
	client *redis.Client
	owner  string

	mu     sync.Mutex
	tokens map[string]string
	log    *zap.Logger
}

func NewRedisLock(url string, dialTimeout time.Duration, log *zap.Logger) (*RedisLock, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if dialTimeout > 0 {
		opts.DialTimeout = dialTimeout
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Successfully connected to Redis")
	return NewRedisLockWithClient(client, log), nil
}

func NewRedisLockWithClient(client *redis.Client, log *zap.Logger) *RedisLock {
	return &RedisLock{
		client: client,
		owner:  uuid.NewString(),
		tokens: make(map[string]string),
		log:    log,
	}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := l.owner + ":" + uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis lock %s: %w", key, err)
	}
	if !ok {
		l.log.Info("Run lock already held", zap.String("key", key))
		return false, nil
	}

	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()
	return true, nil
}

func (l *RedisLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("redis unlock %s: %w", key, err)
	}
	return nil
}

func (l *RedisLock) PingContext(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisLock) Close() error {
	return l.client.Close()
}
