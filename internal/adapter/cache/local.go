package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LocalLock implements ports.RunLock within one process. Used when lock.enabled
// is set without a Redis URL.
type LocalLock struct {
	held map[string]time.Time
	mu   sync.Mutex
	now  func() time.Time
	log  *zap.Logger
}

func NewLocalLock(log *zap.Logger) *LocalLock {
	log.Info("Local in-process run lock initialized")
	return &LocalLock{
		held: make(map[string]time.Time),
		now:  time.Now,
		log:  log,
	}
}

// Acquire takes key unless it is held and not yet expired. A ttl of zero
// never expires.
func (l *LocalLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expiresAt, ok := l.held[key]; ok && (expiresAt.IsZero() || now.Before(expiresAt)) {
		l.log.Info("Run lock already held", zap.String("key", key))
		return false, nil
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}
	l.held[key] = expiresAt
	return true, nil
}

func (l *LocalLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}
