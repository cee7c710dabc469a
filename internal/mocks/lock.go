package mocks

import (
	"context"
	"sync"
	"time"
)

// MockRunLock is a mock implementation of RunLock
type MockRunLock struct {
	AcquireFunc func(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseFunc func(ctx context.Context, key string) error

	mu   sync.Mutex
	held map[string]bool
}

func NewMockRunLock() *MockRunLock {
	return &MockRunLock{held: make(map[string]bool)}
}

func (m *MockRunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *MockRunLock) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}

// Held reports whether key is currently locked.
func (m *MockRunLock) Held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[key]
}
