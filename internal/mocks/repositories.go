package mocks

import (
	"context"
	"sync"

	"github.com/fleetcore/driver-completion/internal/domain"
)

// MockCompletionRepository is a mock implementation of CompletionRepository
type MockCompletionRepository struct {
	ListActiveDriversFunc func(ctx context.Context) ([]domain.Driver, error)
	CountUncompletedFunc  func(ctx context.Context, driverID int64, window domain.Window) (int64, error)
	CountCompletedFunc    func(ctx context.Context, driverID int64, window domain.Window) (int64, error)

	mu    sync.Mutex
	calls int
}

func (m *MockCompletionRepository) ListActiveDrivers(ctx context.Context) ([]domain.Driver, error) {
	m.record()
	if m.ListActiveDriversFunc != nil {
		return m.ListActiveDriversFunc(ctx)
	}
	return []domain.Driver{}, nil
}

func (m *MockCompletionRepository) CountUncompleted(ctx context.Context, driverID int64, window domain.Window) (int64, error) {
	m.record()
	if m.CountUncompletedFunc != nil {
		return m.CountUncompletedFunc(ctx, driverID, window)
	}
	return 0, nil
}

func (m *MockCompletionRepository) CountCompleted(ctx context.Context, driverID int64, window domain.Window) (int64, error) {
	m.record()
	if m.CountCompletedFunc != nil {
		return m.CountCompletedFunc(ctx, driverID, window)
	}
	return 0, nil
}

// Calls returns how many queries were issued against the mock.
func (m *MockCompletionRepository) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockCompletionRepository) record() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}
