package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthResponse represents the liveness response
type HealthResponse struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse represents the readiness response with per-check results
type ReadyResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Checker defines a health check function
type Checker func(ctx context.Context) CheckResult

// Pinger is satisfied by *sql.DB and by the Redis run lock.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Schedule reports when the next scheduled report is due.
type Schedule interface {
	Next() time.Time
}

// Config holds the dependencies the readiness probe checks. Nil entries are skipped.
type Config struct {
	Version  string
	Database Pinger
	Redis    Pinger
	Schedule Schedule
}

// Service runs the registered health checks
type Service struct {
	version   string
	startTime time.Time
	checkers  map[string]Checker
	log       *zap.Logger
	mu        sync.RWMutex
}

// NewService creates a health service with checkers for the configured dependencies
func NewService(config *Config, log *zap.Logger) *Service {
	s := &Service{
		version:   config.Version,
		startTime: time.Now(),
		checkers:  make(map[string]Checker),
		log:       log,
	}

	if config.Database != nil {
		s.RegisterChecker("database", PingChecker("database", config.Database, log))
	}
	if config.Redis != nil {
		s.RegisterChecker("redis", PingChecker("redis", config.Redis, log))
	}
	if config.Schedule != nil {
		s.RegisterChecker("scheduler", ScheduleChecker(config.Schedule))
	}

	return s
}

// RegisterChecker registers a custom health checker
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
	s.log.Info("Registered health checker", zap.String("name", name))
}

// Health is the liveness probe; it never touches dependencies.
func (s *Service) Health(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now(),
	}
}

// Ready runs every checker concurrently. The service is ready unless a check
// is unhealthy; degraded checks only lower the overall status.
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for k, v := range s.checkers {
		checkers[k] = v
	}
	s.mu.RUnlock()

	results := make(map[string]CheckResult, len(checkers))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			result := checker(checkCtx)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()

	overall := StatusHealthy
	ready := true
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
			ready = false
		case StatusDegraded:
			if overall != StatusUnhealthy {
				overall = StatusDegraded
			}
		}
	}

	return &ReadyResponse{
		Ready:     ready,
		Status:    overall,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// PingChecker reports unhealthy when the dependency does not answer a ping
func PingChecker(name string, p Pinger, log *zap.Logger) Checker {
	return func(ctx context.Context) CheckResult {
		start := time.Now()
		err := p.PingContext(ctx)
		result := CheckResult{
			Name:      name,
			Status:    StatusHealthy,
			Message:   "connection ok",
			Duration:  time.Since(start),
			Timestamp: start,
		}
		if err != nil {
			result.Status = StatusUnhealthy
			result.Message = fmt.Sprintf("ping failed: %v", err)
			log.Warn("Health check failed", zap.String("check", name), zap.Error(err))
		}
		return result
	}
}

// ScheduleChecker is degraded when no scheduled run is pending.
func ScheduleChecker(schedule Schedule) Checker {
	return func(ctx context.Context) CheckResult {
		now := time.Now()
		result := CheckResult{Name: "scheduler", Timestamp: now}
		next := schedule.Next()
		if next.IsZero() {
			result.Status = StatusDegraded
			result.Message = "no scheduled run pending"
			return result
		}
		result.Status = StatusHealthy
		result.Message = "next run " + next.Format(time.RFC3339)
		return result
	}
}
