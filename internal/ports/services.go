package ports

import (
	"context"
	"time"

	"github.com/fleetcore/driver-completion/internal/domain"
)

// Dispatcher delivers a rendered report, or an alert when a run fails.
type Dispatcher interface {
	SendReport(ctx context.Context, report *domain.RenderedReport) error
	// SendAlert never fails from the caller's point of view; delivery errors are logged.
	SendAlert(ctx context.Context, result *domain.RunResult)
}

// ReportRenderer turns a report into the workbook, subject and mail body.
type ReportRenderer interface {
	Render(report *domain.Report, now time.Time) (*domain.RenderedReport, error)
}

// ReportRunner runs the whole pipeline once.
type ReportRunner interface {
	Run(ctx context.Context, trigger domain.Trigger) *domain.RunResult
}

// RunLock guards a run key so two runs for the same day do not overlap.
type RunLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// MessageQueue publishes run events.
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Close() error
}
