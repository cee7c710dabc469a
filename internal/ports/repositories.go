package ports

import (
	"context"

	"github.com/fleetcore/driver-completion/internal/domain"
)

// CompletionRepository is the read-only data source behind the report.
type CompletionRepository interface {
	ListActiveDrivers(ctx context.Context) ([]domain.Driver, error)
	CountUncompleted(ctx context.Context, driverID int64, window domain.Window) (int64, error)
	CountCompleted(ctx context.Context, driverID int64, window domain.Window) (int64, error)
}
