package sqlstore

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fleetcore/driver-completion/internal/domain"
	"github.com/fleetcore/driver-completion/internal/observability/telemetry"
	"github.com/fleetcore/driver-completion/internal/ports"
)

// CompletionRepository reads drivers and order counts from the dispatch
// schema (Employees, Terminals, Orders, OrderDrivers, ClientMaster).
// Identifiers are left unquoted so the same SQL runs on SQL Server and Postgres.
type CompletionRepository struct {
	db           *gorm.DB
	queryTimeout time.Duration
	log          *zap.Logger
}

func NewCompletionRepository(db *gorm.DB, queryTimeout time.Duration, log *zap.Logger) ports.CompletionRepository {
	return &CompletionRepository{
		db:           db,
		queryTimeout: queryTimeout,
		log:          log,
	}
}

func (r *CompletionRepository) ListActiveDrivers(ctx context.Context) ([]domain.Driver, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	defer observe("list_active_drivers", time.Now())

	var drivers []domain.Driver
	if err := rosterQuery(r.db.WithContext(ctx)).Find(&drivers).Error; err != nil {
		return nil, fmt.Errorf("list active drivers: %w", err)
	}

	r.log.Debug("Loaded driver roster", zap.Int("drivers", len(drivers)))
	return drivers, nil
}

func (r *CompletionRepository) CountUncompleted(ctx context.Context, driverID int64, window domain.Window) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	defer observe("count_uncompleted", time.Now())

	var n int64
	if err := uncompletedQuery(r.db.WithContext(ctx), driverID, window).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count uncompleted orders for driver %d: %w", driverID, err)
	}
	return n, nil
}

func (r *CompletionRepository) CountCompleted(ctx context.Context, driverID int64, window domain.Window) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	defer observe("count_completed", time.Now())

	var n int64
	if err := completedQuery(r.db.WithContext(ctx), driverID, window).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count completed orders for driver %d: %w", driverID, err)
	}
	return n, nil
}

func (r *CompletionRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

func rosterQuery(db *gorm.DB) *gorm.DB {
	return db.Table("Employees e").
		Select("e.ID AS employee_id, e.DriverNo AS driver_no, e.FirstName AS first_name, e.LastName AS last_name, "+
			"e.Status AS status, e.Driver AS is_driver, e.DriverType AS driver_type, "+
			"t.TerminalID AS terminal_id, t.TerminalName AS terminal_name").
		Joins("JOIN Terminals t ON t.TerminalID = e.TerminalID").
		Where("e.Status = ? AND e.Driver = ? AND e.DriverType = ?",
			domain.EmployeeStatusActive, domain.DriverFlagYes, domain.DriverTypeCompany).
		Order("t.TerminalName, e.DriverNo")
}

// driverOrders selects the orders assigned to a driver whose delivery target
// falls inside the window. The client join drops orders without a client.
func driverOrders(db *gorm.DB, driverID int64, window domain.Window) *gorm.DB {
	from, to := window.Bounds()
	return db.Table("Orders o").
		Joins("JOIN OrderDrivers od ON od.OrderTrackingID = o.OrderTrackingID").
		Joins("JOIN ClientMaster c ON c.ClientID = o.ClientID").
		Where("od.DriverID = ?", driverID).
		Where("o.DeliveryTargetTo >= ? AND o.DeliveryTargetTo < ?", wallClock(from), wallClock(to))
}

func uncompletedQuery(db *gorm.DB, driverID int64, window domain.Window) *gorm.DB {
	return driverOrders(db, driverID, window).
		Where("o.Status = ?", string(domain.OrderStatusNotStarted))
}

func completedQuery(db *gorm.DB, driverID int64, window domain.Window) *gorm.DB {
	return driverOrders(db, driverID, window).
		Where("o.Status NOT IN ?", domain.NotCompletedStatuses())
}

// wallClock keeps the calendar fields of t and drops its zone. Delivery
// targets are stored without a zone, so bounds must not be shifted by drivers.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func observe(query string, start time.Time) {
	telemetry.DatabaseLatency.WithLabelValues(query).Observe(time.Since(start).Seconds())
}
