package report

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fleetcore/driver-completion/internal/domain"
	"github.com/fleetcore/driver-completion/internal/mocks"
)

var errQueryFailed = errors.New("connection reset by peer")

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

type driverCounts struct {
	uncompleted int64
	completed   int64
}

// newFixtureRepository serves drivers and per-driver counts from memory.
func newFixtureRepository(drivers []domain.Driver, counts map[int64]driverCounts) *mocks.MockCompletionRepository {
	return &mocks.MockCompletionRepository{
		ListActiveDriversFunc: func(ctx context.Context) ([]domain.Driver, error) {
			return drivers, nil
		},
		CountUncompletedFunc: func(ctx context.Context, driverID int64, window domain.Window) (int64, error) {
			return counts[driverID].uncompleted, nil
		},
		CountCompletedFunc: func(ctx context.Context, driverID int64, window domain.Window) (int64, error) {
			return counts[driverID].completed, nil
		},
	}
}

func fixtureDrivers() []domain.Driver {
	return []domain.Driver{
		{EmployeeID: 1, DriverNo: "D1", FirstName: "Ann", LastName: "Avery", Status: "A", IsDriver: "Y", DriverType: "C", TerminalID: 10, TerminalName: "East"},
		{EmployeeID: 2, DriverNo: "D2", FirstName: "Ben", LastName: "Brook", Status: "A", IsDriver: "Y", DriverType: "C", TerminalID: 10, TerminalName: "East"},
		{EmployeeID: 3, DriverNo: "D3", FirstName: "Cal", LastName: "Cole", Status: "A", IsDriver: "Y", DriverType: "C", TerminalID: 20, TerminalName: "West"},
	}
}

func fixtureCounts() map[int64]driverCounts {
	return map[int64]driverCounts{
		1: {uncompleted: 1, completed: 2},
		3: {uncompleted: 0, completed: 4},
	}
}

func fixtureNow() time.Time {
	return time.Date(2024, time.March, 15, 8, 59, 0, 0, time.UTC)
}

func fixtureWindow() domain.Window {
	return domain.NewWindow(fixtureNow(), 0, time.UTC)
}
