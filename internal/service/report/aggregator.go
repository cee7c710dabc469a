package report

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fleetcore/driver-completion/internal/domain"
	"github.com/fleetcore/driver-completion/internal/observability/telemetry"
	"github.com/fleetcore/driver-completion/internal/ports"
)

// Aggregator counts completed and uncompleted orders per roster driver and
// rolls them up per terminal and in total.
type Aggregator struct {
	repo ports.CompletionRepository
	log  *zap.Logger
}

func NewAggregator(repo ports.CompletionRepository, log *zap.Logger) *Aggregator {
	return &Aggregator{
		repo: repo,
		log:  log,
	}
}

// Build runs the roster query and both counts for every driver. Any data
// source error aborts the build and is wrapped in ErrAggregationFailure.
func (a *Aggregator) Build(ctx context.Context, window domain.Window) (*domain.Report, error) {
	ctx, span := telemetry.StartSpan(ctx, "report.aggregate", attribute.String("window", window.String()))
	defer span.End()

	drivers, err := a.repo.ListActiveDrivers(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", domain.ErrAggregationFailure, err)
	}

	acc := newSummaryAccumulator(len(drivers))
	for _, d := range drivers {
		row, err := a.countDriver(ctx, d, window)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("%w: %w", domain.ErrAggregationFailure, err)
		}
		acc = acc.add(row)
	}

	report := acc.report(window)
	a.log.Info("Aggregated driver completion",
		zap.Int("drivers", len(report.Rows)),
		zap.Int("terminals", len(report.Terminals)),
		zap.Int64("active", report.Total.Active),
		zap.Int64("complete", report.Total.Complete),
	)
	return report, nil
}

func (a *Aggregator) countDriver(ctx context.Context, d domain.Driver, window domain.Window) (domain.DriverRow, error) {
	uncompleted, err := a.repo.CountUncompleted(ctx, d.EmployeeID, window)
	if err != nil {
		return domain.DriverRow{}, err
	}
	completed, err := a.repo.CountCompleted(ctx, d.EmployeeID, window)
	if err != nil {
		return domain.DriverRow{}, err
	}
	return domain.DriverRow{Driver: d, Uncompleted: uncompleted, Completed: completed}, nil
}

// summaryAccumulator is threaded through the fold over the roster. Each add
// returns the next accumulator; nothing outside Build holds a reference.
type summaryAccumulator struct {
	rows      []domain.DriverRow
	terminals map[string]domain.TerminalSummary
	total     domain.TerminalSummary
}

func newSummaryAccumulator(capacity int) summaryAccumulator {
	return summaryAccumulator{
		rows:      make([]domain.DriverRow, 0, capacity),
		terminals: make(map[string]domain.TerminalSummary),
		total:     domain.TerminalSummary{Name: domain.TotalSummaryName},
	}
}

func (acc summaryAccumulator) add(row domain.DriverRow) summaryAccumulator {
	acc.rows = append(acc.rows, row)

	terminal, ok := acc.terminals[row.TerminalName]
	if !ok {
		terminal = domain.TerminalSummary{Name: row.TerminalName}
	}
	acc.terminals[row.TerminalName] = terminal.Record(row.Uncompleted, row.Completed)
	acc.total = acc.total.Record(row.Uncompleted, row.Completed)

	return acc
}

func (acc summaryAccumulator) report(window domain.Window) *domain.Report {
	return &domain.Report{
		Window:    window,
		Rows:      acc.rows,
		Terminals: acc.terminals,
		Total:     acc.total,
	}
}
