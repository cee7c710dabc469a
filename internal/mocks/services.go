package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/fleetcore/driver-completion/internal/domain"
)

// MockDispatcher is a mock implementation of Dispatcher
type MockDispatcher struct {
	SendReportFunc func(ctx context.Context, report *domain.RenderedReport) error
	SendAlertFunc  func(ctx context.Context, result *domain.RunResult)

	mu      sync.Mutex
	Reports []*domain.RenderedReport
	Alerts  []*domain.RunResult
}

func (m *MockDispatcher) SendReport(ctx context.Context, report *domain.RenderedReport) error {
	if m.SendReportFunc != nil {
		if err := m.SendReportFunc(ctx, report); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Reports = append(m.Reports, report)
	m.mu.Unlock()
	return nil
}

func (m *MockDispatcher) SendAlert(ctx context.Context, result *domain.RunResult) {
	if m.SendAlertFunc != nil {
		m.SendAlertFunc(ctx, result)
	}
	m.mu.Lock()
	m.Alerts = append(m.Alerts, result)
	m.mu.Unlock()
}

// Sent returns the number of reports and alerts delivered.
func (m *MockDispatcher) Sent() (reports, alerts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Reports), len(m.Alerts)
}

// MockRenderer is a mock implementation of ReportRenderer
type MockRenderer struct {
	RenderFunc func(report *domain.Report, now time.Time) (*domain.RenderedReport, error)
	Calls      int
}

func (m *MockRenderer) Render(report *domain.Report, now time.Time) (*domain.RenderedReport, error) {
	m.Calls++
	if m.RenderFunc != nil {
		return m.RenderFunc(report, now)
	}
	return &domain.RenderedReport{Subject: "report", Report: report}, nil
}

// MockReportRunner is a mock implementation of ReportRunner
type MockReportRunner struct {
	RunFunc func(ctx context.Context, trigger domain.Trigger) *domain.RunResult

	mu       sync.Mutex
	Triggers []domain.Trigger
}

func (m *MockReportRunner) Run(ctx context.Context, trigger domain.Trigger) *domain.RunResult {
	m.mu.Lock()
	m.Triggers = append(m.Triggers, trigger)
	m.mu.Unlock()
	if m.RunFunc != nil {
		return m.RunFunc(ctx, trigger)
	}
	return &domain.RunResult{Trigger: trigger, Status: domain.RunStatusSuccess}
}

// RunCount returns how many times Run was invoked.
func (m *MockReportRunner) RunCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Triggers)
}
