package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Report pipeline
	ReportRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driver_completion_report_runs_total",
		Help: "Report runs by trigger and outcome",
	}, []string{"trigger", "status"})

	ReportRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "driver_completion_report_run_duration_seconds",
		Help:    "Duration of report runs",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"trigger"})

	ReportFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driver_completion_report_failures_total",
		Help: "Failed report runs by stage",
	}, []string{"stage"})

	RosterDrivers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "driver_completion_roster_drivers",
		Help: "Drivers on the roster of the last run",
	})

	OrdersInWindow = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "driver_completion_orders_in_window",
		Help: "Orders counted by the last run by bucket",
	}, []string{"bucket"})

	PercentComplete = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "driver_completion_percent_complete",
		Help: "Overall percent complete of the last run",
	})

	// Mail
	EmailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driver_completion_emails_total",
		Help: "Emails sent by kind and outcome",
	}, []string{"kind", "status"})

	// Infrastructure
	DatabaseLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "driver_completion_database_latency_seconds",
		Help:    "Latency of data source queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})
)
