package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fleetcore/driver-completion/internal/domain"
	"github.com/fleetcore/driver-completion/internal/observability/telemetry"
	"github.com/fleetcore/driver-completion/internal/ports"
)

const (
	SubjectCompleted = "report.completed"
	SubjectFailed    = "report.failed"
	SubjectSkipped   = "report.skipped"

	alertTimeout = time.Minute
)

type Options struct {
	WindowDays int
	Location   *time.Location
	Timeout    time.Duration
	LockTTL    time.Duration
	Now        func() time.Time
}

// Pipeline runs aggregate, render and dispatch in order. Lock and Events
// are optional and may be nil.
type Pipeline struct {
	aggregator *Aggregator
	renderer   ports.ReportRenderer
	dispatcher ports.Dispatcher
	lock       ports.RunLock
	events     ports.MessageQueue
	opts       Options
	log        *zap.Logger
}

func NewPipeline(
	repo ports.CompletionRepository,
	renderer ports.ReportRenderer,
	dispatcher ports.Dispatcher,
	lock ports.RunLock,
	events ports.MessageQueue,
	opts Options,
	log *zap.Logger,
) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Pipeline{
		aggregator: NewAggregator(repo, log),
		renderer:   renderer,
		dispatcher: dispatcher,
		lock:       lock,
		events:     events,
		opts:       opts,
		log:        log,
	}
}

// Run executes one report run. Failures are reported through the returned
// result and a single operator alert; Run itself never fails.
func (p *Pipeline) Run(ctx context.Context, trigger domain.Trigger) *domain.RunResult {
	started := p.opts.Now().In(p.opts.Location)
	result := &domain.RunResult{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: started,
		Window:    domain.NewWindow(started, p.opts.WindowDays, p.opts.Location),
	}
	log := p.log.With(
		zap.String("run_id", result.RunID),
		zap.String("trigger", string(trigger)),
	)

	ctx, span := telemetry.StartSpan(ctx, "report.run",
		attribute.String("run_id", result.RunID),
		attribute.String("trigger", string(trigger)),
	)
	defer span.End()

	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	log.Info("Starting report run", zap.String("window", result.Window.String()))

	if p.lock != nil {
		key := lockKey(result.Window)
		acquired, err := p.lock.Acquire(ctx, key, p.opts.LockTTL)
		switch {
		case err != nil:
			log.Warn("Run lock unavailable, continuing unguarded", zap.Error(err))
		case !acquired:
			result.Status = domain.RunStatusSkipped
			result.Stage = domain.StageLock
			result.Err = domain.ErrRunInProgress
			result.Error = domain.ErrRunInProgress.Error()
			return p.finish(ctx, result, log)
		default:
			defer func() {
				if err := p.lock.Release(context.WithoutCancel(ctx), key); err != nil {
					log.Warn("Failed to release run lock", zap.String("key", key), zap.Error(err))
				}
			}()
		}
	}

	report, err := p.aggregator.Build(ctx, result.Window)
	if err != nil {
		return p.fail(ctx, result, domain.StageAggregate, err, log)
	}
	report.GeneratedAt = started
	result.Drivers = len(report.Rows)
	result.Total = report.Total

	rendered, err := p.renderer.Render(report, started)
	if err != nil {
		return p.fail(ctx, result, domain.StageRender, ensureWrapped(domain.ErrRenderFailure, err), log)
	}
	result.FileName = rendered.Artifact.FileName

	if err := p.dispatcher.SendReport(ctx, rendered); err != nil {
		return p.fail(ctx, result, domain.StageDispatch, ensureWrapped(domain.ErrDispatchFailure, err), log)
	}

	result.Status = domain.RunStatusSuccess
	telemetry.RosterDrivers.Set(float64(result.Drivers))
	telemetry.OrdersInWindow.WithLabelValues(domain.BucketUncompleted.String()).Set(float64(report.Total.Active))
	telemetry.OrdersInWindow.WithLabelValues(domain.BucketCompleted.String()).Set(float64(report.Total.Complete))
	telemetry.PercentComplete.Set(report.Total.PercentComplete)

	return p.finish(ctx, result, log)
}

func (p *Pipeline) fail(ctx context.Context, result *domain.RunResult, stage domain.Stage, err error, log *zap.Logger) *domain.RunResult {
	result.Status = domain.RunStatusFailed
	result.Stage = stage
	result.Err = err
	result.Error = err.Error()

	log.Error("Report run failed", zap.String("stage", string(stage)), zap.Error(err))
	telemetry.ReportFailuresTotal.WithLabelValues(string(stage)).Inc()

	alertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
	defer cancel()
	p.dispatcher.SendAlert(alertCtx, result)

	return p.finish(ctx, result, log)
}

func (p *Pipeline) finish(ctx context.Context, result *domain.RunResult, log *zap.Logger) *domain.RunResult {
	result.FinishedAt = p.opts.Now().In(p.opts.Location)

	telemetry.ReportRunsTotal.WithLabelValues(string(result.Trigger), string(result.Status)).Inc()
	telemetry.ReportRunDuration.WithLabelValues(string(result.Trigger)).Observe(result.Duration().Seconds())

	p.publish(result, log)

	log.Info("Report run finished",
		zap.String("status", string(result.Status)),
		zap.Int("drivers", result.Drivers),
		zap.String("file", result.FileName),
		zap.Duration("duration", result.Duration()),
	)
	return result
}

func (p *Pipeline) publish(result *domain.RunResult, log *zap.Logger) {
	if p.events == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		log.Warn("Failed to encode run event", zap.Error(err))
		return
	}
	if err := p.events.Publish(eventSubject(result.Status), data); err != nil {
		log.Warn("Failed to publish run event", zap.Error(err))
	}
}

func eventSubject(status domain.RunStatus) string {
	switch status {
	case domain.RunStatusSuccess:
		return SubjectCompleted
	case domain.RunStatusSkipped:
		return SubjectSkipped
	default:
		return SubjectFailed
	}
}

func lockKey(window domain.Window) string {
	return "driver-completion:run:" + window.End.Format("2006-01-02")
}

func ensureWrapped(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
