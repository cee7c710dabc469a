package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fleetcore/driver-completion/internal/domain"
	"github.com/fleetcore/driver-completion/internal/ports"
)

// Scheduler fires scheduled report runs on a cron expression. A tick that
// arrives while the previous run is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	entry  cron.EntryID
	runner ports.ReportRunner
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

// New parses spec (standard five-field cron or a descriptor such as
// "@daily") in loc.
func New(spec string, loc *time.Location, runner ports.ReportRunner, log *zap.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}

	cl := cronLogger{log: log.Sugar()}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   c,
		runner: runner,
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}

	id, err := c.AddFunc(spec, s.tick)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid report schedule %q: %w", spec, err)
	}
	s.entry = id

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Report scheduler started", zap.Time("next_run", s.Next()))
}

// Stop stops new ticks and waits for a running report until ctx is done,
// after which the run's context is cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	defer s.cancel()

	select {
	case <-done.Done():
		s.log.Info("Report scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done.Done()
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// Next returns the next scheduled run, or the zero time when not started.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

func (s *Scheduler) tick() {
	result := s.runner.Run(s.ctx, domain.TriggerScheduled)
	s.log.Info("Scheduled report run completed",
		zap.String("run_id", result.RunID),
		zap.String("status", string(result.Status)),
		zap.Time("next_run", s.Next()),
	)
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
