package domain

import "time"

type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerOnDemand  Trigger = "on_demand"
	TriggerCLI       Trigger = "cli"
)

type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
	RunStatusSkipped RunStatus = "skipped"
)

type Stage string

const (
	StageLock      Stage = "lock"
	StageAggregate Stage = "aggregate"
	StageRender    Stage = "render"
	StageDispatch  Stage = "dispatch"
)

// RunResult is the outcome of one pipeline invocation.
type RunResult struct {
	RunID      string          `json:"run_id"`
	Trigger    Trigger         `json:"trigger"`
	Status     RunStatus       `json:"status"`
	Stage      Stage           `json:"stage,omitempty"`
	Err        error           `json:"-"`
	Error      string          `json:"error,omitempty"`
	FileName   string          `json:"file_name,omitempty"`
	Window     Window          `json:"window"`
	Drivers    int             `json:"drivers"`
	Total      TerminalSummary `json:"total"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

func (r *RunResult) Succeeded() bool {
	return r.Status == RunStatusSuccess
}

func (r *RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
