package domain

import (
	"sort"
	"strconv"
	"time"
)

const TotalSummaryName = "Total"

// TerminalSummary aggregates completion counts for one terminal, or for the
// whole roster when Name is TotalSummaryName.
type TerminalSummary struct {
	Name            string  `json:"name"`
	Active          int64   `json:"active"`
	Complete        int64   `json:"complete"`
	Total           int64   `json:"total"`
	PercentComplete float64 `json:"percent_complete"`
}

// Record returns the summary with one driver's counts added. The percentage is
// refreshed only while Total is positive so it never divides by zero.
func (s TerminalSummary) Record(uncompleted, completed int64) TerminalSummary {
	s.Active += uncompleted
	s.Complete += completed
	s.Total += uncompleted + completed
	if s.Total > 0 {
		s.PercentComplete = Percent(s.Complete, s.Total)
	}
	return s
}

// Percent returns part/whole as a percentage rounded to two decimals, or 0
// when whole is not positive. Rounding is done on the exact binary value with
// ties to even, so 1/32 gives 3.12.
func Percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	p := float64(part) / float64(whole) * 100
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(p, 'f', 2, 64), 64)
	if err != nil {
		return p
	}
	return rounded
}

// DriverRow is one roster entry annotated with its in-window counts.
type DriverRow struct {
	Driver
	Uncompleted int64 `json:"uncompleted"`
	Completed   int64 `json:"completed"`
}

func (r DriverRow) Total() int64 {
	return r.Uncompleted + r.Completed
}

func (r DriverRow) Percent() float64 {
	return Percent(r.Completed, r.Total())
}

// HasActivity reports whether the driver had any order in the window.
func (r DriverRow) HasActivity() bool {
	return r.Total() > 0
}

type Report struct {
	Window      Window                     `json:"window"`
	Rows        []DriverRow                `json:"rows"`
	Terminals   map[string]TerminalSummary `json:"terminals"`
	Total       TerminalSummary            `json:"total"`
	GeneratedAt time.Time                  `json:"generated_at"`
}

// SortedTerminals returns the terminal summaries ordered by name.
func (r *Report) SortedTerminals() []TerminalSummary {
	out := make([]TerminalSummary, 0, len(r.Terminals))
	for _, s := range r.Terminals {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ActiveRows returns the rows of drivers with at least one in-window order.
func (r *Report) ActiveRows() []DriverRow {
	out := make([]DriverRow, 0, len(r.Rows))
	for _, row := range r.Rows {
		if row.HasActivity() {
			out = append(out, row)
		}
	}
	return out
}

type Artifact struct {
	FileName    string
	Path        string
	ContentType string
	Content     []byte
}

// RenderedReport is everything the dispatcher needs to deliver a report.
type RenderedReport struct {
	Subject  string
	Body     string
	Artifact Artifact
	Report   *Report
}
