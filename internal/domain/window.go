package domain

import (
	"fmt"
	"time"
)

// Window is a range of calendar days, both ends inclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window ending on the day of now and spanning
// daysBack extra days before it. daysBack 0 selects only the current day.
func NewWindow(now time.Time, daysBack int, loc *time.Location) Window {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return Window{
		Start: end.AddDate(0, 0, -daysBack),
		End:   end,
	}
}

// Bounds returns the half-open timestamp range [from, to) covered by the window.
func (w Window) Bounds() (from, to time.Time) {
	return w.Start, w.End.AddDate(0, 0, 1)
}

// Contains reports whether t falls on one of the window's days.
func (w Window) Contains(t time.Time) bool {
	from, to := w.Bounds()
	t = t.In(from.Location())
	return !t.Before(from) && t.Before(to)
}

func (w Window) String() string {
	if w.Start.Equal(w.End) {
		return w.End.Format("01/02/2006")
	}
	return fmt.Sprintf("%s - %s", w.Start.Format("01/02/2006"), w.End.Format("01/02/2006"))
}
