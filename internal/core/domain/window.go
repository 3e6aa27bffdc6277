package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by the provider and the sink.
const DateLayout = "2006-01-02"

// SyncWindow is an inclusive calendar date interval [Start, End].
// Each day in the window is processed independently and exactly once per run.
type SyncWindow struct {
	Start time.Time
	End   time.Time
}

// NewSyncWindow creates a window truncated to whole days.
// Returns ErrInvalidWindow if start is after end.
func NewSyncWindow(start, end time.Time) (SyncWindow, error) {
	s, e := truncateDay(start), truncateDay(end)
	if s.After(e) {
		return SyncWindow{}, fmt.Errorf("%w: %s is after %s",
			ErrInvalidWindow, s.Format(DateLayout), e.Format(DateLayout))
	}
	return SyncWindow{Start: s, End: e}, nil
}

// ParseSyncWindow builds a window from two YYYY-MM-DD strings.
func ParseSyncWindow(start, end string) (SyncWindow, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return SyncWindow{}, fmt.Errorf("%w: start date %q", ErrInvalidWindow, start)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return SyncWindow{}, fmt.Errorf("%w: end date %q", ErrInvalidWindow, end)
	}
	return NewSyncWindow(s, e)
}

// LastNDays returns the n complete days before now's date: from n days ago
// through yesterday. Today is left out since its totals are still growing.
// n below 1 is treated as 1.
func LastNDays(now time.Time, n int) SyncWindow {
	if n < 1 {
		n = 1
	}
	today := truncateDay(now)
	return SyncWindow{Start: today.AddDate(0, 0, -n), End: today.AddDate(0, 0, -1)}
}

// Days returns every date in the window in ascending order.
func (w SyncWindow) Days() []time.Time {
	if w.Start.After(w.End) {
		return nil
	}
	var days []time.Time
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Len returns the number of days in the window.
func (w SyncWindow) Len() int {
	return len(w.Days())
}

// String formats the window as "start..end".
func (w SyncWindow) String() string {
	return w.Start.Format(DateLayout) + ".." + w.End.Format(DateLayout)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
