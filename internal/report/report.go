// Package report turns interval records into a history that can be
// printed as Markdown or JSON.
package report

import (
	"fmt"
	"time"

	"github.com/fakeyudi/pomo/internal/interval"
	"github.com/fakeyudi/pomo/internal/timer"
)

// History is the complete, renderable view of a window of intervals.
type History struct {
	Since     time.Time         `json:"since"`
	Until     time.Time         `json:"until"`
	Summary   Summary           `json:"summary"`
	Intervals []interval.Record `json:"intervals"`
}

// Summary aggregates the records in a History.
type Summary struct {
	CompletedWork   int    `json:"completed_work"`
	CompletedBreaks int    `json:"completed_breaks"`
	Cancelled       int    `json:"cancelled"`
	InProgress      int    `json:"in_progress"`
	FocusSeconds    uint64 `json:"focus_seconds"`
	BreakSeconds    uint64 `json:"break_seconds"`
}

// Build assembles a History from records, which are kept in the order given.
func Build(since, until time.Time, records []interval.Record) *History {
	h := &History{
		Since:     since,
		Until:     until,
		Intervals: records,
	}
	if h.Intervals == nil {
		h.Intervals = []interval.Record{}
	}
	for _, r := range records {
		switch r.Status {
		case interval.StatusInProgress:
			h.Summary.InProgress++
			continue
		case interval.StatusCancelled:
			h.Summary.Cancelled++
		case interval.StatusCompleted:
			if r.Kind == timer.KindWork {
				h.Summary.CompletedWork++
			} else {
				h.Summary.CompletedBreaks++
			}
		}
		secs := uint64(r.Actual() / time.Second)
		if r.Kind == timer.KindWork {
			h.Summary.FocusSeconds += secs
		} else {
			h.Summary.BreakSeconds += secs
		}
	}
	return h
}

// FormatDuration renders whole seconds as "1h05m", "25m" or "42s".
func FormatDuration(secs uint64) string {
	h, m, s := secs/3600, secs%3600/60, secs%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case m > 0 && s == 0:
		return fmt.Sprintf("%dm", m)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
