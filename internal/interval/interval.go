// Package interval persists the lifecycle of timer intervals. A record is
// created in progress when an interval starts and finalized exactly once,
// as completed or cancelled.
package interval

import (
	"context"
	"errors"
	"time"

	"github.com/fakeyudi/pomo/internal/timer"
)

var (
	// ErrNotFound is returned for an unknown record id.
	ErrNotFound = errors.New("interval not found")

	// ErrAlreadyFinalized is returned when finalizing a record that is no
	// longer in progress.
	ErrAlreadyFinalized = errors.New("interval already finalized")
)

// Status is the persisted lifecycle state of a record.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// statusFor maps a finalize outcome to the stored status.
func statusFor(outcome timer.Outcome) (Status, error) {
	switch outcome {
	case timer.OutcomeCompleted:
		return StatusCompleted, nil
	case timer.OutcomeCancelled:
		return StatusCancelled, nil
	}
	return "", errors.New("unknown outcome " + string(outcome))
}

// Record is one persisted interval.
type Record struct {
	ID                     int64      `json:"id"`
	Kind                   timer.Kind `json:"interval_type"`
	StartTime              time.Time  `json:"start_time"`
	EndTime                *time.Time `json:"end_time,omitempty"`
	DurationSeconds        *uint32    `json:"duration_seconds,omitempty"`
	PlannedDurationSeconds uint32     `json:"planned_duration_seconds"`
	Status                 Status     `json:"status"`
	CreatedAt              time.Time  `json:"created_at"`
}

// Actual returns the recorded duration, or zero while in progress.
func (r Record) Actual() time.Duration {
	if r.DurationSeconds == nil {
		return 0
	}
	return time.Duration(*r.DurationSeconds) * time.Second
}

// Filter narrows List. Zero fields do not filter.
type Filter struct {
	Since  time.Time
	Until  time.Time
	Kind   timer.Kind
	Status Status
	// Limit caps the number of records; 0 means no limit.
	Limit int
}

func (f Filter) match(r Record) bool {
	if !f.Since.IsZero() && r.StartTime.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !r.StartTime.Before(f.Until) {
		return false
	}
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

// Store is the full persistence surface: the timer.Gateway the engine
// writes through plus the queries the command line reads with.
type Store interface {
	timer.Gateway
	Get(ctx context.Context, id int64) (Record, error)
	// List returns matching records, most recent start first.
	List(ctx context.Context, f Filter) ([]Record, error)
	Close() error
}

// CompletedWorkSince counts completed work intervals started at or after
// since, stopping at the most recent completed long break. It is used to
// seed the engine's work counter when a process starts.
func CompletedWorkSince(ctx context.Context, s Store, since time.Time) (uint32, error) {
	records, err := s.List(ctx, Filter{Since: since, Status: StatusCompleted})
	if err != nil {
		return 0, err
	}
	var n uint32
	for _, r := range records {
		if r.Kind == timer.KindLongBreak {
			break
		}
		if r.Kind == timer.KindWork {
			n++
		}
	}
	return n, nil
}

// AbandonInProgress cancels every record still in progress, using the
// planned duration capped by the time since it started as the elapsed
// value. It returns the records it closed.
func AbandonInProgress(ctx context.Context, s Store, now time.Time) ([]Record, error) {
	open, err := s.List(ctx, Filter{Status: StatusInProgress})
	if err != nil {
		return nil, err
	}
	var closed []Record
	for _, r := range open {
		elapsed := now.Sub(r.StartTime)
		if elapsed < 0 {
			elapsed = 0
		}
		secs := uint32(elapsed / time.Second)
		if secs > r.PlannedDurationSeconds {
			secs = r.PlannedDurationSeconds
		}
		if err := s.Finalize(ctx, r.ID, now, secs, timer.OutcomeCancelled); err != nil {
			if errors.Is(err, ErrAlreadyFinalized) {
				continue
			}
			return closed, err
		}
		updated, err := s.Get(ctx, r.ID)
		if err != nil {
			return closed, err
		}
		closed = append(closed, updated)
	}
	return closed, nil
}
