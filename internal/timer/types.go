// Package timer implements the pomodoro timer engine: a single timing
// session guarded by one mutex, the background scheduler that drives it to
// completion, and the events it publishes while doing so.
package timer

import (
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle state of the timing session.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// Kind identifies what an interval is used for.
type Kind string

const (
	KindWork       Kind = "work"
	KindShortBreak Kind = "short_break"
	KindLongBreak  Kind = "long_break"
)

// IsBreak reports whether k is one of the break kinds.
func (k Kind) IsBreak() bool {
	return k == KindShortBreak || k == KindLongBreak
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindWork, KindShortBreak, KindLongBreak:
		return true
	}
	return false
}

// Label returns a short human-readable name.
func (k Kind) Label() string {
	switch k {
	case KindWork:
		return "Focus"
	case KindShortBreak:
		return "Short break"
	case KindLongBreak:
		return "Long break"
	}
	return string(k)
}

// ParseKind accepts the stored names ("short_break") as well as the short
// command-line forms ("short", "long", "focus").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "work", "focus", "pomodoro":
		return KindWork, nil
	case "short", "short_break", "short-break":
		return KindShortBreak, nil
	case "long", "long_break", "long-break":
		return KindLongBreak, nil
	}
	return "", fmt.Errorf("%w: unknown interval kind %q", ErrInvalidArgument, s)
}

// Outcome is how an interval record is finalized.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
)

// Status is a read-only view of the session, safe to hand to callers.
type Status struct {
	State                  State  `json:"state"`
	Kind                   Kind   `json:"interval_type"`
	RemainingMs            int64  `json:"remaining_ms"`
	PlannedDurationSeconds uint32 `json:"planned_duration_seconds"`
	// RecordID is the persisted interval row; 0 while idle.
	RecordID           int64  `json:"interval_id,omitempty"`
	CompletedWorkCount uint32 `json:"completed_work_count"`
	Overtime           bool   `json:"overtime"`
	OvertimeMs         int64  `json:"overtime_ms"`
	// Generation identifies the current running phase. It changes on every
	// start and resume.
	Generation uint64 `json:"-"`
}

// Remaining returns RemainingMs as a duration.
func (s Status) Remaining() time.Duration {
	return time.Duration(s.RemainingMs) * time.Millisecond
}

// OvertimeElapsed returns OvertimeMs as a duration.
func (s Status) OvertimeElapsed() time.Duration {
	return time.Duration(s.OvertimeMs) * time.Millisecond
}

// Cancellation is returned by Engine.Cancel.
type Cancellation struct {
	RecordID       int64
	Kind           Kind
	ElapsedSeconds uint32
	// AlreadyFinalized is set when the session was in overtime: the record
	// was written as completed when the planned duration ran out and must
	// not be finalized again.
	AlreadyFinalized bool
}

// Completion is returned by Engine.Complete when the deadline was crossed.
type Completion struct {
	RecordID           int64
	Kind               Kind
	PlannedSeconds     uint32
	CompletedWorkCount uint32
	// Overtime is set when the session continues as an overtime break.
	Overtime bool
}

func durationMs(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return d.Milliseconds()
}
