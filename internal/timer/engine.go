package timer

import (
	"fmt"
	"sync"
	"time"
)

// session is the single timing session. All fields are guarded by Engine.mu.
type session struct {
	state State
	kind  Kind

	// deadline is set only while running and not in overtime.
	deadline time.Time
	// remaining is authoritative only while paused.
	remaining time.Duration

	plannedSeconds uint32
	recordID       int64
	completedWork  uint32

	overtime        bool
	overtimeStart   time.Time
	overtimeEnabled bool

	generation uint64
}

// snapshot is what the scheduler reads under the lock on each tick.
type snapshot struct {
	state         State
	kind          Kind
	deadline      time.Time
	overtime      bool
	overtimeStart time.Time
	generation    uint64
}

// Engine owns the timing session and enforces its legal transitions.
// The zero value is not usable; construct with NewEngine.
type Engine struct {
	mu    sync.Mutex
	clock Clock
	s     session
}

// NewEngine returns an idle engine. A nil clock means SystemClock.
func NewEngine(clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{
		clock: clock,
		s: session{
			state: StateIdle,
			kind:  KindWork,
		},
	}
}

// Start moves the session from idle to running for the given record.
// overtimeEnabled is captured for the lifetime of the session.
func (e *Engine) Start(kind Kind, durationSeconds uint32, recordID int64, overtimeEnabled bool) (Status, error) {
	if durationSeconds == 0 {
		return Status{}, fmt.Errorf("%w: duration must be greater than zero", ErrInvalidArgument)
	}
	if !kind.Valid() {
		return Status{}, fmt.Errorf("%w: unknown interval kind %q", ErrInvalidArgument, kind)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.state != StateIdle {
		return Status{}, fmt.Errorf("%w: timer is already %s", ErrInvalidTransition, e.s.state)
	}

	planned := time.Duration(durationSeconds) * time.Second
	e.s.state = StateRunning
	e.s.kind = kind
	e.s.plannedSeconds = durationSeconds
	e.s.recordID = recordID
	e.s.deadline = e.clock.Now().Add(planned)
	e.s.remaining = planned
	e.s.overtime = false
	e.s.overtimeStart = time.Time{}
	e.s.overtimeEnabled = overtimeEnabled
	e.s.generation++
	return e.statusLocked(), nil
}

// Pause freezes a running countdown. An overtime break has no countdown
// and cannot be paused.
func (e *Engine) Pause() (Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.state != StateRunning {
		return Status{}, fmt.Errorf("%w: timer is not running", ErrInvalidTransition)
	}
	if e.s.overtime {
		return Status{}, fmt.Errorf("%w: overtime cannot be paused", ErrInvalidTransition)
	}

	e.s.remaining = e.remainingLocked()
	e.s.deadline = time.Time{}
	e.s.state = StatePaused
	return e.statusLocked(), nil
}

// Resume restarts a paused countdown from the snapshot taken at pause.
func (e *Engine) Resume() (Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.state != StatePaused {
		return Status{}, fmt.Errorf("%w: timer is not paused", ErrInvalidTransition)
	}

	e.s.state = StateRunning
	e.s.deadline = e.clock.Now().Add(e.s.remaining)
	e.s.generation++
	return e.statusLocked(), nil
}

// Cancel ends the session early. Unless the session was in overtime the
// caller must finalize Cancellation.RecordID as cancelled.
func (e *Engine) Cancel() (Cancellation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.state == StateIdle {
		return Cancellation{}, fmt.Errorf("%w: timer is not active", ErrInvalidTransition)
	}

	c := Cancellation{RecordID: e.s.recordID, Kind: e.s.kind}
	if e.s.overtime {
		c.AlreadyFinalized = true
	} else {
		planned := time.Duration(e.s.plannedSeconds) * time.Second
		elapsed := planned - e.remainingLocked()
		if elapsed < 0 {
			elapsed = 0
		}
		c.ElapsedSeconds = uint32(elapsed / time.Second)
	}

	e.resetLocked()
	return c, nil
}

// Complete is called by the scheduler once it has observed the deadline of
// running phase gen pass. It re-validates that observation under the lock
// and reports false if a concurrent pause, cancel or resume got there
// first; in that case nothing changed.
func (e *Engine) Complete(gen uint64) (Completion, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.state != StateRunning || e.s.overtime || e.s.generation != gen {
		return Completion{}, false
	}
	now := e.clock.Now()
	if now.Before(e.s.deadline) {
		return Completion{}, false
	}

	switch e.s.kind {
	case KindWork:
		e.s.completedWork++
	case KindLongBreak:
		e.s.completedWork = 0
	}

	c := Completion{
		RecordID:           e.s.recordID,
		Kind:               e.s.kind,
		PlannedSeconds:     e.s.plannedSeconds,
		CompletedWorkCount: e.s.completedWork,
	}

	if e.s.kind.IsBreak() && e.s.overtimeEnabled {
		// Same kind and record, no countdown: the break keeps running
		// until it is cancelled.
		e.s.deadline = time.Time{}
		e.s.remaining = 0
		e.s.overtime = true
		e.s.overtimeStart = now
		c.Overtime = true
		return c, true
	}

	e.resetLocked()
	return c, true
}

// Status returns the current session view.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked()
}

// SetCompletedWorkCount seeds the counter, e.g. from today's history when
// the process starts. It only applies while idle.
func (e *Engine) SetCompletedWorkCount(n uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.s.state != StateIdle {
		return fmt.Errorf("%w: timer is active", ErrInvalidTransition)
	}
	e.s.completedWork = n
	return nil
}

func (e *Engine) snapshot() snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot{
		state:         e.s.state,
		kind:          e.s.kind,
		deadline:      e.s.deadline,
		overtime:      e.s.overtime,
		overtimeStart: e.s.overtimeStart,
		generation:    e.s.generation,
	}
}

func (e *Engine) statusLocked() Status {
	st := Status{
		State:                  e.s.state,
		Kind:                   e.s.kind,
		RemainingMs:            durationMs(e.remainingLocked()),
		PlannedDurationSeconds: e.s.plannedSeconds,
		RecordID:               e.s.recordID,
		CompletedWorkCount:     e.s.completedWork,
		Overtime:               e.s.overtime,
		Generation:             e.s.generation,
	}
	if e.s.overtime {
		st.OvertimeMs = durationMs(e.clock.Now().Sub(e.s.overtimeStart))
	}
	return st
}

// remainingLocked recomputes the countdown from the deadline while running;
// the stored snapshot is only used while paused.
func (e *Engine) remainingLocked() time.Duration {
	if e.s.overtime {
		return 0
	}
	switch e.s.state {
	case StateRunning:
		d := e.s.deadline.Sub(e.clock.Now())
		if d < 0 {
			return 0
		}
		return d
	case StatePaused:
		return e.s.remaining
	}
	return 0
}

// resetLocked returns to idle, keeping the work counter and the kind of the
// last interval.
func (e *Engine) resetLocked() {
	e.s.state = StateIdle
	e.s.deadline = time.Time{}
	e.s.remaining = 0
	e.s.plannedSeconds = 0
	e.s.recordID = 0
	e.s.overtime = false
	e.s.overtimeStart = time.Time{}
	e.s.overtimeEnabled = false
}
