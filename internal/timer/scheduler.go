package timer

import (
	"context"
	"log/slog"
	"time"
)

// DefaultTickInterval is how often a running session is polled.
const DefaultTickInterval = 250 * time.Millisecond

// FinalizeFunc persists a completion. It runs outside the engine lock.
type FinalizeFunc func(ctx context.Context, c Completion) error

// Scheduler drives one running phase of a session: it samples the engine
// every period, publishes ticks, and completes the interval when its
// deadline passes. It stops on its own once the phase it was started for
// is no longer running.
type Scheduler struct {
	Engine    *Engine
	Clock     Clock
	Period    time.Duration
	Publisher Publisher
	Finalize  FinalizeFunc
	Logger    *slog.Logger
	// OnError receives finalize failures. The scheduler carries on either way.
	OnError func(error)
}

// Run loops until the phase identified by gen ends or ctx is done.
func (s *Scheduler) Run(ctx context.Context, gen uint64) {
	period := s.Period
	if period <= 0 {
		period = DefaultTickInterval
	}
	logger := s.logger().With(slog.Uint64("generation", gen))
	logger.Debug("scheduler started")
	defer logger.Debug("scheduler stopped")

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !s.step(ctx, gen, logger) {
			return
		}
	}
}

// step performs one poll. It returns false when the loop should exit.
func (s *Scheduler) step(ctx context.Context, gen uint64, logger *slog.Logger) bool {
	snap := s.Engine.snapshot()
	if snap.state != StateRunning || snap.generation != gen {
		return false
	}

	now := s.clock().Now()
	if snap.overtime {
		s.publish(Event{
			Type:       EventTick,
			Kind:       snap.kind,
			OvertimeMs: durationMs(now.Sub(snap.overtimeStart)),
			Overtime:   true,
		})
		return true
	}

	if now.Before(snap.deadline) {
		s.publish(Event{
			Type:        EventTick,
			Kind:        snap.kind,
			RemainingMs: durationMs(snap.deadline.Sub(now)),
		})
		return true
	}

	c, ok := s.Engine.Complete(gen)
	if !ok {
		// A command changed the session between the read and the
		// transition; it owns the record now.
		logger.Debug("completion superseded by concurrent command")
		return false
	}

	if s.Finalize != nil {
		if err := s.Finalize(context.WithoutCancel(ctx), c); err != nil {
			logger.Error("finalize interval failed",
				slog.Int64("record_id", c.RecordID),
				slog.String("kind", string(c.Kind)),
				slog.Any("error", err),
			)
			if s.OnError != nil {
				s.OnError(err)
			}
		}
	}

	logger.Info("interval completed",
		slog.Int64("record_id", c.RecordID),
		slog.String("kind", string(c.Kind)),
		slog.Uint64("completed_work_count", uint64(c.CompletedWorkCount)),
		slog.Bool("overtime", c.Overtime),
	)
	s.publish(Event{
		Type:               EventComplete,
		Kind:               c.Kind,
		RecordID:           c.RecordID,
		CompletedWorkCount: c.CompletedWorkCount,
		Overtime:           c.Overtime,
	})
	return c.Overtime
}

func (s *Scheduler) publish(event Event) {
	if s.Publisher != nil {
		s.Publisher.Publish(event)
	}
}

func (s *Scheduler) clock() Clock {
	if s.Clock != nil {
		return s.Clock
	}
	return s.Engine.clock
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}
