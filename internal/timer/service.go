package timer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Gateway persists interval records. It is implemented by the interval
// stores.
type Gateway interface {
	Begin(ctx context.Context, kind Kind, start time.Time, plannedSeconds uint32) (int64, error)
	Finalize(ctx context.Context, id int64, end time.Time, actualSeconds uint32, outcome Outcome) error
}

// SettingsSource supplies the break-overtime preference. It is read once
// per Start.
type SettingsSource interface {
	OvertimeEnabled() bool
}

// StaticSettings is a SettingsSource with a fixed value.
type StaticSettings bool

// OvertimeEnabled returns the fixed value.
func (s StaticSettings) OvertimeEnabled() bool { return bool(s) }

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	Clock        Clock
	TickInterval time.Duration
	Logger       *slog.Logger
	// OnError receives persistence failures from the background finalize
	// path, which are otherwise only logged.
	OnError func(error)
}

// Service is the command surface over one Engine: it pairs every
// transition with its persistence and runs a Scheduler for each running
// phase. Create one per process and share it by reference.
type Service struct {
	engine   *Engine
	store    Gateway
	settings SettingsSource
	broker   *Broker

	clock   Clock
	period  time.Duration
	logger  *slog.Logger
	onError func(error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService wires an idle engine to store and settings.
func NewService(store Gateway, settings SettingsSource, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if settings == nil {
		settings = StaticSettings(false)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		engine:   NewEngine(opts.Clock),
		store:    store,
		settings: settings,
		broker:   NewBroker(),
		clock:    opts.Clock,
		period:   opts.TickInterval,
		logger:   opts.Logger,
		onError:  opts.OnError,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Engine exposes the underlying engine for read-only use.
func (s *Service) Engine() *Engine {
	return s.engine
}

// Start begins a new interval of kind lasting durationSeconds.
func (s *Service) Start(ctx context.Context, kind Kind, durationSeconds uint32) (Status, error) {
	if durationSeconds == 0 {
		return Status{}, fmt.Errorf("%w: duration must be greater than zero", ErrInvalidArgument)
	}
	if !kind.Valid() {
		return Status{}, fmt.Errorf("%w: unknown interval kind %q", ErrInvalidArgument, kind)
	}
	if st := s.engine.Status(); st.State != StateIdle {
		return Status{}, fmt.Errorf("%w: timer is already %s", ErrInvalidTransition, st.State)
	}

	overtime := s.settings.OvertimeEnabled()
	id, err := s.store.Begin(ctx, kind, s.wallNow(), durationSeconds)
	if err != nil {
		return Status{}, &PersistenceError{Op: "begin interval", Err: err}
	}

	status, err := s.engine.Start(kind, durationSeconds, id, overtime)
	if err != nil {
		// Lost a race with another Start; do not leave the new row open.
		if ferr := s.store.Finalize(ctx, id, s.wallNow(), 0, OutcomeCancelled); ferr != nil {
			s.logger.Warn("discard interval failed", slog.Int64("record_id", id), slog.Any("error", ferr))
		}
		return Status{}, err
	}

	s.logger.Info("interval started",
		slog.Int64("record_id", id),
		slog.String("kind", string(kind)),
		slog.Uint64("planned_seconds", uint64(durationSeconds)),
		slog.Bool("overtime_enabled", overtime),
	)
	s.spawn(status.Generation)
	return status, nil
}

// Pause freezes the running countdown.
func (s *Service) Pause() (Status, error) {
	status, err := s.engine.Pause()
	if err != nil {
		return Status{}, err
	}
	s.logger.Info("interval paused", slog.Int64("record_id", status.RecordID), slog.Int64("remaining_ms", status.RemainingMs))
	return status, nil
}

// Resume restarts a paused countdown.
func (s *Service) Resume() (Status, error) {
	status, err := s.engine.Resume()
	if err != nil {
		return Status{}, err
	}
	s.logger.Info("interval resumed", slog.Int64("record_id", status.RecordID), slog.Int64("remaining_ms", status.RemainingMs))
	s.spawn(status.Generation)
	return status, nil
}

// Cancel ends the active interval and records it as cancelled, unless it
// was already completed before entering overtime. The engine is idle
// afterwards even when the returned error reports a persistence failure.
func (s *Service) Cancel(ctx context.Context) (Status, error) {
	c, err := s.engine.Cancel()
	if err != nil {
		return Status{}, err
	}
	status := s.engine.Status()

	if c.AlreadyFinalized {
		s.logger.Info("overtime ended", slog.Int64("record_id", c.RecordID))
		return status, nil
	}

	s.logger.Info("interval cancelled",
		slog.Int64("record_id", c.RecordID),
		slog.Uint64("elapsed_seconds", uint64(c.ElapsedSeconds)),
	)
	if err := s.store.Finalize(ctx, c.RecordID, s.wallNow(), c.ElapsedSeconds, OutcomeCancelled); err != nil {
		return status, &PersistenceError{Op: "cancel interval", Err: err}
	}
	return status, nil
}

// Status returns the current session view.
func (s *Service) Status() Status {
	return s.engine.Status()
}

// Subscribe registers an event observer.
func (s *Service) Subscribe(buffer int) Subscription {
	return s.broker.Subscribe(buffer)
}

// Unsubscribe removes an event observer.
func (s *Service) Unsubscribe(id uuid.UUID) {
	s.broker.Unsubscribe(id)
}

// Close stops all schedulers and closes subscriber channels. An active
// interval is left as it is; cancel it first to record it.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
	s.broker.Close()
}

func (s *Service) spawn(gen uint64) {
	sched := &Scheduler{
		Engine:    s.engine,
		Clock:     s.clock,
		Period:    s.period,
		Publisher: s.broker,
		Finalize:  s.finalizeCompleted,
		Logger:    s.logger,
		OnError:   s.reportError,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sched.Run(s.ctx, gen)
	}()
}

func (s *Service) finalizeCompleted(ctx context.Context, c Completion) error {
	return s.store.Finalize(ctx, c.RecordID, s.wallNow(), c.PlannedSeconds, OutcomeCompleted)
}

func (s *Service) reportError(err error) {
	if s.onError == nil {
		return
	}
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		err = &PersistenceError{Op: "complete interval", Err: err}
	}
	s.onError(err)
}

// wallNow is the timestamp written to records. Durations never derive from it.
func (s *Service) wallNow() time.Time {
	return s.clock.Now().UTC()
}
