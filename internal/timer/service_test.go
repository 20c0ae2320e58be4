package timer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/pomo/internal/interval"
	"github.com/fakeyudi/pomo/internal/interval/mocks"
	"github.com/fakeyudi/pomo/internal/timer"
	"github.com/fakeyudi/pomo/internal/timer/timertest"
)

func newService(t *testing.T, store timer.Gateway, overtime bool, clock timer.Clock, onError func(error)) *timer.Service {
	t.Helper()
	svc := timer.NewService(store, timer.StaticSettings(overtime), timer.Options{
		Clock:        clock,
		TickInterval: 2 * time.Millisecond,
		OnError:      onError,
	})
	t.Cleanup(svc.Close)
	return svc
}

// nextComplete waits for the next complete event on sub.
func nextComplete(t *testing.T, sub timer.Subscription) timer.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				t.Fatal("subscription closed")
			}
			if ev.Type == timer.EventComplete {
				return ev
			}
		case <-deadline:
			t.Fatal("no complete event")
		}
	}
}

func TestServiceStartRejectsZeroDuration(t *testing.T) {
	store := mocks.NewMockGateway(t)
	svc := newService(t, store, false, timertest.NewClock(), nil)

	_, err := svc.Start(context.Background(), timer.KindWork, 0)
	require.ErrorIs(t, err, timer.ErrInvalidArgument)
	assert.Equal(t, timer.StateIdle, svc.Status().State)
}

func TestServiceCompletesAndFinalizes(t *testing.T) {
	ctx := context.Background()
	clock := timertest.NewClock()
	store := interval.NewMemoryStore()
	svc := newService(t, store, false, clock, nil)
	sub := svc.Subscribe(64)

	st, err := svc.Start(ctx, timer.KindWork, 60)
	require.NoError(t, err)
	require.NotZero(t, st.RecordID)

	rec, err := store.Get(ctx, st.RecordID)
	require.NoError(t, err)
	assert.Equal(t, interval.StatusInProgress, rec.Status)
	assert.Equal(t, uint32(60), rec.PlannedDurationSeconds)

	clock.Advance(time.Minute)
	ev := nextComplete(t, sub)
	assert.Equal(t, st.RecordID, ev.RecordID)
	assert.Equal(t, uint32(1), ev.CompletedWorkCount)
	assert.False(t, ev.Overtime)

	require.Eventually(t, func() bool {
		r, err := store.Get(ctx, st.RecordID)
		return err == nil && r.Status == interval.StatusCompleted
	}, time.Second, time.Millisecond)
	rec, _ = store.Get(ctx, st.RecordID)
	require.NotNil(t, rec.DurationSeconds)
	assert.Equal(t, uint32(60), *rec.DurationSeconds)
	assert.NotNil(t, rec.EndTime)
	assert.Equal(t, timer.StateIdle, svc.Status().State)
}

func TestServiceCancelRecordsElapsed(t *testing.T) {
	ctx := context.Background()
	clock := timertest.NewClock()
	store := interval.NewMemoryStore()
	svc := newService(t, store, false, clock, nil)

	st, err := svc.Start(ctx, timer.KindWork, 1500)
	require.NoError(t, err)
	clock.Advance(30 * time.Second)

	after, err := svc.Cancel(ctx)
	require.NoError(t, err)
	assert.Equal(t, timer.StateIdle, after.State)

	rec, err := store.Get(ctx, st.RecordID)
	require.NoError(t, err)
	assert.Equal(t, interval.StatusCancelled, rec.Status)
	require.NotNil(t, rec.DurationSeconds)
	assert.Equal(t, uint32(30), *rec.DurationSeconds)

	_, err = svc.Cancel(ctx)
	assert.ErrorIs(t, err, timer.ErrInvalidTransition)
}

func TestServiceStartWhileActive(t *testing.T) {
	ctx := context.Background()
	store := interval.NewMemoryStore()
	svc := newService(t, store, false, timertest.NewClock(), nil)

	_, err := svc.Start(ctx, timer.KindWork, 1500)
	require.NoError(t, err)
	_, err = svc.Start(ctx, timer.KindShortBreak, 300)
	require.ErrorIs(t, err, timer.ErrInvalidTransition)

	records, err := store.List(ctx, interval.Filter{})
	require.NoError(t, err)
	assert.Len(t, records, 1, "a rejected start writes nothing")
}

func TestServiceBeginFailure(t *testing.T) {
	store := mocks.NewMockGateway(t)
	store.On("Begin", mock.Anything, timer.KindWork, mock.Anything, uint32(1500)).
		Return(int64(0), errors.New("database is locked")).Once()
	svc := newService(t, store, false, timertest.NewClock(), nil)

	_, err := svc.Start(context.Background(), timer.KindWork, 1500)
	require.Error(t, err)
	assert.ErrorIs(t, err, timer.ErrPersistence)
	var perr *timer.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "begin interval", perr.Op)
	assert.Equal(t, timer.StateIdle, svc.Status().State)
}

func TestServiceOvertimeCancelDoesNotFinalizeTwice(t *testing.T) {
	ctx := context.Background()
	clock := timertest.NewClock()
	store := mocks.NewMockGateway(t)
	store.On("Begin", mock.Anything, timer.KindShortBreak, mock.Anything, uint32(300)).
		Return(int64(5), nil).Once()
	store.On("Finalize", mock.Anything, int64(5), mock.Anything, uint32(300), timer.OutcomeCompleted).
		Return(nil).Once()
	svc := newService(t, store, true, clock, nil)
	sub := svc.Subscribe(64)

	_, err := svc.Start(ctx, timer.KindShortBreak, 300)
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)

	ev := nextComplete(t, sub)
	assert.True(t, ev.Overtime)
	st := svc.Status()
	assert.Equal(t, timer.StateRunning, st.State)
	assert.True(t, st.Overtime)

	clock.Advance(time.Minute)
	assert.Equal(t, int64(60_000), svc.Status().OvertimeMs)

	after, err := svc.Cancel(ctx)
	require.NoError(t, err)
	assert.Equal(t, timer.StateIdle, after.State)
	// The mock fails the test on any second Finalize call.
}

func TestServiceFinalizeFailureReachesErrorHook(t *testing.T) {
	ctx := context.Background()
	clock := timertest.NewClock()
	store := mocks.NewMockGateway(t)
	store.On("Begin", mock.Anything, timer.KindWork, mock.Anything, uint32(10)).
		Return(int64(8), nil).Once()
	store.On("Finalize", mock.Anything, int64(8), mock.Anything, uint32(10), timer.OutcomeCompleted).
		Return(errors.New("disk full")).Once()

	errs := make(chan error, 1)
	svc := newService(t, store, false, clock, func(err error) { errs <- err })
	sub := svc.Subscribe(64)

	_, err := svc.Start(ctx, timer.KindWork, 10)
	require.NoError(t, err)
	clock.Advance(10 * time.Second)

	ev := nextComplete(t, sub)
	assert.Equal(t, int64(8), ev.RecordID)
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, timer.ErrPersistence)
	case <-time.After(time.Second):
		t.Fatal("finalize failure was not reported")
	}
	assert.Equal(t, timer.StateIdle, svc.Status().State)
	assert.Equal(t, uint32(1), svc.Status().CompletedWorkCount)
}

func TestServicePauseResume(t *testing.T) {
	ctx := context.Background()
	clock := timertest.NewClock()
	store := interval.NewMemoryStore()
	svc := newService(t, store, false, clock, nil)
	sub := svc.Subscribe(256)

	_, err := svc.Start(ctx, timer.KindWork, 120)
	require.NoError(t, err)
	clock.Advance(20 * time.Second)

	paused, err := svc.Pause()
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), paused.RemainingMs)

	clock.Advance(time.Hour)
	_, err = svc.Pause()
	assert.ErrorIs(t, err, timer.ErrInvalidTransition)

	resumed, err := svc.Resume()
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), resumed.RemainingMs)

	clock.Advance(100 * time.Second)
	ev := nextComplete(t, sub)
	assert.Equal(t, uint32(1), ev.CompletedWorkCount)
}
