package cmd

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/pomo/internal/interval"
	"github.com/fakeyudi/pomo/internal/timer"
)

func seedHistory(t *testing.T) {
	t.Helper()
	db := testEnv(t)
	seedStore(t, db, func(ctx context.Context, s interval.Store) {
		today := startOfDay(time.Now()).Add(time.Minute)
		addRecord(t, ctx, s, timer.KindWork, today, 1500, 1500, timer.OutcomeCompleted)
		addRecord(t, ctx, s, timer.KindShortBreak, today.Add(30*time.Minute), 300, 300, timer.OutcomeCompleted)
		addRecord(t, ctx, s, timer.KindWork, today.AddDate(0, 0, -3), 1500, 600, timer.OutcomeCancelled)
		addRecord(t, ctx, s, timer.KindWork, today.AddDate(0, 0, -30), 1500, 1500, timer.OutcomeCompleted)
	})
}

func TestHistoryMarkdown(t *testing.T) {
	seedHistory(t)

	out, err := executeCommand(rootCmd, "history")
	require.NoError(t, err, out)
	assert.Contains(t, out, "## Summary")
	assert.Contains(t, out, "- Completed focus intervals: 1")
	assert.Contains(t, out, "- Cancelled: 1")
	assert.Equal(t, 3, strings.Count(out, "| Focus |")+strings.Count(out, "| Short break |"), "the 30-day-old record is outside the default week")
}

func TestHistoryJSONWithKind(t *testing.T) {
	seedHistory(t)

	out, err := executeCommand(rootCmd, "history", "--format", "json", "--kind", "work", "--days", "60")
	require.NoError(t, err, out)

	var h struct {
		Intervals []interval.Record `json:"intervals"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &h), out)
	require.Len(t, h.Intervals, 3)
	for i, r := range h.Intervals {
		assert.Equal(t, timer.KindWork, r.Kind)
		if i > 0 {
			assert.True(t, r.StartTime.Before(h.Intervals[i-1].StartTime), "most recent first")
		}
	}
}

func TestHistoryRejectsBadFlags(t *testing.T) {
	testEnv(t)

	for name, args := range map[string][]string{
		"format": {"history", "--format", "csv"},
		"days":   {"history", "--days", "0"},
		"kind":   {"history", "--kind", "nap"},
	} {
		t.Run(name, func(t *testing.T) {
			out, err := executeCommand(rootCmd, args...)
			assert.Error(t, err, out)
		})
	}
}
