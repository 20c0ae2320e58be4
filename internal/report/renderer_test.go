package report_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/pomo/internal/interval"
	"github.com/fakeyudi/pomo/internal/report"
	"github.com/fakeyudi/pomo/internal/timer"
)

// generateTime produces a time truncated to second precision.
func generateTime(t *rapid.T, label string) time.Time {
	sec := rapid.Int64Range(1_700_000_000, 1_800_000_000).Draw(t, label+"_unix_sec")
	return time.Unix(sec, 0).UTC()
}

// generateRecord produces a record in any of the three lifecycle states.
func generateRecord(t *rapid.T, id int64) interval.Record {
	start := generateTime(t, "start")
	planned := rapid.Uint32Range(1, 7200).Draw(t, "planned")
	rec := interval.Record{
		ID:                     id,
		Kind:                   rapid.SampledFrom([]timer.Kind{timer.KindWork, timer.KindShortBreak, timer.KindLongBreak}).Draw(t, "kind"),
		StartTime:              start,
		PlannedDurationSeconds: planned,
		Status:                 rapid.SampledFrom([]interval.Status{interval.StatusInProgress, interval.StatusCompleted, interval.StatusCancelled}).Draw(t, "status"),
		CreatedAt:              start,
	}
	if rec.Status != interval.StatusInProgress {
		secs := rapid.Uint32Range(0, planned).Draw(t, "actual")
		end := start.Add(time.Duration(secs) * time.Second)
		rec.EndTime = &end
		rec.DurationSeconds = &secs
	}
	return rec
}

func generateHistory(t *rapid.T) *report.History {
	n := rapid.IntRange(0, 8).Draw(t, "num_records")
	records := make([]interval.Record, n)
	for i := range records {
		records[i] = generateRecord(t, int64(i+1))
	}
	since := generateTime(t, "since")
	return report.Build(since, since.Add(24*time.Hour), records)
}

// Every report carries all sections and one row per record.
func TestHistoryCompleteness(t *testing.T) {
	md := &report.MarkdownRenderer{}
	js := &report.JSONRenderer{}

	rapid.Check(t, func(t *rapid.T) {
		h := generateHistory(t)

		out, err := md.Render(h)
		if err != nil {
			t.Fatalf("MarkdownRenderer.Render: %v", err)
		}
		text := string(out)
		for _, section := range []string{"## Summary", "## Intervals"} {
			if !strings.Contains(text, section) {
				t.Errorf("Markdown output missing section %q", section)
			}
		}
		rows := 0
		for _, line := range strings.Split(text, "\n") {
			if strings.HasPrefix(line, "| ") && !strings.HasPrefix(line, "| # ") {
				rows++
			}
		}
		if rows != len(h.Intervals) {
			t.Errorf("Markdown rows: got %d, want %d", rows, len(h.Intervals))
		}

		data, err := js.Render(h)
		if err != nil {
			t.Fatalf("JSONRenderer.Render: %v", err)
		}
		var decoded struct {
			Summary   map[string]any   `json:"summary"`
			Intervals []map[string]any `json:"intervals"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("JSON output does not parse: %v", err)
		}
		if len(decoded.Intervals) != len(h.Intervals) {
			t.Errorf("JSON intervals: got %d, want %d", len(decoded.Intervals), len(h.Intervals))
		}
		for _, key := range []string{"completed_work", "focus_seconds", "cancelled"} {
			if _, ok := decoded.Summary[key]; !ok {
				t.Errorf("JSON summary missing key %q", key)
			}
		}
	})
}

// Summary counts partition the records by status.
func TestSummaryPartitionsRecords(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := generateHistory(t)
		s := h.Summary
		total := s.CompletedWork + s.CompletedBreaks + s.Cancelled + s.InProgress
		if total != len(h.Intervals) {
			t.Fatalf("summary counts %d records, history has %d", total, len(h.Intervals))
		}

		var focus uint64
		for _, r := range h.Intervals {
			if r.Kind == timer.KindWork && r.DurationSeconds != nil {
				focus += uint64(*r.DurationSeconds)
			}
		}
		if s.FocusSeconds != focus {
			t.Fatalf("focus seconds: got %d, want %d", s.FocusSeconds, focus)
		}
	})
}

func TestMarkdownEmptyHistory(t *testing.T) {
	since := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	h := report.Build(since, since.AddDate(0, 0, 1), nil)

	out, err := (&report.MarkdownRenderer{}).Render(h)
	if err != nil {
		t.Fatal(err)
	}
	text := string(out)
	if !strings.Contains(text, "_No intervals recorded._") {
		t.Errorf("expected empty marker, got:\n%s", text)
	}
	if !strings.Contains(text, "# Pomodoro history: 2026-03-02 to 2026-03-03") {
		t.Errorf("unexpected title:\n%s", text)
	}

	data, err := (&report.JSONRenderer{}).Render(h)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"intervals": []`) {
		t.Errorf("expected an empty intervals array, got:\n%s", data)
	}
}

func TestForFormat(t *testing.T) {
	for format, want := range map[string]string{
		"":         "*report.MarkdownRenderer",
		"markdown": "*report.MarkdownRenderer",
		"JSON":     "*report.JSONRenderer",
	} {
		r, err := report.ForFormat(format)
		if err != nil {
			t.Fatalf("ForFormat(%q): %v", format, err)
		}
		if got := typeName(r); got != want {
			t.Errorf("ForFormat(%q): got %s, want %s", format, got, want)
		}
	}
	if _, err := report.ForFormat("csv"); err == nil {
		t.Error("expected an error for csv")
	}
}

func typeName(r report.Renderer) string {
	switch r.(type) {
	case *report.MarkdownRenderer:
		return "*report.MarkdownRenderer"
	case *report.JSONRenderer:
		return "*report.JSONRenderer"
	}
	return "unknown"
}

func TestFormatDuration(t *testing.T) {
	cases := map[uint64]string{
		0:    "0s",
		42:   "42s",
		60:   "1m",
		90:   "1m30s",
		1500: "25m",
		3900: "1h05m",
	}
	for in, want := range cases {
		if got := report.FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%d): got %q, want %q", in, got, want)
		}
	}
}
