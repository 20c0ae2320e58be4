package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fakeyudi/pomo/internal/interval"
)

// Renderer serializes a History to bytes.
type Renderer interface {
	Render(h *History) ([]byte, error)
}

// ForFormat returns the renderer for "markdown" or "json".
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "markdown", "md":
		return &MarkdownRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want markdown or json)", format)
}

// JSONRenderer renders a History as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(h *History) ([]byte, error) {
	return json.MarshalIndent(h, "", "  ")
}

// MarkdownRenderer renders a History as a human-readable Markdown report.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(h *History) ([]byte, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Pomodoro history: %s to %s\n\n",
		h.Since.Local().Format("2006-01-02"),
		h.Until.Local().Format("2006-01-02"),
	)

	// ## Summary
	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- Completed focus intervals: %d\n", h.Summary.CompletedWork)
	fmt.Fprintf(&sb, "- Focus time: %s\n", FormatDuration(h.Summary.FocusSeconds))
	fmt.Fprintf(&sb, "- Completed breaks: %d\n", h.Summary.CompletedBreaks)
	fmt.Fprintf(&sb, "- Break time: %s\n", FormatDuration(h.Summary.BreakSeconds))
	fmt.Fprintf(&sb, "- Cancelled: %d\n", h.Summary.Cancelled)
	if h.Summary.InProgress > 0 {
		fmt.Fprintf(&sb, "- In progress: %d\n", h.Summary.InProgress)
	}
	sb.WriteString("\n")

	// ## Intervals
	sb.WriteString("## Intervals\n\n")
	if len(h.Intervals) == 0 {
		sb.WriteString("_No intervals recorded._\n")
	} else {
		sb.WriteString("| # | Started | Type | Planned | Actual | Status |\n")
		sb.WriteString("|---|---------|------|---------|--------|--------|\n")
		for _, rec := range h.Intervals {
			fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s | %s |\n",
				rec.ID,
				rec.StartTime.Local().Format("2006-01-02 15:04"),
				rec.Kind.Label(),
				FormatDuration(uint64(rec.PlannedDurationSeconds)),
				actual(rec),
				rec.Status,
			)
		}
	}
	sb.WriteString("\n")

	return []byte(sb.String()), nil
}

func actual(rec interval.Record) string {
	if rec.DurationSeconds == nil {
		return "-"
	}
	return FormatDuration(uint64(*rec.DurationSeconds))
}
