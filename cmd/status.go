package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/pomo/internal/interval"
	"github.com/fakeyudi/pomo/internal/report"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the interval in progress and today's totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		prefs, _, err := loadSettings()
		if err != nil {
			return err
		}

		open, err := store.List(ctx, interval.Filter{Status: interval.StatusInProgress})
		if err != nil {
			return err
		}
		if len(open) == 0 {
			cmd.Println("No interval in progress.")
		}
		for _, r := range open {
			cmd.Printf("In progress: %s #%d, started %s, planned %s\n",
				r.Kind.Label(),
				r.ID,
				r.StartTime.Local().Format("15:04"),
				report.FormatDuration(uint64(r.PlannedDurationSeconds)),
			)
		}

		now := time.Now()
		today := startOfDay(now)
		records, err := store.List(ctx, interval.Filter{Since: today})
		if err != nil {
			return err
		}
		h := report.Build(today, today.AddDate(0, 0, 1), records)
		cmd.Printf("Focus intervals completed today: %d (%s)\n", h.Summary.CompletedWork, report.FormatDuration(h.Summary.FocusSeconds))
		cmd.Printf("Breaks completed today: %d\n", h.Summary.CompletedBreaks)
		cmd.Printf("Cancelled today: %d\n", h.Summary.Cancelled)

		sinceLong, err := interval.CompletedWorkSince(ctx, store, today)
		if err != nil {
			return err
		}
		var last interval.Record
		for _, r := range records {
			if r.Status == interval.StatusCompleted {
				last = r
				break
			}
		}
		next := prefs.NextKind(last.Kind, sinceLong)
		cmd.Printf("Next: %s (%s)\n", next.Label(), report.FormatDuration(uint64(prefs.Seconds(next))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
