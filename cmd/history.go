package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/pomo/internal/interval"
	"github.com/fakeyudi/pomo/internal/report"
	"github.com/fakeyudi/pomo/internal/timer"
)

var (
	historyDays   int
	historyFormat string
	historyKind   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded intervals as Markdown or JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyDays < 1 {
			return fmt.Errorf("--days must be at least 1")
		}
		renderer, err := report.ForFormat(historyFormat)
		if err != nil {
			return err
		}
		filter := interval.Filter{}
		if historyKind != "" {
			if filter.Kind, err = timer.ParseKind(historyKind); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		today := startOfDay(time.Now())
		filter.Since = today.AddDate(0, 0, -(historyDays - 1))
		filter.Until = today.AddDate(0, 0, 1)
		records, err := store.List(ctx, filter)
		if err != nil {
			return err
		}

		out, err := renderer.Render(report.Build(filter.Since, filter.Until, records))
		if err != nil {
			return fmt.Errorf("rendering history: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyDays, "days", 7, "number of days to include, counting today")
	historyCmd.Flags().StringVar(&historyFormat, "format", "markdown", `output format: "markdown" or "json"`)
	historyCmd.Flags().StringVar(&historyKind, "kind", "", "only intervals of this type (work, short, long)")
	rootCmd.AddCommand(historyCmd)
}
