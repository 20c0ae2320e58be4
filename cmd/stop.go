package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/pomo/internal/interval"
	"github.com/fakeyudi/pomo/internal/report"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Cancel intervals left in progress by a pomo process that did not exit cleanly",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		closed, err := interval.AbandonInProgress(ctx, store, time.Now().UTC())
		if err != nil {
			return err
		}
		if len(closed) == 0 {
			cmd.Println("Nothing to stop.")
			return nil
		}
		for _, r := range closed {
			logger.Info("abandoned interval cancelled", "record_id", r.ID, "kind", string(r.Kind))
			cmd.Printf("Cancelled %s #%d after %s.\n", r.Kind.Label(), r.ID, report.FormatDuration(uint64(r.Actual()/time.Second)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
