package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/pomo/internal/settings"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure interval lengths and break overtime (re-run anytime)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd)
	},
}

// runSetup runs the interactive setup wizard on the command's streams and
// saves the result to settings.yaml.
func runSetup(cmd *cobra.Command) error {
	path, err := cfg.ResolveSettingsPath()
	if err != nil {
		return err
	}

	// Existing settings are the defaults for each prompt.
	existing, err := settings.Load(path)
	if err != nil {
		logger.Warn("ignoring unreadable settings", "path", path, "error", err)
		existing = settings.Defaults()
	}

	s, err := settings.RunSetup(cmd.InOrStdin(), cmd.OutOrStdout(), existing)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}
	if err := settings.Save(path, s); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	cmd.Println("  ✓ Settings saved to " + path)
	cmd.Println("  Run 'pomo start' to begin a focus interval.")
	cmd.Println()
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
