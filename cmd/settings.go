package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/pomo/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show timer settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, path, err := loadSettings()
		if err != nil {
			return err
		}
		cmd.Printf("# %s\n", path)
		for _, key := range settings.Keys() {
			v, _ := s.Get(key)
			cmd.Printf("%s: %s\n", key, v)
		}
		return nil
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := loadSettings()
		if err != nil {
			return err
		}
		v, err := s.Get(args[0])
		if err != nil {
			return fmt.Errorf("%w (known: %v)", err, settings.Keys())
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), v)
		return err
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, path, err := loadSettings()
		if err != nil {
			return err
		}
		s, err = s.Set(args[0], args[1])
		if err != nil {
			return err
		}
		if err := settings.Save(path, s); err != nil {
			return err
		}
		logger.Info("setting changed", "key", args[0], "value", args[1])
		v, _ := s.Get(args[0])
		cmd.Printf("%s: %s\n", args[0], v)
		return nil
	},
}

// loadSettings reads settings.yaml from the configured location.
func loadSettings() (settings.Settings, string, error) {
	path, err := cfg.ResolveSettingsPath()
	if err != nil {
		return settings.Settings{}, "", err
	}
	s, err := settings.Load(path)
	if err != nil {
		return settings.Settings{}, path, err
	}
	return s, path, nil
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
