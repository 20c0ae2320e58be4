package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/pomo/internal/config"
	"github.com/fakeyudi/pomo/internal/interval"
	"github.com/fakeyudi/pomo/internal/logging"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// logger writes to pomo.log in the data directory once PersistentPreRunE
// has run.
var (
	logger  = logging.Discard()
	logFile *logging.File
)

// ephemeral swaps the database for an in-memory store.
var ephemeral bool

var rootCmd = &cobra.Command{
	Use:          "pomo",
	Short:        "A pomodoro timer for the terminal",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A previous run in the same process may have failed before closing.
		closeLog()

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		dataDir, err := config.DataDir()
		if err != nil {
			return fmt.Errorf("resolving data directory: %w", err)
		}
		logFile, err = logging.Open(filepath.Join(dataDir, "pomo.log"), cfg.Level())
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		logger = logFile.Logger

		// First run: no settings file yet, so offer the setup wizard.
		// Only do this when stdin is an interactive terminal.
		if offersFirstRunSetup(cmd) && term.IsTerminal(os.Stdin.Fd()) {
			path, err := cfg.ResolveSettingsPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				cmd.Println()
				cmd.Println("  Welcome to pomo! Looks like this is your first time.")
				if err := runSetup(cmd); err != nil {
					return err
				}
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep intervals in memory only; nothing is written to disk")
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

func closeLog() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	logger = logging.Discard()
	return err
}

// offersFirstRunSetup is false for the commands that edit settings themselves.
func offersFirstRunSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "setup", "settings":
			return false
		}
	}
	return true
}

// openStore opens the interval database named by the config, or an
// in-memory store with --ephemeral.
func openStore(ctx context.Context) (interval.Store, error) {
	if ephemeral {
		return interval.NewMemoryStore(), nil
	}
	path, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolving database path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	store, err := interval.OpenDuckStore(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("opening %s (is another 'pomo start' running?): %w", path, err)
	}
	return store, nil
}

// startOfDay returns local midnight on t's day.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Local().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
