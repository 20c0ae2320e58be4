package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fakeyudi/pomo/internal/config"
	"github.com/fakeyudi/pomo/internal/interval"
	"github.com/fakeyudi/pomo/internal/settings"
	"github.com/fakeyudi/pomo/internal/timer"
)

// syncBuffer is a bytes.Buffer safe to read while a command writes to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(syncBuffer)
	err = executeCommandContext(context.Background(), buf, root, args...)
	return buf.String(), err
}

// executeCommandContext runs root with ctx, writing combined output to out.
func executeCommandContext(ctx context.Context, out *syncBuffer, root *cobra.Command, args ...string) error {
	resetCommandState(root)
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	_, err := root.ExecuteContextC(ctx)
	return err
}

// resetCommandState clears flag values and contexts left by a previous run
// in the same test binary.
func resetCommandState(root *cobra.Command) {
	root.SetIn(nil)
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		c.SetContext(nil)
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(root)
}

// testEnv points every pomo directory at a fresh temp dir, writes default
// settings so no first-run wizard is offered, and speeds up the scheduler.
// It returns the database path.
func testEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))

	work := filepath.Join(home, "work")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(work)
	if err := os.WriteFile(".pomoconfig", []byte(`{"tick_interval_ms": 20}`), 0o644); err != nil {
		t.Fatal(err)
	}
	writeSettings(t, settings.Defaults())
	return filepath.Join(home, "data", "pomo", "pomo.duckdb")
}

// seedStore opens the database at path for the duration of fn.
func seedStore(t *testing.T, path string, fn func(ctx context.Context, s interval.Store)) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	s, err := interval.OpenDuckStore(ctx, path)
	if err != nil {
		t.Fatalf("OpenDuckStore: %v", err)
	}
	defer s.Close()
	fn(ctx, s)
}

// addRecord begins a record and, unless outcome is empty, finalizes it.
func addRecord(t *testing.T, ctx context.Context, s interval.Store, kind timer.Kind, start time.Time, planned, actual uint32, outcome timer.Outcome) int64 {
	t.Helper()
	id, err := s.Begin(ctx, kind, start.UTC(), planned)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if outcome != "" {
		end := start.Add(time.Duration(actual) * time.Second)
		if err := s.Finalize(ctx, id, end.UTC(), actual, outcome); err != nil {
			t.Fatalf("Finalize: %v", err)
		}
	}
	return id
}

// listAll reads every record back after a command has closed the database.
func listAll(t *testing.T, path string) []interval.Record {
	t.Helper()
	var out []interval.Record
	seedStore(t, path, func(ctx context.Context, s interval.Store) {
		records, err := s.List(ctx, interval.Filter{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		out = records
	})
	return out
}

// writeSettings saves s where the commands will look for it.
func writeSettings(t *testing.T, s settings.Settings) string {
	t.Helper()
	path, err := config.Defaults().ResolveSettingsPath()
	if err != nil {
		t.Fatal(err)
	}
	if err := settings.Save(path, s); err != nil {
		t.Fatal(err)
	}
	return path
}
