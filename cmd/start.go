package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/pomo/internal/interval"
	"github.com/fakeyudi/pomo/internal/settings"
	"github.com/fakeyudi/pomo/internal/timer"
	"github.com/fakeyudi/pomo/internal/tui"
)

var (
	startMinutes int
	startSeconds int
	startPlain   bool
	startAuto    bool
)

var startCmd = &cobra.Command{
	Use:   "start [work|short|long]",
	Short: "Run a focus interval or a break in the foreground",
	Long: `Run a focus interval or a break in the foreground.

On an interactive terminal a full-screen timer is shown (space pauses and
resumes, c cancels, q quits and cancels). Otherwise, or with --plain, the
remaining time is printed once per second and Ctrl+C cancels.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := cfg.ResolveSettingsPath()
	if err != nil {
		return err
	}
	watcher, err := settings.NewWatcher(path, logger)
	if err != nil {
		return err
	}
	prefs := watcher.Current()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	today := startOfDay(time.Now())
	completed, err := interval.CompletedWorkSince(ctx, store, today)
	if err != nil {
		return fmt.Errorf("reading today's intervals: %w", err)
	}
	if open, err := store.List(ctx, interval.Filter{Status: interval.StatusInProgress}); err == nil && len(open) > 0 {
		cmd.PrintErrf("warning: %d interval(s) still marked in progress; run 'pomo stop' to close them\n", len(open))
	}

	kind, err := chooseKind(ctx, store, prefs, args, completed, today)
	if err != nil {
		return err
	}
	if startMinutes < 0 || startSeconds < 0 {
		return fmt.Errorf("%w: duration must be positive", timer.ErrInvalidArgument)
	}
	if uint64(startSeconds) > math.MaxUint32 || uint64(startMinutes) > math.MaxUint32/60 {
		return fmt.Errorf("%w: duration is too long", timer.ErrInvalidArgument)
	}
	secs := prefs.Seconds(kind)
	switch {
	case startSeconds > 0:
		secs = uint32(startSeconds)
	case startMinutes > 0:
		secs = uint32(startMinutes) * 60
	}

	persistErrs := make(chan error, 8)
	svc := timer.NewService(store, watcher, timer.Options{
		TickInterval: cfg.TickInterval(),
		Logger:       logger,
		OnError: func(err error) {
			logger.Error("interval not saved", slog.Any("error", err))
			select {
			case persistErrs <- err:
			default:
			}
		},
	})
	defer svc.Close()
	if err := svc.Engine().SetCompletedWorkCount(completed); err != nil {
		return err
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go func() {
		if err := watcher.Run(watchCtx); err != nil {
			logger.Warn("settings are not watched for changes", slog.Any("error", err))
		}
	}()

	st, err := svc.Start(ctx, kind, secs)
	if err != nil {
		return err
	}

	if !startPlain && term.IsTerminal(os.Stdout.Fd()) {
		return runInteractive(cmd, svc, st)
	}
	return runPlain(ctx, cmd, svc, st, persistErrs)
}

// chooseKind resolves the interval type from the argument, or from today's
// history with --auto.
func chooseKind(ctx context.Context, store interval.Store, prefs settings.Settings, args []string, completed uint32, today time.Time) (timer.Kind, error) {
	if len(args) == 1 {
		if startAuto {
			return "", errors.New("--auto picks the interval type; do not pass one")
		}
		return timer.ParseKind(args[0])
	}
	if !startAuto {
		return timer.KindWork, nil
	}
	recent, err := store.List(ctx, interval.Filter{Since: today, Status: interval.StatusCompleted, Limit: 1})
	if err != nil {
		return "", fmt.Errorf("reading today's intervals: %w", err)
	}
	var last timer.Kind
	if len(recent) > 0 {
		last = recent[0].Kind
	}
	return prefs.NextKind(last, completed), nil
}

func runInteractive(cmd *cobra.Command, svc *timer.Service, st timer.Status) error {
	outcome, err := tui.Run(svc)
	if svc.Status().State != timer.StateIdle {
		// The view exited without ending the interval; never leave it open.
		if _, cerr := svc.Cancel(context.Background()); cerr != nil && err == nil {
			err = cerr
		}
		outcome = tui.Cancelled
	}
	switch outcome {
	case tui.Completed:
		cmd.Printf("%s complete. Focus intervals completed: %d\n", st.Kind.Label(), svc.Status().CompletedWorkCount)
	case tui.OvertimeEnded:
		cmd.Printf("%s complete, overtime ended.\n", st.Kind.Label())
	case tui.Cancelled:
		cmd.Printf("%s cancelled.\n", st.Kind.Label())
	}
	return err
}

func runPlain(ctx context.Context, cmd *cobra.Command, svc *timer.Service, st timer.Status, persistErrs <-chan error) error {
	sub := svc.Subscribe(64)
	defer svc.Unsubscribe(sub.ID)

	cmd.Printf("%s started: %s (interval #%d)\n", st.Kind.Label(), tui.FormatClock(st.Remaining()), st.RecordID)
	last := ""
	for {
		select {
		case <-ctx.Done():
			overtime := svc.Status().Overtime
			_, err := svc.Cancel(context.WithoutCancel(ctx))
			if errors.Is(err, timer.ErrInvalidTransition) {
				// Completed just before the interrupt.
				return nil
			}
			if overtime {
				cmd.Println("Overtime ended.")
			} else {
				cmd.Printf("%s cancelled.\n", st.Kind.Label())
			}
			return err

		case err := <-persistErrs:
			cmd.PrintErrf("warning: %v\n", err)

		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			switch ev.Type {
			case timer.EventTick:
				line := tui.FormatClock(time.Duration(ev.RemainingMs) * time.Millisecond)
				if ev.Overtime {
					line = "+" + tui.FormatClock(time.Duration(ev.OvertimeMs)*time.Millisecond)
				}
				if line != last {
					cmd.Println(line)
					last = line
				}
			case timer.EventComplete:
				drain(cmd, persistErrs)
				cmd.Printf("%s complete. Focus intervals completed: %d\n", ev.Kind.Label(), ev.CompletedWorkCount)
				if !ev.Overtime {
					return nil
				}
				cmd.Println("Overtime running; press Ctrl+C to end it.")
			}
		}
	}
}

// drain prints persistence errors already reported.
func drain(cmd *cobra.Command, errs <-chan error) {
	for {
		select {
		case err := <-errs:
			cmd.PrintErrf("warning: %v\n", err)
		default:
			return
		}
	}
}

func init() {
	startCmd.Flags().IntVar(&startMinutes, "minutes", 0, "interval length in minutes (default from settings)")
	startCmd.Flags().IntVar(&startSeconds, "seconds", 0, "interval length in seconds")
	startCmd.Flags().BoolVar(&startPlain, "plain", false, "print the countdown instead of the full-screen timer")
	startCmd.Flags().BoolVar(&startAuto, "auto", false, "pick focus, short or long break from today's history")
	startCmd.MarkFlagsMutuallyExclusive("minutes", "seconds")
	rootCmd.AddCommand(startCmd)
}
