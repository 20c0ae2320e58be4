package settings

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps the latest settings from a file and reloads them whenever
// the file is written or replaced. It satisfies timer.SettingsSource.
type Watcher struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	current Settings
	reloads chan struct{}
}

// NewWatcher loads path once. Call Run to follow later changes.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:    path,
		logger:  logger,
		current: s,
		reloads: make(chan struct{}, 1),
	}, nil
}

// Current returns the most recently loaded settings.
func (w *Watcher) Current() Settings {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OvertimeEnabled reports the current break-overtime preference.
func (w *Watcher) OvertimeEnabled() bool {
	return w.Current().BreakOvertimeEnabled
}

// Reloaded is signalled after each successful reload. Signals coalesce.
func (w *Watcher) Reloaded() <-chan struct{} {
	return w.reloads
}

// Run watches the settings directory until ctx is cancelled. The directory
// rather than the file is watched so atomic replacement via rename is seen.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	target := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.reload()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("settings watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) reload() {
	s, err := Load(w.path)
	if err != nil {
		// Keep the previous settings; a half-written file is retried on the next event.
		w.logger.Warn("settings reload failed", slog.String("path", w.path), slog.Any("error", err))
		return
	}
	w.mu.Lock()
	w.current = s
	w.mu.Unlock()
	w.logger.Debug("settings reloaded", slog.Bool("break_overtime_enabled", s.BreakOvertimeEnabled))

	select {
	case w.reloads <- struct{}{}:
	default:
	}
}
