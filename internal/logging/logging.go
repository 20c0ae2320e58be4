// Package logging opens the structured log file pomo writes to while the
// terminal is owned by the timer view.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// File is an slog.Logger backed by an append-only text log file.
// It is safe for concurrent use from multiple goroutines.
type File struct {
	*slog.Logger

	mu     sync.Mutex
	file   *os.File
	closed bool
}

// Open creates path's directory if needed and appends to path. The file is
// created with permissions 0644 if it doesn't exist.
func Open(path string, level slog.Level) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &File{
		Logger: New(f, level),
		file:   f,
	}, nil
}

// New returns a text logger writing to w at level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Close closes the log file. It is safe to call Close multiple times.
func (l *File) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}
