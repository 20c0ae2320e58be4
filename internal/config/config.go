package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const appName = "pomo"

// Config holds the process-level pomo settings. User preferences such as
// interval lengths live in settings.yaml instead.
type Config struct {
	DBPath         string `json:"db_path"`          // empty means <data dir>/pomo.duckdb
	LogLevel       string `json:"log_level"`        // "debug" | "info" | "warn" | "error"
	TickIntervalMs int    `json:"tick_interval_ms"` // scheduler period
	SettingsPath   string `json:"settings_path"`    // override <config dir>/settings.yaml
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		LogLevel:       "info",
		TickIntervalMs: 250,
	}
}

// LoadGlobal reads ~/.config/pomo/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return loadFile(filepath.Join(dir, "config.json"), true)
}

// LoadProject reads .pomoconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".pomoconfig", false)
}

// Load reads both layers and merges them.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, err
	}
	project, err := LoadProject()
	if err != nil {
		return Config{}, err
	}
	return Merge(global, project), nil
}

func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, project} {
		if layer == nil {
			continue
		}
		if layer.DBPath != "" {
			result.DBPath = layer.DBPath
		}
		if layer.LogLevel != "" {
			result.LogLevel = layer.LogLevel
		}
		if layer.TickIntervalMs > 0 {
			result.TickIntervalMs = layer.TickIntervalMs
		}
		if layer.SettingsPath != "" {
			result.SettingsPath = layer.SettingsPath
		}
	}
	return result
}

// TickInterval is the scheduler period as a duration.
func (c Config) TickInterval() time.Duration {
	if c.TickIntervalMs <= 0 {
		return time.Duration(Defaults().TickIntervalMs) * time.Millisecond
	}
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// Level maps LogLevel onto slog. Unknown values mean info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ResolveDBPath returns DBPath, or the default database file in the data
// directory when it is unset.
func (c Config) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pomo.duckdb"), nil
}

// ResolveSettingsPath returns SettingsPath, or settings.yaml in the config
// directory when it is unset.
func (c Config) ResolveSettingsPath() (string, error) {
	if c.SettingsPath != "" {
		return c.SettingsPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.yaml"), nil
}

// DataDir returns the pomo-specific XDG data directory:
// $XDG_DATA_HOME/pomo or ~/.local/share/pomo.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, appName), nil
}

// ConfigDir returns ~/.config/pomo, honouring XDG_CONFIG_HOME.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appName), nil
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
