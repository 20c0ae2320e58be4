// Package settings holds the user's timer preferences, stored as YAML.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/pomo/internal/timer"
)

// ErrUnknownKey is returned by Get and Set for a key that is not a setting.
var ErrUnknownKey = errors.New("unknown setting")

// Settings are the user preferences that shape each interval.
type Settings struct {
	WorkMinutes          int  `yaml:"work_duration"`
	ShortBreakMinutes    int  `yaml:"short_break_duration"`
	LongBreakMinutes     int  `yaml:"long_break_duration"`
	LongBreakFrequency   int  `yaml:"long_break_frequency"`
	BreakOvertimeEnabled bool `yaml:"break_overtime_enabled"`
}

// Defaults returns the classic pomodoro cadence with overtime off.
func Defaults() Settings {
	return Settings{
		WorkMinutes:        25,
		ShortBreakMinutes:  5,
		LongBreakMinutes:   15,
		LongBreakFrequency: 4,
	}
}

// OvertimeEnabled reports the break-overtime preference.
func (s Settings) OvertimeEnabled() bool { return s.BreakOvertimeEnabled }

// Minutes returns the configured length of kind.
func (s Settings) Minutes(kind timer.Kind) int {
	switch kind {
	case timer.KindShortBreak:
		return s.ShortBreakMinutes
	case timer.KindLongBreak:
		return s.LongBreakMinutes
	default:
		return s.WorkMinutes
	}
}

// Seconds returns the configured length of kind in seconds.
func (s Settings) Seconds(kind timer.Kind) uint32 {
	return uint32(s.Minutes(kind)) * 60
}

// NextKind picks the interval that follows last, given the number of work
// intervals completed since the most recent long break. An empty last means
// nothing has been completed yet.
func (s Settings) NextKind(last timer.Kind, completedWork uint32) timer.Kind {
	if last == "" || last.IsBreak() {
		return timer.KindWork
	}
	if s.LongBreakFrequency > 0 && completedWork >= uint32(s.LongBreakFrequency) {
		return timer.KindLongBreak
	}
	return timer.KindShortBreak
}

// Validate rejects values the timer cannot run.
func (s Settings) Validate() error {
	for _, f := range []struct {
		key string
		v   int
	}{
		{"work_duration", s.WorkMinutes},
		{"short_break_duration", s.ShortBreakMinutes},
		{"long_break_duration", s.LongBreakMinutes},
		{"long_break_frequency", s.LongBreakFrequency},
	} {
		if f.v <= 0 {
			return fmt.Errorf("%s must be greater than zero, got %d", f.key, f.v)
		}
	}
	return nil
}

// Load reads settings from path. Missing files and missing keys fall back
// to Defaults.
func Load(path string) (Settings, error) {
	s := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read settings file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Defaults(), fmt.Errorf("parse settings yaml %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Defaults(), fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return s, nil
}

// Save writes s to path atomically via a temp file and rename.
func Save(path string, s Settings) (err error) {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "settings-*.yaml.tmp")
	if err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

// Keys lists the setting names accepted by Get and Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(accessors))
	for k := range accessors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of key formatted for display.
func (s Settings) Get(key string) (string, error) {
	a, ok := accessors[key]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	return a.get(s), nil
}

// Set parses value into key and returns the updated settings.
func (s Settings) Set(key, value string) (Settings, error) {
	a, ok := accessors[key]
	if !ok {
		return s, fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	if err := a.set(&s, strings.TrimSpace(value)); err != nil {
		return s, fmt.Errorf("%s: %w", key, err)
	}
	return s, s.Validate()
}

type accessor struct {
	get func(Settings) string
	set func(*Settings, string) error
}

func intField(field func(*Settings) *int) accessor {
	return accessor{
		get: func(s Settings) string { return strconv.Itoa(*field(&s)) },
		set: func(s *Settings, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("not a number: %q", v)
			}
			*field(s) = n
			return nil
		},
	}
}

var accessors = map[string]accessor{
	"work_duration":        intField(func(s *Settings) *int { return &s.WorkMinutes }),
	"short_break_duration": intField(func(s *Settings) *int { return &s.ShortBreakMinutes }),
	"long_break_duration":  intField(func(s *Settings) *int { return &s.LongBreakMinutes }),
	"long_break_frequency": intField(func(s *Settings) *int { return &s.LongBreakFrequency }),
	"break_overtime_enabled": {
		get: func(s Settings) string { return strconv.FormatBool(s.BreakOvertimeEnabled) },
		set: func(s *Settings, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("not a boolean: %q", v)
			}
			s.BreakOvertimeEnabled = b
			return nil
		},
	},
}
