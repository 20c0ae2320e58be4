package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/pomo/internal/settings"
)

func TestSettingsSetThenGet(t *testing.T) {
	testEnv(t)

	out, err := executeCommand(rootCmd, "settings", "set", "break_overtime_enabled", "true")
	require.NoError(t, err, out)
	assert.Contains(t, out, "break_overtime_enabled: true")

	out, err = executeCommand(rootCmd, "settings", "get", "break_overtime_enabled")
	require.NoError(t, err, out)
	assert.Equal(t, "true", strings.TrimSpace(out))

	out, err = executeCommand(rootCmd, "settings")
	require.NoError(t, err, out)
	for _, key := range settings.Keys() {
		assert.Contains(t, out, key+": ")
	}
}

func TestSettingsRejectsBadInput(t *testing.T) {
	testEnv(t)

	_, err := executeCommand(rootCmd, "settings", "get", "colour")
	assert.ErrorIs(t, err, settings.ErrUnknownKey)

	_, err = executeCommand(rootCmd, "settings", "set", "work_duration", "0")
	assert.Error(t, err)

	out, err := executeCommand(rootCmd, "settings", "get", "work_duration")
	require.NoError(t, err)
	assert.Equal(t, "25", strings.TrimSpace(out), "a rejected value is not saved")
}

func TestSetupSavesAnswers(t *testing.T) {
	testEnv(t)

	buf := new(syncBuffer)
	resetCommandState(rootCmd)
	rootCmd.SetIn(strings.NewReader("45\n\n\n2\ny\n"))
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"setup"})
	_, err := rootCmd.ExecuteC()
	require.NoError(t, err, buf.String())
	assert.Contains(t, buf.String(), "Settings saved")

	path, err := GetConfig().ResolveSettingsPath()
	require.NoError(t, err)
	s, err := settings.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45, s.WorkMinutes)
	assert.Equal(t, 5, s.ShortBreakMinutes)
	assert.Equal(t, 2, s.LongBreakFrequency)
	assert.True(t, s.BreakOvertimeEnabled)
}
