package cli_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masonbuild/mason/internal/cli"
)

func TestParseDefaults(t *testing.T) {
	var buf strings.Builder
	cfg, exit, err := cli.Parse(nil, &buf)
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "", cfg.Goal)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.WorkerCount)
}

func TestParseGoalAndOptions(t *testing.T) {
	var buf strings.Builder
	cfg, _, err := cli.Parse([]string{"--workers", "8", "--log-level", "debug", "clean"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, "clean", cfg.Goal)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseRejectsMultipleGoals(t *testing.T) {
	var buf strings.Builder
	_, _, err := cli.Parse([]string{"release", "clean"}, &buf)
	require.Error(t, err)
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "at most one goal")
}

func TestParseRejectsBadLogSettings(t *testing.T) {
	var buf strings.Builder
	_, _, err := cli.Parse([]string{"--log-format", "xml"}, &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log-format")

	_, _, err = cli.Parse([]string{"--log-level", "loud"}, &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log-level")
}

func TestParseRejectsMissingRoot(t *testing.T) {
	var buf strings.Builder
	_, _, err := cli.Parse([]string{"--root", "/no/such/tree"}, &buf)
	require.Error(t, err)
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParseHelpExitsCleanly(t *testing.T) {
	var buf strings.Builder
	cfg, exit, err := cli.Parse([]string{"--help"}, &buf)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, buf.String(), "mason [options] [GOAL]")
}
