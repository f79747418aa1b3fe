package config

import (
	"os"
	"path/filepath"
	"testing"

	cfgpkg "github.com/fan-yu0/autoupdater/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunConfigSet_Global(t *testing.T) {
	home := isolateHome(t)

	cmd, buf := newCmd(runConfigSet)
	cmd.SetArgs([]string{"max_retries", "5"})
	require.NoError(t, cmd.Execute())

	globalPath := filepath.Join(home, ".autoupdater", "config.json")
	assert.Contains(t, buf.String(), "Set max_retries = 5 in global config")

	value, found, err := cfgpkg.GetConfigValue(globalPath, "max_retries")
	require.NoError(t, err)
	assert.True(t, found)
	assert.EqualValues(t, 5, value)
}

func TestRunConfigSet_LocalAndMasked(t *testing.T) {
	home := isolateHome(t)
	local := filepath.Join(home, "project", "autoupdater.json")

	cmd, buf := newCmd(runConfigSet)
	cmd.SetArgs([]string{"--config", local, "github_token", "ghp_secret_value_9876"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "in local config")
	assert.Contains(t, buf.String(), "9876")
	assert.NotContains(t, buf.String(), "ghp_secret")
	_, err := os.Stat(local)
	require.NoError(t, err)
}

func TestRunConfigSet_Errors(t *testing.T) {
	tests := map[string]struct {
		args       []string
		errContain string
	}{
		"unknown key": {
			args:       []string{"nope", "1"},
			errContain: "Valid keys:",
		},
		"invalid value": {
			args:       []string{"notifications.type", "loud"},
			errContain: "setting config value",
		},
		"entry_args is not settable": {
			args:       []string{"entry_args", "--x"},
			errContain: "unknown configuration key",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			isolateHome(t)

			cmd, _ := newCmd(runConfigSet)
			cmd.SetArgs(tt.args)
			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContain)
		})
	}
}

func TestRunConfigGet(t *testing.T) {
	home := isolateHome(t)
	globalPath := filepath.Join(home, ".autoupdater", "config.json")
	local := filepath.Join(home, "local.json")
	require.NoError(t, cfgpkg.SetConfigValue(globalPath, "max_retries", "4"))
	require.NoError(t, cfgpkg.SetConfigValue(local, "max_retries", "6"))

	tests := map[string]struct {
		args []string
		want string
	}{
		"default": {
			args: []string{"read_timeout"},
			want: "read_timeout: 30 (default)",
		},
		"global": {
			args: []string{"max_retries"},
			want: "max_retries: 4 (from global config)",
		},
		"local overrides global": {
			args: []string{"--config", local, "max_retries"},
			want: "max_retries: 6 (from local config)",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cmd, buf := newCmd(runConfigGet)
			cmd.SetArgs(tt.args)
			require.NoError(t, cmd.Execute())
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestRunConfigToggle(t *testing.T) {
	home := isolateHome(t)
	globalPath := filepath.Join(home, ".autoupdater", "config.json")

	cmd, buf := newCmd(runConfigToggle)
	cmd.SetArgs([]string{"notifications.enabled"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Toggled notifications.enabled: false -> true")

	cmd, buf = newCmd(runConfigToggle)
	cmd.SetArgs([]string{"notifications.enabled"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "true -> false")

	value, _, err := cfgpkg.GetConfigValue(globalPath, "notifications.enabled")
	require.NoError(t, err)
	assert.Equal(t, false, value)

	cmd, _ = newCmd(runConfigToggle)
	cmd.SetArgs([]string{"max_retries"})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a boolean")
}
