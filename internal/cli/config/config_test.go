// Package config tests CLI configuration commands for autoupdater.
// Related: internal/cli/config/config_cmd.go, internal/cli/config/config_set.go
// Tags: config, cli, show, set

package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fan-yu0/autoupdater/internal/cli/shared"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// isolateHome points HOME at an empty directory so the user's global config
// is never read or written.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	return home
}

// newCmd builds an isolated command around run with the root's persistent
// flags and any extra bool flags.
func newCmd(run func(*cobra.Command, []string) error, boolFlags ...string) (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{Use: "test", RunE: run}
	cmd.Flags().String("config", "", "")
	cmd.Flags().Bool("debug", false, "")
	for _, name := range boolFlags {
		cmd.Flags().Bool(name, false, "")
	}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	return cmd, &buf
}

func TestRunConfigShow_YAMLOutput(t *testing.T) {
	isolateHome(t)

	cmd, buf := newCmd(runConfigShow, "json")
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Configuration Sources")

	body := output[strings.Index(output, "\n\n")+2:]
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(body), &doc))
	assert.Equal(t, "autoupdater", doc["user_agent"])
	assert.Contains(t, doc, "notifications")
}

func TestRunConfigShow_JSONOutput(t *testing.T) {
	home := isolateHome(t)

	local := filepath.Join(home, "local.json")
	require.NoError(t, os.WriteFile(local, []byte(`{"github_token": "ghp_abcdefghijkl1234", "max_retries": 7}`), 0o644))

	cmd, buf := newCmd(runConfigShow, "json")
	cmd.SetArgs([]string{"--json", "--config", local})
	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "# Local config:  "+local)

	body := output[strings.Index(output, "{"):]
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Equal(t, float64(7), doc["max_retries"])
	assert.Equal(t, "****************1234", doc["github_token"])
	assert.NotContains(t, output, "ghp_abcdefghijkl1234")
}

func TestMaskToken(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		token string
		want  string
	}{
		"empty": {token: "", want: ""},
		"short": {token: "abc", want: "***"},
		"long":  {token: "ghp_0123456789", want: "**********6789"},
		"eight": {token: "12345678", want: "********"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, maskToken(tt.token))
		})
	}
}

func TestRunConfigKeys(t *testing.T) {
	t.Parallel()

	cmd, buf := newCmd(runConfigKeys)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "release_url")
	assert.Contains(t, output, "notifications.type")
	assert.Contains(t, output, "enum (debug, info, warn, error)")
	assert.Contains(t, output, "int (0-10)")
	assert.Less(t, strings.Index(output, "connect_timeout"), strings.Index(output, "release_url"), "keys should be sorted")
}

func TestRegister(t *testing.T) {
	// Cannot run in parallel - Register modifies global command state
	root := &cobra.Command{Use: "test"}
	Register(root)

	found, _, err := root.Find([]string{"config", "set"})
	require.NoError(t, err)
	assert.Equal(t, "set", found.Name())

	for _, name := range []string{"show", "keys", "get", "toggle"} {
		sub, _, err := root.Find([]string{"config", name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	doctor, _, err := root.Find([]string{"doctor"})
	require.NoError(t, err)
	assert.Equal(t, shared.GroupConfiguration, doctor.GroupID)
}
