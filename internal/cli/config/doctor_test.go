package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fan-yu0/autoupdater/internal/cli/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDoctor(t *testing.T) {
	home := isolateHome(t)

	badConfig := filepath.Join(home, "bad.json")
	require.NoError(t, os.WriteFile(badConfig, []byte(`{"max_retries": }`), 0o644))

	tests := map[string]struct {
		args           []string
		wantContains   []string
		wantNotContain []string
	}{
		"default configuration": {
			wantContains: []string{
				"✗ Build: development build cannot be updated",
				"✓ Configuration: configuration is valid",
				"Temp directory:",
				"State directory:",
				"Entry point:",
			},
		},
		"broken configuration skips directory checks": {
			args:           []string{"--config", badConfig},
			wantContains:   []string{"✗ Configuration:"},
			wantNotContain: []string{"Temp directory", "Entry point"},
		},
		"missing configuration file": {
			args:         []string{"--config", filepath.Join(home, "absent.json")},
			wantContains: []string{"✗ Configuration:", "absent.json"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cmd, buf := newCmd(runDoctor)
			cmd.SetArgs(tc.args)

			err := cmd.Execute()
			// Test binaries are development builds, so doctor always fails.
			require.Error(t, err)
			assert.True(t, shared.IsExitError(err))
			assert.Equal(t, shared.ExitUpdateFailed, shared.ExitCode(err))

			for _, want := range tc.wantContains {
				assert.Contains(t, buf.String(), want)
			}
			for _, unwanted := range tc.wantNotContain {
				assert.NotContains(t, buf.String(), unwanted)
			}
		})
	}
}
