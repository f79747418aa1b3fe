package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fan-yu0/autoupdater/internal/clean"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCleanCmd(t *testing.T, stdin string, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	cmd := &cobra.Command{Use: "clean"}
	cmd.Flags().BoolP("dry-run", "n", false, "")
	cmd.Flags().BoolP("yes", "y", false, "")
	require.NoError(t, cmd.ParseFlags(args))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(stdin))
	return cmd, &out
}

func seedLeftovers(t *testing.T, root string) clean.Options {
	t.Helper()
	opts := clean.Options{
		TempDir:   filepath.Join(root, "tmp"),
		LogDir:    filepath.Join(root, "logs"),
		OlderThan: time.Hour,
	}
	old := time.Now().Add(-48 * time.Hour)

	session := filepath.Join(opts.TempDir, "session-20260301T100000.000000000")
	require.NoError(t, os.MkdirAll(filepath.Join(session, "backup"), 0o755))
	require.NoError(t, os.Chtimes(session, old, old))

	logFile := filepath.Join(opts.LogDir, "session-20260301T100000.000000000.log")
	require.NoError(t, os.MkdirAll(opts.LogDir, 0o755))
	require.NoError(t, os.WriteFile(logFile, []byte("level=info\n"), 0o644))
	require.NoError(t, os.Chtimes(logFile, old, old))

	return opts
}

func TestRunClean(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args         []string
		stdin        string
		seed         bool
		wantContains []string
		wantRemoved  bool
	}{
		"nothing to clean": {
			args:         []string{"--yes"},
			wantContains: []string{"Nothing to clean."},
		},
		"dry run lists without removing": {
			args:         []string{"--dry-run"},
			seed:         true,
			wantContains: []string{"Would remove:", "[dir]", "Update session directory", "[file]", "Install helper log"},
		},
		"declined prompt": {
			stdin:        "n\n",
			seed:         true,
			wantContains: []string{"Remove these files? [y/N]", "Aborted."},
		},
		"confirmed prompt": {
			stdin:        "yes\n",
			seed:         true,
			wantContains: []string{"✓ Removed:", "Summary: 2 removed"},
			wantRemoved:  true,
		},
		"yes flag skips prompt": {
			args:         []string{"-y"},
			seed:         true,
			wantContains: []string{"Files to be removed:", "Summary: 2 removed"},
			wantRemoved:  true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			opts := clean.Options{TempDir: filepath.Join(root, "tmp"), LogDir: filepath.Join(root, "logs"), OlderThan: time.Hour}
			if tc.seed {
				opts = seedLeftovers(t, root)
			}

			cmd, out := newCleanCmd(t, tc.stdin, tc.args...)
			require.NoError(t, runClean(cmd, opts))

			for _, want := range tc.wantContains {
				assert.Contains(t, out.String(), want)
			}

			if tc.seed {
				remaining, err := clean.FindStale(opts)
				require.NoError(t, err)
				if tc.wantRemoved {
					assert.Empty(t, remaining)
				} else {
					assert.Len(t, remaining, 2)
				}
			}
		})
	}
}

func TestCleanCmd_Flags(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"dry-run", "yes", "older-than"} {
		assert.NotNil(t, cleanCmd.Flags().Lookup(name), "missing flag %q", name)
	}
	olderThan, err := cleanCmd.Flags().GetDuration("older-than")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, olderThan)
}
