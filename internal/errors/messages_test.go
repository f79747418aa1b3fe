// Package errors_test tests structured CLI error message generation and remediation steps.
// Related: internal/errors/messages.go
// Tags: errors, cli-errors, messages, remediation, error-categories
package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fan-yu0/autoupdater/internal/update"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevBuildNotUpdatable(t *testing.T) {
	err := DevBuildNotUpdatable()

	assert.Equal(t, Prerequisite, err.Category)
	assert.Contains(t, err.Message, "development build")
	assert.NotEmpty(t, err.Remediation)
}

func TestConfigMessages(t *testing.T) {
	notFound := ConfigFileNotFound("/etc/app.json")
	assert.Equal(t, Configuration, notFound.Category)
	assert.Contains(t, notFound.Message, "/etc/app.json")

	cause := errors.New("line 3: bad")
	parse := ConfigParseError("/etc/app.json", cause)
	assert.Equal(t, Configuration, parse.Category)
	assert.ErrorIs(t, parse, cause)
}

func TestPlanFileMissing(t *testing.T) {
	err := PlanFileMissing()

	assert.Equal(t, Argument, err.Category)
	assert.Contains(t, err.Usage, "--plan")
}

func TestTimeoutError(t *testing.T) {
	err := TimeoutError("release lookup", 30*time.Second)

	assert.Equal(t, Runtime, err.Category)
	assert.Equal(t, "release lookup timed out after 30s", err.Message)
}

func TestFromUpdateError(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err             error
		wantCategory    ErrorCategory
		wantRemediation string
	}{
		"rate limited": {
			err:             fmt.Errorf("fetch: %w", &update.RateLimitError{ResetAt: time.Now().Add(time.Hour)}),
			wantCategory:    Runtime,
			wantRemediation: "github_token",
		},
		"in progress": {
			err:             update.ErrUpdateInProgress,
			wantCategory:    Runtime,
			wantRemediation: "Wait",
		},
		"invalid version": {
			err:             fmt.Errorf("%w: %q", update.ErrInvalidVersion, "dev"),
			wantCategory:    Prerequisite,
			wantRemediation: "release builds",
		},
		"no asset": {
			err:             update.ErrNoMatchingAsset,
			wantCategory:    Prerequisite,
			wantRemediation: "no archive for this platform",
		},
		"download": {
			err:             &update.DownloadError{Reason: update.ReasonTimeout, URL: "https://example.com/a.zip"},
			wantCategory:    Runtime,
			wantRemediation: "network",
		},
		"helper spawn": {
			err:             fmt.Errorf("%w: permission denied", update.ErrHelperSpawn),
			wantCategory:    Prerequisite,
			wantRemediation: "writable",
		},
		"restore failed": {
			err:             update.ErrRestoreFailed,
			wantCategory:    Runtime,
			wantRemediation: "reinstall",
		},
		"unknown": {
			err:          errors.New("boom"),
			wantCategory: Runtime,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := FromUpdateError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.ErrorIs(t, got, tt.err)
			if tt.wantRemediation != "" {
				assert.Contains(t, strings.Join(got.Remediation, "\n"), tt.wantRemediation)
			}
		})
	}
}

func TestFromUpdateError_Nil(t *testing.T) {
	assert.Nil(t, FromUpdateError(nil))
}
