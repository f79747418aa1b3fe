package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCategoryString(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		category ErrorCategory
		expected string
	}{
		"Argument":      {category: Argument, expected: "Argument Error"},
		"Configuration": {category: Configuration, expected: "Configuration Error"},
		"Prerequisite":  {category: Prerequisite, expected: "Prerequisite Error"},
		"Runtime":       {category: Runtime, expected: "Runtime Error"},
		"Unknown":       {category: ErrorCategory(99), expected: "Error"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.category.String())
		})
	}
}

func TestConstructors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err          *CLIError
		wantCategory ErrorCategory
		wantSteps    int
	}{
		"argument": {
			err:          NewArgumentError("unknown flag --forse", "did you mean --force?", "see --help"),
			wantCategory: Argument,
			wantSteps:    2,
		},
		"argument with usage": {
			err:          NewArgumentErrorWithUsage("missing key", "autoupdater config set <key> <value>"),
			wantCategory: Argument,
		},
		"config": {
			err:          NewConfigError("invalid log_level", "use debug, info, warn or error"),
			wantCategory: Configuration,
			wantSteps:    1,
		},
		"prerequisite": {
			err:          NewPrerequisiteError("install directory is read-only"),
			wantCategory: Prerequisite,
		},
		"runtime": {
			err:          NewRuntimeError("download stalled", "try again"),
			wantCategory: Runtime,
			wantSteps:    1,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantCategory, tt.err.Category)
			assert.Len(t, tt.err.Remediation, tt.wantSteps)
			assert.Equal(t, tt.err.Message, tt.err.Error())
		})
	}

	assert.Equal(t, "autoupdater config set <key> <value>",
		NewArgumentErrorWithUsage("missing key", "autoupdater config set <key> <value>").Usage)
}

func TestWrap(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Wrap(nil, Runtime))
	assert.Nil(t, WrapWithMessage(nil, Runtime, "wrapper"))

	inner := errors.New("connection reset")

	wrapped := Wrap(inner, Runtime, "check the network")
	assert.Equal(t, Runtime, wrapped.Category)
	assert.Equal(t, "connection reset", wrapped.Message)
	assert.Len(t, wrapped.Remediation, 1)
	assert.ErrorIs(t, wrapped, inner)

	withMsg := WrapWithMessage(inner, Runtime, "downloading update")
	assert.Equal(t, "downloading update: connection reset", withMsg.Message)
	assert.ErrorIs(t, withMsg, inner)
}

func TestAsCLIError(t *testing.T) {
	t.Parallel()

	original := NewArgumentError("bad flag")
	assert.Same(t, original, AsCLIError(original))
	assert.True(t, IsCLIError(original))

	wrapped := fmt.Errorf("running command: %w", original)
	require.True(t, IsCLIError(wrapped))
	assert.Same(t, original, AsCLIError(wrapped))

	plain := errors.New("plain")
	assert.Nil(t, AsCLIError(plain))
	assert.False(t, IsCLIError(plain))
}
