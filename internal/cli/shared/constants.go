// Package shared provides constants and helpers used across CLI subpackages.
// This package has no dependencies on other CLI packages to avoid circular imports.
package shared

import (
	"errors"
	"fmt"

	apperrors "github.com/fan-yu0/autoupdater/internal/errors"
)

// Command group IDs for organizing help output
const (
	GroupUpdate        = "update"
	GroupConfiguration = "configuration"
	GroupInternal      = "internal"
)

// Exit codes for CLI commands. The install helper reuses the first three to
// report how an installation ended.
const (
	ExitSuccess          = 0
	ExitUpdateFailed     = 1
	ExitRelaunchFailed   = 2
	ExitInvalidArguments = 3
	ExitConfig           = 4
)

// exitError is a custom error type that carries an exit code.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// NewExitError creates a new exit error with the given code.
func NewExitError(code int) error {
	return &exitError{code: code}
}

// IsExitError reports whether err only carries an exit code and has nothing
// left to print.
func IsExitError(err error) bool {
	var e *exitError
	return errors.As(err, &e)
}

// ExitCode returns the exit code from an error. CLI errors map by category.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	if cliErr := apperrors.AsCLIError(err); cliErr != nil {
		switch cliErr.Category {
		case apperrors.Argument:
			return ExitInvalidArguments
		case apperrors.Configuration:
			return ExitConfig
		}
	}
	return ExitUpdateFailed
}
