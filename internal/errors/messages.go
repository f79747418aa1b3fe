package errors

import (
	"errors"
	"fmt"
	"time"

	"github.com/fan-yu0/autoupdater/internal/update"
)

// DevBuildNotUpdatable is returned when a development build is asked to update itself.
func DevBuildNotUpdatable() *CLIError {
	return NewPrerequisiteError(
		"cannot update a development build",
		"Install a release build to enable self-update",
		"Or rebuild from source to get the latest changes",
	)
}

// ConfigFileNotFound reports a --config path that does not exist.
func ConfigFileNotFound(path string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("config file not found: %s", path),
		"Check the path passed to --config",
		"Run 'autoupdater config show' to see the effective settings",
	)
}

// ConfigParseError reports a config file that could not be loaded.
func ConfigParseError(path string, err error) *CLIError {
	return &CLIError{
		Category: Configuration,
		Message:  fmt.Sprintf("failed to load config %s: %v", path, err),
		Err:      err,
		Remediation: []string{
			"Fix the reported key or JSON syntax error",
			"Run 'autoupdater config set <key> <value>' to write valid values",
		},
	}
}

// PlanFileMissing is returned when the install helper is started without a plan.
func PlanFileMissing() *CLIError {
	return NewArgumentErrorWithUsage(
		"the --plan flag is required",
		"autoupdater internal apply --plan <file> [--log <file>]",
		"This command is started by 'autoupdater update'; run that instead",
	)
}

// TimeoutError reports an operation that exceeded its deadline.
func TimeoutError(operation string, timeout time.Duration) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("%s timed out after %s", operation, timeout),
		"Check your network connection",
		"Raise connect_timeout or read_timeout in the config file",
	)
}

// FromUpdateError maps a failed update cycle to a CLIError with remediation.
func FromUpdateError(err error) *CLIError {
	if err == nil {
		return nil
	}
	var rl *update.RateLimitError
	switch {
	case errors.As(err, &rl):
		steps := []string{"Set github_token in the config file to raise the limit"}
		if !rl.ResetAt.IsZero() {
			steps = append(steps, fmt.Sprintf("Or try again after %s", rl.ResetAt.Local().Format(time.Kitchen)))
		}
		return Wrap(err, Runtime, steps...)
	case errors.Is(err, update.ErrUpdateInProgress):
		return Wrap(err, Runtime, "Wait for the running update to finish")
	case errors.Is(err, update.ErrInvalidVersion):
		return Wrap(err, Prerequisite, "Only release builds with dotted numeric versions can update")
	case errors.Is(err, update.ErrNoMatchingAsset):
		return Wrap(err, Prerequisite, "The latest release has no archive for this platform; check the release page")
	case errors.Is(err, update.ErrNotFound):
		return Wrap(err, Prerequisite, "Check release_url points at a repository with published releases")
	case errors.Is(err, update.ErrNetwork), errors.Is(err, update.ErrDownload):
		return Wrap(err, Runtime, "Check your network connection and try again")
	case errors.Is(err, update.ErrMalformedResponse):
		return Wrap(err, Runtime, "Check release_url returns a GitHub-style release document")
	case errors.Is(err, update.ErrBackupFailed), errors.Is(err, update.ErrHelperSpawn):
		return Wrap(err, Prerequisite,
			"Make sure the installation and temp directories are writable",
			"Nothing was changed; try again once fixed")
	case errors.Is(err, update.ErrRestoreFailed):
		return Wrap(err, Runtime,
			"The installation may be incomplete; reinstall the application",
			"The backup is kept in the session directory named in the log")
	case errors.Is(err, update.ErrRelaunchFailed):
		return Wrap(err, Runtime, "The new version is installed; start it manually")
	}
	return Wrap(err, Runtime)
}
