// autoupdater - safe in-place self-updates from GitHub releases
// Source: https://github.com/fan-yu0/autoupdater

package main

import (
	"os"

	"github.com/fan-yu0/autoupdater/internal/cli"
	"github.com/fan-yu0/autoupdater/internal/cli/shared"
	apperrors "github.com/fan-yu0/autoupdater/internal/errors"
)

func main() {
	err := cli.Execute()
	if err != nil && !shared.IsExitError(err) {
		apperrors.PrintError(asCLIError(err))
	}
	os.Exit(shared.ExitCode(err))
}

// asCLIError wraps errors that carry no remediation, such as cobra's flag
// parsing errors, so every failure prints the same way.
func asCLIError(err error) *apperrors.CLIError {
	if cliErr := apperrors.AsCLIError(err); cliErr != nil {
		return cliErr
	}
	return apperrors.Wrap(err, apperrors.Runtime)
}
