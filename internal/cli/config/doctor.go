package config

import (
	"fmt"

	"github.com/fan-yu0/autoupdater/internal/build"
	"github.com/fan-yu0/autoupdater/internal/cli/shared"
	"github.com/fan-yu0/autoupdater/internal/health"
	"github.com/fan-yu0/autoupdater/internal/update"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Aliases: []string{"doc"},
	Short:   "Check that this installation can update itself (doc)",
	Long: `Run preflight checks to verify that an update could be installed from this
environment. Nothing is downloaded and the installation is not modified.

This command checks:
  - the running build is a release build
  - the configuration loads and validates
  - the install, temp and state directories are writable
  - the entry point restarted after an install exists

Each check will display a checkmark if passed or an X with the reason if failed.`,
	Example: `  # Check before relying on automatic updates
  autoupdater doctor

  # Check with a specific config file
  autoupdater doctor --config ./updater.json`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.GroupID = shared.GroupConfiguration
}

func runDoctor(cmd *cobra.Command, args []string) error {
	in := health.Inputs{Version: build.Version}

	cfg, err := shared.LoadConfig(cmd)
	if err != nil {
		in.ConfigErr = err
	} else {
		in.Config = cfg
	}

	exe, err := update.ResolveExecutable()
	if err != nil {
		return fmt.Errorf("locating running executable: %w", err)
	}
	in.Executable = exe

	report := health.RunHealthChecks(in)
	fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))

	if !report.Passed {
		return shared.NewExitError(shared.ExitUpdateFailed)
	}
	return nil
}
