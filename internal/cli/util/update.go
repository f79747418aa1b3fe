package util

import (
	"context"
	"os"

	"github.com/fan-yu0/autoupdater/internal/build"
	"github.com/fan-yu0/autoupdater/internal/cli/shared"
	apperrors "github.com/fan-yu0/autoupdater/internal/errors"
	"github.com/fan-yu0/autoupdater/internal/history"
	"github.com/fan-yu0/autoupdater/internal/notify"
	"github.com/fan-yu0/autoupdater/internal/progress"
	"github.com/fan-yu0/autoupdater/internal/update"
	"github.com/spf13/cobra"
)

var updateInline bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update to the latest release",
	Long: `Download the latest release for this platform and install it.

By default the installation is handed to a detached helper: this process
exits, the helper waits for it, backs up the installation directory, swaps in
the new files and starts the application again. If the swap fails the backup
is restored. Use --inline when the installation does not contain the running
binary and can be replaced while it runs.`,
	Example: `  # Update to latest version
  autoupdater update

  # Install without a helper process
  autoupdater update --inline`,
	RunE: runUpdate,
}

func init() {
	updateCmd.GroupID = shared.GroupUpdate
	updateCmd.Flags().BoolVar(&updateInline, "inline", false, "Install in this process instead of a detached helper")
}

// cycleRunner is satisfied by *update.Orchestrator.
type cycleRunner interface {
	RunUpdateCycle(ctx context.Context) update.Result
}

// runUpdate executes the update command.
func runUpdate(cmd *cobra.Command, _ []string) error {
	if build.IsDevBuild() {
		return apperrors.DevBuildNotUpdatable()
	}

	cfg, err := shared.LoadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := shared.NewLogger(cmd, cfg)
	if err != nil {
		return err
	}
	exe, err := update.ResolveExecutable()
	if err != nil {
		return apperrors.Wrap(err, apperrors.Prerequisite, "Run autoupdater from its installed location")
	}

	display := progress.NewDisplay(progress.DetectTerminalCapabilities(), cmd.OutOrStdout())
	reporter := update.MultiReporter{
		display,
		history.NewWriter(cfg.StateDir, cfg.HistoryMaxEntries, logger),
		notify.NewHandler(cfg.Notifications, logger),
	}
	if shared.DebugEnabled(cmd) {
		reporter = append(reporter, update.LogReporter{Logger: logger})
	}

	var installer update.Installer
	if updateInline {
		installer = update.InlineInstaller{Executor: update.NewExecutor(logger,
			update.WithExecutorReporter(reporter),
			update.WithSelfPath(exe),
		)}
	} else {
		// Flush the display before the helper takes over and this process exits.
		installer = update.NewHelperInstaller(logger, reporter, func(code int) {
			display.Stop()
			os.Exit(code)
		})
	}

	orch := shared.NewOrchestrator(cfg, exe, build.Version, installer, logger, reporter)
	return executeUpdate(cmd.Context(), orch, display)
}

// executeUpdate runs one update cycle behind a spinner and maps failures to
// CLI errors with remediation.
func executeUpdate(ctx context.Context, runner cycleRunner, display *progress.Display) error {
	if ctx == nil {
		ctx = context.Background()
	}
	display.Start("Checking for updates")
	res := runner.RunUpdateCycle(ctx)
	display.Stop()

	if res.Err != nil {
		return apperrors.FromUpdateError(res.Err)
	}
	return nil
}
