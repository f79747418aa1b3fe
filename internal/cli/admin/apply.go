package admin

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/fan-yu0/autoupdater/internal/cli/shared"
	apperrors "github.com/fan-yu0/autoupdater/internal/errors"
	"github.com/fan-yu0/autoupdater/internal/history"
	"github.com/fan-yu0/autoupdater/internal/logging"
	"github.com/fan-yu0/autoupdater/internal/notify"
	"github.com/fan-yu0/autoupdater/internal/update"
	"github.com/spf13/cobra"
)

// internalCmd groups commands the binary runs on itself. It is hidden from
// help output.
var internalCmd = &cobra.Command{
	Use:    "internal",
	Short:  "Commands started by autoupdater itself",
	Hidden: true,
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Execute an install plan (started by 'autoupdater update')",
	Long: `Execute an install plan written by 'autoupdater update'.

The helper waits for the process that started it to exit, backs up the
installation directory, swaps in the new files, removes the backup and starts
the application again. Output goes to the --log file because the helper runs
without a terminal.

Exit codes:
  0  new version installed and started
  1  install aborted; the installation is unchanged or was restored
  2  new version installed but could not be started`,
	Example: `  autoupdater internal apply --plan /tmp/autoupdater/session-X/plan.json --log ~/.autoupdater/state/logs/X.log`,
	RunE:    runApply,
}

func init() {
	internalCmd.GroupID = shared.GroupInternal
	applyCmd.Flags().String("plan", "", "Path to the install plan (required)")
	applyCmd.Flags().String("log", "", "File the helper appends its log to")
	internalCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, _ []string) error {
	planPath, _ := cmd.Flags().GetString("plan")
	if planPath == "" {
		return apperrors.PlanFileMissing()
	}
	logPath, _ := cmd.Flags().GetString("log")

	// The helper must run even with a broken config: it only needs the
	// config for history, notifications and the parent wait.
	cfg, cfgErr := shared.LoadConfig(cmd)

	level := "info"
	if cfgErr == nil {
		level = cfg.LogLevel
	}
	if shared.DebugEnabled(cmd) {
		level = "debug"
	}
	logger, closer, err := openHelperLog(cmd, logPath, level)
	if err != nil {
		return err
	}
	defer closer.Close()
	if cfgErr != nil {
		logger.Warn("config could not be loaded, history and notifications are disabled", "error", cfgErr)
	}

	plan, err := update.ReadPlan(planPath)
	if err != nil {
		logger.Error("install plan rejected", "plan", planPath, "error", err)
		return shared.NewExitError(shared.ExitUpdateFailed)
	}

	reporter := update.MultiReporter{update.LogReporter{Logger: logger}}
	opts := []update.ExecutorOption{}
	if cfgErr == nil {
		reporter = append(reporter,
			history.NewWriter(cfg.StateDir, cfg.HistoryMaxEntries, logger),
			notify.NewHandler(cfg.Notifications, logger),
		)
		opts = append(opts, update.WithParentWait(cfg.HelperWaitDuration()))
	}
	if exe, err := update.ResolveExecutable(); err == nil {
		opts = append(opts, update.WithSelfPath(exe))
	}
	opts = append(opts, update.WithExecutorReporter(reporter))

	return executeApply(cmd.Context(), plan, update.NewExecutor(logger, opts...))
}

// openHelperLog returns the helper logger: the --log file when given,
// otherwise stderr.
func openHelperLog(cmd *cobra.Command, path, level string) (*log.Logger, io.Closer, error) {
	if path != "" {
		return logging.OpenFile(path, level, "helper")
	}
	logger, err := logging.New(cmd.ErrOrStderr(), level, logging.FormatLogfmt, "helper")
	if err != nil {
		return nil, nil, err
	}
	return logger, nopCloser{}, nil
}

// executeApply runs plan and converts its terminal state to an exit code.
func executeApply(ctx context.Context, plan *update.Plan, executor *update.Executor) error {
	if ctx == nil {
		ctx = context.Background()
	}
	state, _ := executor.Run(ctx, plan)
	if code := exitCodeFor(state); code != shared.ExitSuccess {
		return shared.NewExitError(code)
	}
	return nil
}

// exitCodeFor maps a terminal install state to the helper's exit code.
func exitCodeFor(state update.State) int {
	switch state {
	case update.StateRelaunched:
		return shared.ExitSuccess
	case update.StateRelaunchFailed:
		return shared.ExitRelaunchFailed
	default:
		return shared.ExitUpdateFailed
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
