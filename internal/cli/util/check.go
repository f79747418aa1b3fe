package util

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fan-yu0/autoupdater/internal/build"
	"github.com/fan-yu0/autoupdater/internal/cli/shared"
	"github.com/fan-yu0/autoupdater/internal/update"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var ckPlain bool

// ckCmd is the command for checking if an update is available.
var ckCmd = &cobra.Command{
	Use:     "check",
	Aliases: []string{"ck"},
	Short:   "Check if an update is available",
	Long: `Ask the release endpoint for the latest version and compare it with the
running one. Nothing is downloaded or installed.`,
	Example: `  # Check for available updates
  autoupdater check

  # Plain output (for scripts)
  autoupdater check --plain`,
	RunE: runCheck,
}

func init() {
	ckCmd.GroupID = shared.GroupUpdate
	ckCmd.Flags().BoolVar(&ckPlain, "plain", false, "Plain output without formatting")
}

// updateChecker is satisfied by *update.Orchestrator.
type updateChecker interface {
	Check(ctx context.Context) (*update.CheckResult, error)
}

// runCheck executes the update check command.
func runCheck(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if build.IsDevBuild() {
		fmt.Fprint(cmd.OutOrStdout(), formatDevBuildMessage(build.Version, ckPlain))
		return nil
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
		exe = os.Args[0]
	}

	var reporter update.Reporter = update.NopReporter
	if shared.DebugEnabled(cmd) {
		reporter = update.LogReporter{Logger: logger}
	}
	orch := shared.NewOrchestrator(cfg, exe, build.Version, nil, logger, reporter)

	output, err := executeCheck(ctx, orch, build.Version, ckPlain)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}

// executeCheck performs the update check and returns formatted output.
// The plain parameter controls whether output is formatted for scripts.
func executeCheck(ctx context.Context, checker updateChecker, version string, plain bool) (string, error) {
	// Handle dev builds without making network calls
	if update.IsDev(version) {
		return formatDevBuildMessage(version, plain), nil
	}

	check, err := checker.Check(ctx)
	if err != nil {
		return handleCheckError(ctx, check, err, plain)
	}

	return formatCheckResult(check, plain), nil
}

// formatDevBuildMessage returns a message for dev builds.
func formatDevBuildMessage(version string, plain bool) string {
	if plain {
		return fmt.Sprintf("version: %s\nstatus: dev-build\nmessage: update check not applicable\n", version)
	}

	yellow := color.New(color.FgYellow).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	return fmt.Sprintf("%s Running dev build - update check not applicable\n%s\n",
		yellow("⚠"),
		dim("  Install a release version to enable update checks"))
}

// handleCheckError converts errors to user-friendly messages. Failures the
// user can do nothing about right now are reported in the output rather than
// as a command error.
func handleCheckError(ctx context.Context, check *update.CheckResult, err error, plain bool) (string, error) {
	if ctx.Err() != nil {
		return "", err
	}

	var rl *update.RateLimitError
	switch {
	case errors.As(err, &rl):
		return formatErrorMessage("GitHub API rate limit exceeded", "Please try again later or set github_token", plain), nil
	case errors.Is(err, update.ErrNotFound):
		return formatErrorMessage("No releases found", "The release endpoint has no published release", plain), nil
	case errors.Is(err, update.ErrNoMatchingAsset) && check != nil:
		return formatErrorMessage("Platform not supported",
			fmt.Sprintf("Release %s has no archive for this platform", check.Latest), plain), nil
	case errors.Is(err, update.ErrNetwork) && isTimeoutMessage(err):
		return formatErrorMessage("Network timeout", "Network timeout while checking for updates", plain), nil
	default:
		return "", fmt.Errorf("checking for update: %w", err)
	}
}

func isTimeoutMessage(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "Timeout")
}

// formatErrorMessage returns a formatted error message.
func formatErrorMessage(title, detail string, plain bool) string {
	if plain {
		return fmt.Sprintf("error: %s - %s\n", title, detail)
	}
	red := color.New(color.FgRed).SprintFunc()
	return fmt.Sprintf("%s %s\n  %s\n", red("✗"), title, detail)
}

// formatCheckResult formats the update check result for display.
func formatCheckResult(check *update.CheckResult, plain bool) string {
	if check.Available {
		return formatUpdateAvailable(check, plain)
	}
	return formatUpToDate(check, plain)
}

// formatUpdateAvailable returns output when an update is available.
func formatUpdateAvailable(check *update.CheckResult, plain bool) string {
	if plain {
		out := fmt.Sprintf("current: %s\nlatest: %s\nupdate_available: true\n", check.Current, check.Latest)
		if check.Asset != nil {
			out += fmt.Sprintf("asset: %s\n", check.Asset.Name)
		}
		return out
	}

	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	return fmt.Sprintf("%s Update available: %s → %s\n%s\n",
		green("✓"),
		dim(check.Current),
		cyan(check.Latest),
		dim("  Run 'autoupdater update' to upgrade"))
}

// formatUpToDate returns output when already on latest version.
func formatUpToDate(check *update.CheckResult, plain bool) string {
	if plain {
		return fmt.Sprintf("current: %s\nlatest: %s\nupdate_available: false\n", check.Current, check.Latest)
	}

	green := color.New(color.FgGreen).SprintFunc()
	return fmt.Sprintf("%s Already on latest version (%s)\n",
		green("✓"),
		check.Current)
}
