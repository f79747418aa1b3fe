package util

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/fan-yu0/autoupdater/internal/clean"
	"github.com/fan-yu0/autoupdater/internal/cli/shared"
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove leftovers of past update attempts",
	Long: `Remove session directories and install helper logs left behind by earlier
update attempts.

A finished install removes its own session directory. Directories remain when
an install was interrupted or when the previous version had to be restored.
Only entries older than --older-than are considered, so an install helper that
is still running keeps its files.

The command prompts for confirmation before removing anything.
Use --dry-run to preview what would be removed without making changes.`,
	Example: `  # Preview what would be removed
  autoupdater clean --dry-run

  # Remove leftovers older than a week without prompting
  autoupdater clean --older-than 168h --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := shared.LoadConfig(cmd)
		if err != nil {
			return err
		}
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if olderThan < 0 {
			return fmt.Errorf("--older-than must not be negative, got %s", olderThan)
		}
		return runClean(cmd, clean.Options{
			TempDir:   cfg.ResolveTempDir(),
			LogDir:    cfg.LogDir(),
			OlderThan: olderThan,
			Now:       time.Now(),
		})
	},
}

func init() {
	cleanCmd.GroupID = shared.GroupUpdate
	cleanCmd.Flags().BoolP("dry-run", "n", false, "Show what would be removed without removing")
	cleanCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")
	cleanCmd.Flags().Duration("older-than", 24*time.Hour, "Only remove entries last modified before this age")
}

func runClean(cmd *cobra.Command, opts clean.Options) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	yes, _ := cmd.Flags().GetBool("yes")

	out := cmd.OutOrStdout()

	targets, err := clean.FindStale(opts)
	if err != nil {
		return fmt.Errorf("finding stale update files: %w", err)
	}
	if len(targets) == 0 {
		fmt.Fprintln(out, "Nothing to clean.")
		return nil
	}

	if dryRun {
		fmt.Fprintln(out, "Would remove:")
	} else {
		fmt.Fprintln(out, "Files to be removed:")
	}
	for _, target := range targets {
		typeStr := "file"
		if target.Type == clean.TypeDirectory {
			typeStr = "dir"
		}
		fmt.Fprintf(out, "  [%s] %s (%s)\n", typeStr, target.Path, target.Description)
	}

	if dryRun {
		return nil
	}

	if !yes {
		fmt.Fprintln(out)
		if !promptYesNo(cmd, "Remove these files?") {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	var successCount, failCount int
	for _, result := range clean.RemoveFiles(targets) {
		if result.Success {
			successCount++
			fmt.Fprintf(out, "✓ Removed: %s\n", result.Target.Path)
		} else {
			failCount++
			fmt.Fprintf(out, "✗ Failed: %s (%v)\n", result.Target.Path, result.Error)
		}
	}

	fmt.Fprintf(out, "\nSummary: %d removed", successCount)
	if failCount > 0 {
		fmt.Fprintf(out, ", %d failed", failCount)
	}
	fmt.Fprintln(out)

	if failCount > 0 {
		return fmt.Errorf("failed to remove %d item(s)", failCount)
	}
	return nil
}

// promptYesNo asks a yes/no question and returns true only for an explicit yes.
func promptYesNo(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)

	reader := bufio.NewReader(cmd.InOrStdin())
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))

	return answer == "y" || answer == "yes"
}
