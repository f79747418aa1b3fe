package util

import (
	"fmt"

	"github.com/fan-yu0/autoupdater/internal/cli/shared"
	"github.com/fan-yu0/autoupdater/internal/history"
	"github.com/fan-yu0/autoupdater/internal/update"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past update attempts",
	Long: `View a log of update attempts with start time, versions, final state and
duration. Attempts handed to the install helper show "installing" until the
helper records how the installation ended.`,
	Example: `  # Show every recorded attempt
  autoupdater history

  # Only the last 5
  autoupdater history -n 5

  # Only installs that had to be rolled back
  autoupdater history --status aborted_restored`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := shared.LoadConfig(cmd)
		if err != nil {
			return err
		}
		return runHistoryWithStateDir(cmd, cfg.StateDir)
	},
}

func init() {
	historyCmd.GroupID = shared.GroupUpdate
	historyCmd.Flags().IntP("limit", "n", 0, "Limit to last N entries (most recent)")
	historyCmd.Flags().Bool("clear", false, "Clear all history")
	historyCmd.Flags().String("status", "", "Filter by status (installing, up_to_date, failed, relaunched, relaunch_failed, aborted_restored, aborted_no_change)")
}

// runHistoryWithStateDir runs the history command with a custom state directory.
func runHistoryWithStateDir(cmd *cobra.Command, stateDir string) error {
	clearFlag, _ := cmd.Flags().GetBool("clear")
	statusFilter, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	// Validate limit
	if limit < 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}

	if clearFlag {
		if err := history.Clear(stateDir); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		return nil
	}

	histFile, err := history.Load(stateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	entries := filterEntries(histFile.Entries, statusFilter, limit)
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), buildEmptyMessage(statusFilter))
		return nil
	}

	displayEntries(cmd, entries)
	return nil
}

// buildEmptyMessage creates an appropriate message when no entries match filters.
func buildEmptyMessage(statusFilter string) string {
	if statusFilter != "" {
		return fmt.Sprintf("No matching entries for status '%s'.", statusFilter)
	}
	return "No history available."
}

// filterEntries filters and limits history entries.
func filterEntries(entries []history.Entry, statusFilter string, limit int) []history.Entry {
	var result []history.Entry
	for _, entry := range entries {
		if statusFilter != "" && entry.Status != statusFilter {
			continue
		}
		result = append(result, entry)
	}

	// Apply limit (most recent entries)
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}

	return result
}

// displayEntries formats and displays history entries.
func displayEntries(cmd *cobra.Command, entries []history.Entry) {
	out := cmd.OutOrStdout()
	cyan := color.New(color.FgCyan).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	for _, entry := range entries {
		timestamp := entry.StartedAt.Local().Format("2006-01-02 15:04:05")

		versions := entry.FromVersion
		if entry.ToVersion != "" && entry.ToVersion != entry.FromVersion {
			versions += " → " + entry.ToVersion
		}

		duration := entry.Duration
		if duration == "" {
			duration = "-"
		}

		fmt.Fprintf(out, "%s  %-30s  %-17s  %-20s  %s\n",
			cyan(timestamp),
			formatID(entry.ID),
			formatStatus(entry.Status),
			versions,
			duration,
		)
		if entry.Error != "" {
			fmt.Fprintf(out, "    %s\n", red(entry.Error))
		}
	}
}

// formatStatus returns a color-coded status string.
func formatStatus(status string) string {
	padded := fmt.Sprintf("%-17s", status)
	switch status {
	case string(update.StateRelaunched), history.StatusUpToDate:
		return color.New(color.FgGreen).Sprint(padded)
	case history.StatusInstalling, string(update.StateRelaunchFailed):
		return color.New(color.FgYellow).Sprint(padded)
	case history.StatusFailed, string(update.StateAbortedNoChange), string(update.StateAbortedRestored):
		return color.New(color.FgRed).Sprint(padded)
	case "":
		return fmt.Sprintf("%-17s", "-")
	default:
		return padded
	}
}

// formatID returns a formatted ID string (truncated or placeholder).
func formatID(id string) string {
	if id == "" {
		return fmt.Sprintf("%-30s", "-")
	}
	if len(id) > 30 {
		return id[:30]
	}
	return fmt.Sprintf("%-30s", id)
}
