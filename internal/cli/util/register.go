// Package util provides the update-facing CLI commands for autoupdater.
// Includes: update, check, history, clean, version
package util

import (
	"github.com/spf13/cobra"
)

// Register adds all update commands to the root command.
// This function is called from the root CLI package during initialization.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(ckCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)
}
