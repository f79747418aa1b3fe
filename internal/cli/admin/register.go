// Package admin provides the internal CLI commands for autoupdater.
// Includes: internal apply (the detached install helper)
package admin

import (
	"github.com/spf13/cobra"
)

// Register adds all internal commands to the root command.
// This function is called from the root CLI package during initialization.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(internalCmd)
}
