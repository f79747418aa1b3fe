// autoupdater - safe in-place self-updates from GitHub releases
// Source: https://github.com/fan-yu0/autoupdater

// Package cli provides Cobra-based CLI commands for autoupdater.
// It defines the user-facing update commands (update, check, history, clean,
// version), configuration management (config, doctor) and the hidden install
// helper entry point started by the update command.
package cli

import (
	"github.com/fan-yu0/autoupdater/internal/cli/admin"
	"github.com/fan-yu0/autoupdater/internal/cli/config"
	"github.com/fan-yu0/autoupdater/internal/cli/shared"
	"github.com/fan-yu0/autoupdater/internal/cli/util"
	"github.com/spf13/cobra"
)

// Command group IDs for organizing help output (re-exported from shared)
const (
	GroupUpdate        = shared.GroupUpdate
	GroupConfiguration = shared.GroupConfiguration
	GroupInternal      = shared.GroupInternal
)

var rootCmd = &cobra.Command{
	Use:   "autoupdater",
	Short: "Safe in-place self-updates from GitHub releases",
	Long: `autoupdater keeps an installed application current.

It asks a GitHub-style release endpoint for the latest version, downloads the
archive for this platform, and replaces the installation directory from a
detached helper once the application has exited. A backup is taken before
anything is touched and restored if the swap fails.

Source: https://github.com/fan-yu0/autoupdater`,
	Example: `  # Is a newer release available?
  autoupdater check

  # Download and install it, then restart the application
  autoupdater update

  # What happened during previous updates
  autoupdater history

  # Can this installation update itself?
  autoupdater doctor

  # Point at a different release endpoint
  autoupdater config set release_url https://api.github.com/repos/acme/app/releases/latest`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the root command.
func Root() *cobra.Command {
	return rootCmd
}

func init() {
	// Define command groups in display order
	rootCmd.AddGroup(&cobra.Group{ID: GroupUpdate, Title: "Updates:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupInternal, Title: "Internal Commands:"})

	// Assign built-in help and completion to configuration group
	rootCmd.SetHelpCommandGroupID(GroupConfiguration)
	rootCmd.SetCompletionCommandGroupID(GroupConfiguration)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a local config file layered over ~/.autoupdater/config.json")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	// Register commands from subpackages
	util.Register(rootCmd)
	config.Register(rootCmd)
	admin.Register(rootCmd)
}
