// Package config provides CLI commands for autoupdater configuration management.
// Includes: config show, config keys, config set, config get, config toggle, doctor
package config

import (
	"github.com/spf13/cobra"
)

// Register adds all configuration commands to the root command.
// This function is called from the root CLI package during initialization.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
}
