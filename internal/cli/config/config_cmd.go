package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fan-yu0/autoupdater/internal/cli/shared"
	cfgpkg "github.com/fan-yu0/autoupdater/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and edit autoupdater configuration",
	Long: `Show and edit autoupdater configuration.

Settings are layered: built-in defaults, then ~/.autoupdater/config.json, then
the file passed with --config, then AUTOUPDATER_* environment variables.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long:  "Display the configuration after every source has been applied. The GitHub token is masked.",
	Example: `  # YAML output
  autoupdater config show

  # JSON output
  autoupdater config show --json`,
	RunE: runConfigShow,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List all available configuration keys",
	Long:  `Display all valid configuration keys with their types and descriptions.`,
	RunE:  runConfigKeys,
}

func init() {
	configCmd.GroupID = shared.GroupConfiguration
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configToggleCmd)

	configShowCmd.Flags().Bool("json", false, "Output in JSON format")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	useJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := shared.LoadConfig(cmd)
	if err != nil {
		return err
	}
	configMap := effectiveConfig(cfg)

	globalPath, _ := cfgpkg.GlobalConfigPath()
	localPath, _ := cmd.Flags().GetString("config")
	if localPath == "" {
		localPath = "(none)"
	}

	fmt.Fprintf(out, "# Configuration Sources\n")
	fmt.Fprintf(out, "# Global config: %s\n", globalPath)
	fmt.Fprintf(out, "# Local config:  %s\n", localPath)
	fmt.Fprintf(out, "# Environment:   %s*\n", cfgpkg.EnvPrefix)
	fmt.Fprintf(out, "\n")

	if useJSON {
		data, err := json.MarshalIndent(configMap, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize config: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	data, err := yaml.Marshal(configMap)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	fmt.Fprint(out, string(data))
	return nil
}

// effectiveConfig flattens cfg into the key layout of the config file.
func effectiveConfig(cfg *cfgpkg.Configuration) map[string]any {
	return map[string]any{
		"release_url":         cfg.ReleaseURL,
		"install_dir":         cfg.InstallDir,
		"temp_dir":            cfg.TempDir,
		"state_dir":           cfg.StateDir,
		"entry_point":         cfg.EntryPoint,
		"entry_args":          cfg.EntryArgs,
		"connect_timeout":     cfg.ConnectTimeout,
		"read_timeout":        cfg.ReadTimeout,
		"max_retries":         cfg.MaxRetries,
		"retry_delay":         cfg.RetryDelay,
		"helper_wait_timeout": cfg.HelperWaitTimeout,
		"github_token":        maskToken(cfg.GitHubToken),
		"user_agent":          cfg.UserAgent,
		"log_level":           cfg.LogLevel,
		"log_format":          cfg.LogFormat,
		"history_max_entries": cfg.HistoryMaxEntries,
		"notifications": map[string]any{
			"enabled":     cfg.Notifications.Enabled,
			"type":        string(cfg.Notifications.Type),
			"sound_file":  cfg.Notifications.SoundFile,
			"on_update":   cfg.Notifications.OnUpdate,
			"on_error":    cfg.Notifications.OnError,
			"require_tty": cfg.Notifications.RequireTTY,
		},
	}
}

// maskToken hides all but the last four characters of a token.
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Available configuration keys:")
	fmt.Fprintln(out)

	for _, key := range cfgpkg.SortedKeys() {
		schema := cfgpkg.KnownKeys[key]
		typeInfo := schema.Type.String()
		switch schema.Type {
		case cfgpkg.TypeEnum:
			typeInfo = fmt.Sprintf("enum (%s)", strings.Join(schema.AllowedValues, ", "))
		case cfgpkg.TypeInt:
			typeInfo = fmt.Sprintf("int (%d-%d)", schema.Min, schema.Max)
		}
		fmt.Fprintf(out, "  %-40s %s\n", key, typeInfo)
		fmt.Fprintf(out, "    %s\n", schema.Description)
		fmt.Fprintln(out)
	}

	return nil
}
