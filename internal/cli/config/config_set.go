package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	cfgpkg "github.com/fan-yu0/autoupdater/internal/config"
	"github.com/spf13/cobra"
)

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the global config (~/.autoupdater/config.json),
or in the file passed with --config.

The value is validated against the key's type before anything is written.`,
	Example: `  # Point at another release endpoint
  autoupdater config set release_url https://api.github.com/repos/acme/app/releases/latest

  # Enable notifications
  autoupdater config set notifications.enabled true

  # Set in a local config file
  autoupdater --config ./autoupdater.json config set max_retries 5`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get the current value of a configuration key.

Shows the value and which config file it came from. Environment overrides are
not consulted; use 'config show' for the fully effective configuration.`,
	Example: `  # Get max retries
  autoupdater config get max_retries

  # Get notification enabled status
  autoupdater config get notifications.enabled`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configToggleCmd = &cobra.Command{
	Use:   "toggle <key>",
	Short: "Toggle a boolean configuration value",
	Long: `Toggle a boolean configuration value between true and false.

If the key is not set in the file, its default is toggled.
Only works with boolean configuration keys.`,
	Example: `  # Toggle notifications
  autoupdater config toggle notifications.enabled`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigToggle,
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	filePath, scope, err := resolveConfigPath(cmd)
	if err != nil {
		return err
	}

	if err := cfgpkg.SetConfigValue(filePath, key, value); err != nil {
		return setError(key, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s config (%s)\n", key, displayValue(key, value), scope, filePath)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	out := cmd.OutOrStdout()

	schema, err := cfgpkg.GetKeySchema(key)
	if err != nil {
		return formatUnknownKeyError(key)
	}

	// Local config overrides global
	if localPath, _ := cmd.Flags().GetString("config"); localPath != "" {
		found, err := printFromFile(out, key, localPath, "local")
		if err != nil || found {
			return err
		}
	}

	globalPath, err := cfgpkg.GlobalConfigPath()
	if err != nil {
		return err
	}
	found, err := printFromFile(out, key, globalPath, "global")
	if err != nil || found {
		return err
	}

	fmt.Fprintf(out, "%s: %v (default)\n", key, schema.Default)
	return nil
}

func printFromFile(out io.Writer, key, filePath, scope string) (bool, error) {
	value, found, err := cfgpkg.GetConfigValue(filePath, key)
	if err != nil {
		return false, fmt.Errorf("reading %s config: %w", scope, err)
	}
	if !found {
		return false, nil
	}
	fmt.Fprintf(out, "%s: %v (from %s config)\n", key, displayValue(key, fmt.Sprint(value)), scope)
	return true, nil
}

func runConfigToggle(cmd *cobra.Command, args []string) error {
	key := args[0]

	schema, err := cfgpkg.GetKeySchema(key)
	if err != nil {
		return formatUnknownKeyError(key)
	}
	if schema.Type != cfgpkg.TypeBool {
		return fmt.Errorf("key %q is not a boolean (type: %s)", key, schema.Type)
	}

	filePath, scope, err := resolveConfigPath(cmd)
	if err != nil {
		return err
	}

	current, _ := schema.Default.(bool)
	value, found, err := cfgpkg.GetConfigValue(filePath, key)
	if err != nil {
		return fmt.Errorf("reading %s config: %w", scope, err)
	}
	if found {
		current, _ = value.(bool)
	}

	next := !current
	if err := cfgpkg.SetConfigValue(filePath, key, fmt.Sprint(next)); err != nil {
		return setError(key, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Toggled %s: %t -> %t in %s config (%s)\n",
		key, current, next, scope, filePath)
	return nil
}

// resolveConfigPath returns the file edited by set and toggle: the --config
// file when given, otherwise the global config.
func resolveConfigPath(cmd *cobra.Command) (filePath, scope string, err error) {
	if localPath, _ := cmd.Flags().GetString("config"); localPath != "" {
		return localPath, "local", nil
	}
	globalPath, err := cfgpkg.GlobalConfigPath()
	if err != nil {
		return "", "", err
	}
	return globalPath, "global", nil
}

func setError(key string, err error) error {
	var unknown cfgpkg.ErrUnknownKey
	if errors.As(err, &unknown) {
		return formatUnknownKeyError(key)
	}
	return fmt.Errorf("setting config value: %w", err)
}

// displayValue masks secrets before they are echoed.
func displayValue(key, value string) string {
	if key == "github_token" {
		return maskToken(value)
	}
	return value
}

func formatUnknownKeyError(key string) error {
	return fmt.Errorf("unknown configuration key: %q\n\nValid keys:\n  %s",
		key, strings.Join(cfgpkg.SortedKeys(), "\n  "))
}
