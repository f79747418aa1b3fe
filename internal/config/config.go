// Package config loads autoupdater settings from defaults, the global config
// file, an optional local config file and AUTOUPDATER_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fan-yu0/autoupdater/internal/notify"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "AUTOUPDATER_"

// Configuration represents the autoupdater configuration
type Configuration struct {
	ReleaseURL        string                    `koanf:"release_url" validate:"required,url"`
	InstallDir        string                    `koanf:"install_dir"`
	TempDir           string                    `koanf:"temp_dir"`
	StateDir          string                    `koanf:"state_dir" validate:"required"`
	EntryPoint        string                    `koanf:"entry_point"`
	EntryArgs         []string                  `koanf:"entry_args"`
	ConnectTimeout    int                       `koanf:"connect_timeout" validate:"min=1,max=600"`
	ReadTimeout       int                       `koanf:"read_timeout" validate:"min=1,max=600"`
	MaxRetries        int                       `koanf:"max_retries" validate:"min=0,max=10"`
	RetryDelay        int                       `koanf:"retry_delay" validate:"min=0,max=300"`
	HelperWaitTimeout int                       `koanf:"helper_wait_timeout" validate:"min=1,max=3600"`
	GitHubToken       string                    `koanf:"github_token"`
	UserAgent         string                    `koanf:"user_agent" validate:"required"`
	LogLevel          string                    `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat         string                    `koanf:"log_format" validate:"oneof=text json logfmt"`
	HistoryMaxEntries int                       `koanf:"history_max_entries" validate:"min=0,max=10000"`
	Notifications     notify.NotificationConfig `koanf:"notifications"`
}

// GlobalConfigPath returns ~/.autoupdater/config.json.
func GlobalConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".autoupdater", "config.json"), nil
}

// Load loads configuration from global, local, and environment sources
// Priority: Environment variables > Local config > Global config > Defaults
func Load(localConfigPath string) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("applying default %s: %w", key, err)
		}
	}

	if globalPath, err := GlobalConfigPath(); err == nil {
		if err := loadFile(k, globalPath); err != nil {
			return nil, fmt.Errorf("failed to load global config: %w", err)
		}
	}

	if localConfigPath != "" {
		if err := loadFile(k, localConfigPath); err != nil {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := ValidateConfigValues(&cfg, localConfigPath); err != nil {
		return nil, err
	}

	cfg.StateDir = expandHomePath(cfg.StateDir)
	cfg.TempDir = expandHomePath(cfg.TempDir)
	cfg.InstallDir = expandHomePath(cfg.InstallDir)

	return &cfg, nil
}

// loadFile merges a JSON config file into k. Missing files are skipped.
func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := ValidateJSONSyntax(path); err != nil {
		return err
	}
	return k.Load(file.Provider(path), json.Parser())
}

// envTransform converts environment variable names to config keys
// Example: AUTOUPDATER_MAX_RETRIES -> max_retries,
// AUTOUPDATER_NOTIFICATIONS_ENABLED -> notifications.enabled
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "notifications_"); ok {
		return "notifications." + rest
	}
	return key
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// ConnectTimeoutDuration returns connect_timeout as a duration.
func (c *Configuration) ConnectTimeoutDuration() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Second
}

// ReadTimeoutDuration returns read_timeout as a duration.
func (c *Configuration) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}

// RetryDelayDuration returns retry_delay as a duration.
func (c *Configuration) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay) * time.Second
}

// HelperWaitDuration returns helper_wait_timeout as a duration.
func (c *Configuration) HelperWaitDuration() time.Duration {
	return time.Duration(c.HelperWaitTimeout) * time.Second
}

// LogDir is where install helpers write their per-session logs.
func (c *Configuration) LogDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// ResolveTempDir returns temp_dir, falling back to <os temp>/autoupdater.
func (c *Configuration) ResolveTempDir() string {
	if c.TempDir != "" {
		return c.TempDir
	}
	return filepath.Join(os.TempDir(), "autoupdater")
}

// ResolveInstallDir returns install_dir, falling back to the directory that
// holds the running executable.
func (c *Configuration) ResolveInstallDir(executable string) string {
	if c.InstallDir != "" {
		return c.InstallDir
	}
	return filepath.Dir(executable)
}

// ResolveEntryPoint returns entry_point, falling back to the base name of
// the running executable.
func (c *Configuration) ResolveEntryPoint(executable string) string {
	if c.EntryPoint != "" {
		return c.EntryPoint
	}
	return filepath.Base(executable)
}
