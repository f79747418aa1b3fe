package config

import "github.com/fan-yu0/autoupdater/internal/update"

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"release_url":               update.DefaultReleaseURL,
		"install_dir":               "",
		"temp_dir":                  "",
		"state_dir":                 "~/.autoupdater/state",
		"entry_point":               "",
		"entry_args":                []string{},
		"connect_timeout":           30,
		"read_timeout":              30,
		"max_retries":               2,
		"retry_delay":               2,
		"helper_wait_timeout":       120,
		"github_token":              "",
		"user_agent":                "autoupdater",
		"log_level":                 "info",
		"log_format":                "text",
		"history_max_entries":       100,
		"notifications.enabled":     false,
		"notifications.type":        "visual",
		"notifications.sound_file":  "",
		"notifications.on_update":   true,
		"notifications.on_error":    true,
		"notifications.require_tty": false,
	}
}
