package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fan-yu0/autoupdater/internal/update"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeString
	TypeEnum
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a known configuration key with its expected type and validation rules.
type ConfigKeySchema struct {
	Path          string          // Dotted key path (e.g., "notifications.enabled")
	Type          ConfigValueType // Expected value type for validation
	AllowedValues []string        // Valid values for enum types (empty for non-enums)
	Min, Max      int             // Inclusive bounds for int types
	Description   string          // Human-readable description for help text
	Default       any             // Default value
}

// KnownKeys is the registry of all known configuration keys with their schemas.
var KnownKeys = map[string]ConfigKeySchema{
	"release_url": {
		Path:        "release_url",
		Type:        TypeString,
		Description: "Endpoint returning the latest release description",
		Default:     update.DefaultReleaseURL,
	},
	"install_dir": {
		Path:        "install_dir",
		Type:        TypeString,
		Description: "Directory replaced by an update (empty: directory of the running executable)",
		Default:     "",
	},
	"temp_dir": {
		Path:        "temp_dir",
		Type:        TypeString,
		Description: "Parent directory for update sessions (empty: system temp dir)",
		Default:     "",
	},
	"state_dir": {
		Path:        "state_dir",
		Type:        TypeString,
		Description: "Directory for update history and helper logs",
		Default:     "~/.autoupdater/state",
	},
	"entry_point": {
		Path:        "entry_point",
		Type:        TypeString,
		Description: "Executable relaunched after an update, relative to install_dir",
		Default:     "",
	},
	"connect_timeout": {
		Path:        "connect_timeout",
		Type:        TypeInt,
		Min:         1,
		Max:         600,
		Description: "Connection timeout in seconds",
		Default:     30,
	},
	"read_timeout": {
		Path:        "read_timeout",
		Type:        TypeInt,
		Min:         1,
		Max:         600,
		Description: "Read timeout in seconds",
		Default:     30,
	},
	"max_retries": {
		Path:        "max_retries",
		Type:        TypeInt,
		Min:         0,
		Max:         10,
		Description: "Retries for transient release lookup failures",
		Default:     2,
	},
	"retry_delay": {
		Path:        "retry_delay",
		Type:        TypeInt,
		Min:         0,
		Max:         300,
		Description: "Initial delay between retries in seconds",
		Default:     2,
	},
	"helper_wait_timeout": {
		Path:        "helper_wait_timeout",
		Type:        TypeInt,
		Min:         1,
		Max:         3600,
		Description: "Seconds the install helper waits for the parent process to exit",
		Default:     120,
	},
	"github_token": {
		Path:        "github_token",
		Type:        TypeString,
		Description: "Token sent with release lookups to raise API rate limits",
		Default:     "",
	},
	"user_agent": {
		Path:        "user_agent",
		Type:        TypeString,
		Description: "User-Agent header for release and download requests",
		Default:     "autoupdater",
	},
	"log_level": {
		Path:          "log_level",
		Type:          TypeEnum,
		AllowedValues: []string{"debug", "info", "warn", "error"},
		Description:   "Minimum log level",
		Default:       "info",
	},
	"log_format": {
		Path:          "log_format",
		Type:          TypeEnum,
		AllowedValues: []string{"text", "json", "logfmt"},
		Description:   "Log output format",
		Default:       "text",
	},
	"history_max_entries": {
		Path:        "history_max_entries",
		Type:        TypeInt,
		Min:         0,
		Max:         10000,
		Description: "Maximum number of update attempts kept in history (0 keeps all)",
		Default:     100,
	},
	"notifications.enabled": {
		Path:        "notifications.enabled",
		Type:        TypeBool,
		Description: "Enable or disable all notifications",
		Default:     false,
	},
	"notifications.type": {
		Path:          "notifications.type",
		Type:          TypeEnum,
		AllowedValues: []string{"sound", "visual", "both"},
		Description:   "Notification output type",
		Default:       "visual",
	},
	"notifications.sound_file": {
		Path:        "notifications.sound_file",
		Type:        TypeString,
		Description: "Custom sound file for audible notifications",
		Default:     "",
	},
	"notifications.on_update": {
		Path:        "notifications.on_update",
		Type:        TypeBool,
		Description: "Notify when a new version was installed and started",
		Default:     true,
	},
	"notifications.on_error": {
		Path:        "notifications.on_error",
		Type:        TypeBool,
		Description: "Notify when an update fails or is rolled back",
		Default:     true,
	},
	"notifications.require_tty": {
		Path:        "notifications.require_tty",
		Type:        TypeBool,
		Description: "Only notify when a terminal is attached",
		Default:     false,
	},
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
// Returns ErrUnknownKey if the key is not in the registry.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// ParsedValue represents a configuration value after type inference and validation.
type ParsedValue struct {
	Raw    string          // Original string input from user
	Parsed any             // Value converted to correct type
	Type   ConfigValueType
}

// ValidateValue validates a value against the schema for a given key.
// Returns the parsed value or an error with details about what's wrong.
func ValidateValue(key, value string) (ParsedValue, error) {
	schema, err := GetKeySchema(key)
	if err != nil {
		return ParsedValue{}, err
	}
	return validateAgainstSchema(schema, value)
}

// validateAgainstSchema validates a value against a specific schema.
func validateAgainstSchema(schema ConfigKeySchema, value string) (ParsedValue, error) {
	switch schema.Type {
	case TypeBool:
		return parseBoolValue(value)
	case TypeInt:
		return parseIntValue(schema, value)
	case TypeEnum:
		return parseEnumValue(schema, value)
	case TypeString:
		return ParsedValue{Raw: value, Parsed: value, Type: TypeString}, nil
	default:
		return ParsedValue{}, fmt.Errorf("unsupported type: %v", schema.Type)
	}
}

// parseBoolValue parses and validates a boolean value.
func parseBoolValue(value string) (ParsedValue, error) {
	switch strings.ToLower(value) {
	case "true":
		return ParsedValue{Raw: value, Parsed: true, Type: TypeBool}, nil
	case "false":
		return ParsedValue{Raw: value, Parsed: false, Type: TypeBool}, nil
	default:
		return ParsedValue{}, fmt.Errorf("invalid boolean: %q (expected true or false)", value)
	}
}

// parseIntValue parses an integer and checks it against the key's bounds.
func parseIntValue(schema ConfigKeySchema, value string) (ParsedValue, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid integer: %q", value)
	}
	if n < schema.Min || n > schema.Max {
		return ParsedValue{}, fmt.Errorf("out of range: %d (valid range: %d-%d)", n, schema.Min, schema.Max)
	}
	return ParsedValue{Raw: value, Parsed: n, Type: TypeInt}, nil
}

// parseEnumValue validates a value against allowed enum options.
func parseEnumValue(schema ConfigKeySchema, value string) (ParsedValue, error) {
	for _, allowed := range schema.AllowedValues {
		if value == allowed {
			return ParsedValue{Raw: value, Parsed: value, Type: TypeEnum}, nil
		}
	}
	return ParsedValue{}, fmt.Errorf(
		"invalid value: %q (valid options: %s)",
		value,
		strings.Join(schema.AllowedValues, ", "),
	)
}

// SortedKeys returns the known key paths in alphabetical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
