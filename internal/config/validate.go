package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/fan-yu0/autoupdater/internal/notify"
)

// ValidationError represents a configuration validation error with context
type ValidationError struct {
	FilePath string
	Line     int
	Column   int
	Message  string
	Field    string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s': %s", e.FilePath, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// ValidateJSONSyntax checks if the JSON file has valid syntax.
// Returns nil if valid, or a ValidationError with line/column information if invalid.
func ValidateJSONSyntax(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Missing file is not an error - will use defaults
		}
		if os.IsPermission(err) {
			return &ValidationError{
				FilePath: filePath,
				Message:  "permission denied",
			}
		}
		return &ValidationError{
			FilePath: filePath,
			Message:  err.Error(),
		}
	}
	return ValidateJSONSyntaxFromBytes(data, filePath)
}

// ValidateJSONSyntaxFromBytes checks that data holds a single JSON object.
// Empty data is valid and means "use defaults".
func ValidateJSONSyntaxFromBytes(data []byte, filePath string) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			line, column := offsetToLineColumn(data, syntaxErr.Offset)
			return &ValidationError{
				FilePath: filePath,
				Line:     line,
				Column:   column,
				Message:  syntaxErr.Error(),
			}
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &ValidationError{
				FilePath: filePath,
				Message:  "top-level value must be an object",
			}
		}
		return &ValidationError{
			FilePath: filePath,
			Message:  err.Error(),
		}
	}
	return nil
}

// offsetToLineColumn converts a byte offset into a 1-based line and column.
func offsetToLineColumn(data []byte, offset int64) (line, column int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, column = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			column = 1
			continue
		}
		column++
	}
	// json reports the offset after the offending byte
	if column > 1 {
		column--
	}
	return line, column
}

// ValidateConfigValues checks constraints the struct tags cannot express and
// reports them with the config key that needs fixing.
func ValidateConfigValues(cfg *Configuration, filePath string) error {
	if cfg.StateDir == "" {
		return &ValidationError{
			FilePath: filePath,
			Field:    "state_dir",
			Message:  "is required",
		}
	}

	u, err := url.Parse(cfg.ReleaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{
			FilePath: filePath,
			Field:    "release_url",
			Message:  "must be an absolute http or https URL",
		}
	}

	if cfg.MaxRetries < 0 || cfg.MaxRetries > 10 {
		return &ValidationError{
			FilePath: filePath,
			Field:    "max_retries",
			Message:  "must be between 0 and 10",
		}
	}

	for i, arg := range cfg.EntryArgs {
		if arg == "" {
			return &ValidationError{
				FilePath: filePath,
				Field:    fmt.Sprintf("entry_args[%d]", i),
				Message:  "must not be empty",
			}
		}
	}

	return validateNotificationConfig(&cfg.Notifications, filePath)
}

// validateNotificationConfig validates notification configuration values.
// Returns nil if valid, or a ValidationError with field information if invalid.
func validateNotificationConfig(nc *notify.NotificationConfig, filePath string) error {
	if nc.Type != "" && !notify.ValidOutputType(string(nc.Type)) {
		return &ValidationError{
			FilePath: filePath,
			Field:    "notifications.type",
			Message:  "must be one of: sound, visual, both",
		}
	}

	if nc.SoundFile != "" {
		if err := notify.ValidateSoundFile(nc.SoundFile); err != nil {
			return &ValidationError{
				FilePath: filePath,
				Field:    "notifications.sound_file",
				Message:  err.Error(),
			}
		}
	}

	return nil
}
