package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// writeAtomically writes content to a file atomically using a temporary file and rename.
// Creates parent directories if they don't exist.
func writeAtomically(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmpFile, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		// Clean up temp file on error
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()
	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing to temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	tmpPath = "" // Prevent cleanup since rename succeeded
	return nil
}

// SetConfigValue sets a configuration value in a JSON config file.
// Validates the key and value against the schema before writing.
// Creates the file if it doesn't exist; other keys are preserved.
func SetConfigValue(filePath, key, value string) error {
	parsed, err := ValidateValue(key, value)
	if err != nil {
		return fmt.Errorf("validating value: %w", err)
	}

	k, err := loadOrCreate(filePath)
	if err != nil {
		return err
	}
	if err := k.Set(key, parsed.Parsed); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}

	content, err := k.Marshal(json.Parser())
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if err := writeAtomically(filePath, append(content, '\n')); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// GetConfigValue returns the value stored for key in filePath, and whether
// the file sets it at all.
func GetConfigValue(filePath, key string) (any, bool, error) {
	if _, err := GetKeySchema(key); err != nil {
		return nil, false, err
	}
	k, err := loadOrCreate(filePath)
	if err != nil {
		return nil, false, err
	}
	if !k.Exists(key) {
		return nil, false, nil
	}
	return k.Get(key), true, nil
}

// loadOrCreate loads a JSON config file, or returns an empty instance when
// the file does not exist yet.
func loadOrCreate(filePath string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return k, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := ValidateJSONSyntax(filePath); err != nil {
		return nil, err
	}
	if err := k.Load(file.Provider(filePath), json.Parser()); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return k, nil
}
