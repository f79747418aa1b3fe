// Package history stores a record of update attempts in the state directory.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// HistoryFileName is the name of the history file.
	HistoryFileName = "history.yaml"
	// BackupSuffix is the suffix for backup files when corruption is detected.
	BackupSuffix = ".backup"
)

// Status values beyond the install states recorded by the helper.
const (
	// StatusInstalling means the install helper took over and has not reported back yet.
	StatusInstalling = "installing"
	// StatusUpToDate means no newer release was found.
	StatusUpToDate = "up_to_date"
	// StatusFailed means the attempt failed before the installation was touched.
	StatusFailed = "failed"
)

// Entry is one update attempt.
type Entry struct {
	// ID is a unique identifier in adjective_noun_YYYYMMDD_HHMMSS format.
	ID string `yaml:"id"`
	// SessionID links the entry to the install session, when one was created.
	SessionID string `yaml:"session_id,omitempty"`
	// StartedAt is when the attempt was first recorded.
	StartedAt time.Time `yaml:"started_at"`
	// CompletedAt is when the attempt reached a final status (nil while installing).
	CompletedAt *time.Time `yaml:"completed_at,omitempty"`
	// FromVersion is the version that was running.
	FromVersion string `yaml:"from_version"`
	// ToVersion is the release version offered, if the lookup succeeded.
	ToVersion string `yaml:"to_version,omitempty"`
	// Status is installing, up_to_date, failed, or a terminal install state
	// such as relaunched or aborted_restored.
	Status string `yaml:"status"`
	// Error is the failure message, if any.
	Error string `yaml:"error,omitempty"`
	// Duration is how long the parent side of the attempt took (e.g. "3.2s").
	Duration string `yaml:"duration,omitempty"`
}

// Final reports whether the entry will not change anymore.
func (e Entry) Final() bool {
	return e.Status != StatusInstalling && e.Status != ""
}

// File is the YAML document holding all entries, oldest first.
type File struct {
	Entries []Entry `yaml:"entries"`
}

// DefaultHistoryDir returns ~/.autoupdater/state.
func DefaultHistoryDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".autoupdater", "state"), nil
}

// Load reads the history file in stateDir. A missing file yields an empty
// history; a corrupted one is moved aside with BackupSuffix and replaced.
func Load(stateDir string) (*File, error) {
	historyPath := filepath.Join(stateDir, HistoryFileName)

	data, err := os.ReadFile(historyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{Entries: []Entry{}}, nil
		}
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	var history File
	if err := yaml.Unmarshal(data, &history); err != nil {
		if backupErr := os.Rename(historyPath, historyPath+BackupSuffix); backupErr != nil {
			return nil, fmt.Errorf("backing up corrupted history file: %w", backupErr)
		}
		return &File{Entries: []Entry{}}, nil
	}
	if history.Entries == nil {
		history.Entries = []Entry{}
	}
	return &history, nil
}

// Save writes history to stateDir atomically.
func Save(stateDir string, history *File) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	historyPath := filepath.Join(stateDir, HistoryFileName)
	tmpPath := historyPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp history file: %w", err)
	}
	if err := os.Rename(tmpPath, historyPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp history file: %w", err)
	}
	return nil
}

// Clear removes all entries.
func Clear(stateDir string) error {
	return Save(stateDir, &File{Entries: []Entry{}})
}

// FindSession returns the index of the entry for sessionID, or -1.
func (f *File) FindSession(sessionID string) int {
	if sessionID == "" {
		return -1
	}
	for i := len(f.Entries) - 1; i >= 0; i-- {
		if f.Entries[i].SessionID == sessionID {
			return i
		}
	}
	return -1
}
