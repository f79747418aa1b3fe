package update

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// sessionIDLayout is the timestamp format used for session identifiers.
const sessionIDLayout = "20060102T150405.000000000"

// Session groups every path of one update attempt. All paths live under
// TempRoot except InstallDir, which is never removed.
type Session struct {
	ID            string `json:"id"`
	SourceVersion string `json:"source_version"`
	TargetVersion string `json:"target_version"`
	InstallDir    string `json:"install_dir"`
	TempRoot      string `json:"temp_root"`
	StagingFile   string `json:"staging_file"`
	BackupDir     string `json:"backup_dir"`
	ExtractDir    string `json:"extract_dir"`
	NewDir        string `json:"new_dir"`
}

// NewSession creates a fresh session root "session-<timestamp>" under tempBase.
// StagingFile is left empty until the archive has been downloaded.
func NewSession(tempBase, installDir, from, to string, now time.Time) (*Session, error) {
	base, err := filepath.Abs(tempBase)
	if err != nil {
		return nil, fmt.Errorf("resolving temp directory: %w", err)
	}
	install, err := filepath.Abs(installDir)
	if err != nil {
		return nil, fmt.Errorf("resolving install directory: %w", err)
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}

	// Bump the timestamp on collision so two attempts never share a root.
	for i := 0; i < 100; i++ {
		id := now.UTC().Add(time.Duration(i)).Format(sessionIDLayout)
		root := filepath.Join(base, "session-"+id)
		err := os.Mkdir(root, 0o755)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("creating session directory: %w", err)
		}
		return &Session{
			ID:            id,
			SourceVersion: from,
			TargetVersion: to,
			InstallDir:    install,
			TempRoot:      root,
			BackupDir:     filepath.Join(root, "backup"),
			ExtractDir:    filepath.Join(root, "extract"),
			NewDir:        filepath.Join(root, "new"),
		}, nil
	}
	return nil, fmt.Errorf("creating session directory: too many concurrent sessions in %s", base)
}

// HelperDir is where the per-attempt install helper binary is placed.
func (s *Session) HelperDir() string {
	return filepath.Join(s.TempRoot, "helper")
}

// PlanFile is where the serialized install plan is written.
func (s *Session) PlanFile() string {
	return filepath.Join(s.TempRoot, "plan.json")
}

// Remove deletes the whole session root. A missing root is not an error.
func (s *Session) Remove() error {
	if s == nil || s.TempRoot == "" {
		return nil
	}
	if err := os.RemoveAll(s.TempRoot); err != nil {
		return fmt.Errorf("removing session %s: %w", s.ID, err)
	}
	return nil
}
