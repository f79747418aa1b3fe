// Package clean finds and removes leftovers of past update attempts: session
// directories under the temp directory and per-session helper logs.
package clean

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TargetType represents the type of a clean target
type TargetType string

const (
	// TypeDirectory indicates a directory target
	TypeDirectory TargetType = "directory"
	// TypeFile indicates a file target
	TypeFile TargetType = "file"
)

const (
	sessionPrefix = "session-"
	logSuffix     = ".log"
)

// CleanTarget represents a file or directory to be removed during clean operation
type CleanTarget struct {
	Path        string     // Absolute path to the file/directory
	Type        TargetType // Type of target: 'directory' or 'file'
	Description string     // Human-readable description for display
	ModTime     time.Time
}

// CleanResult represents the result of attempting to remove a target
type CleanResult struct {
	Target  CleanTarget // The target that was processed
	Success bool        // Whether removal succeeded
	Error   error       // Error if removal failed
}

// Options controls which leftovers FindStale reports.
type Options struct {
	TempDir   string
	LogDir    string
	OlderThan time.Duration
	Now       time.Time
}

// FindStale lists session directories in TempDir and helper logs in LogDir
// last modified before Now minus OlderThan. Recent entries are skipped so a
// helper that is still installing keeps its files. Missing directories yield
// no targets.
func FindStale(opts Options) ([]CleanTarget, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	cutoff := opts.Now.Add(-opts.OlderThan)

	sessions, err := scan(opts.TempDir, cutoff, func(e fs.DirEntry) bool {
		return e.IsDir() && strings.HasPrefix(e.Name(), sessionPrefix)
	})
	if err != nil {
		return nil, err
	}
	logs, err := scan(opts.LogDir, cutoff, func(e fs.DirEntry) bool {
		return !e.IsDir() && strings.HasPrefix(e.Name(), sessionPrefix) && strings.HasSuffix(e.Name(), logSuffix)
	})
	if err != nil {
		return nil, err
	}
	return append(sessions, logs...), nil
}

func scan(dir string, cutoff time.Time, match func(fs.DirEntry) bool) ([]CleanTarget, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var targets []CleanTarget
	for _, e := range entries {
		if !match(e) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed while scanning
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		t := CleanTarget{
			Path:    filepath.Join(dir, e.Name()),
			ModTime: info.ModTime(),
		}
		if e.IsDir() {
			t.Type = TypeDirectory
			t.Description = "Update session directory"
		} else {
			t.Type = TypeFile
			t.Description = "Install helper log"
		}
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].ModTime.Before(targets[j].ModTime) })
	return targets, nil
}

// RemoveFiles removes the specified targets and returns results for each.
// Continues on error to attempt removing all targets.
func RemoveFiles(targets []CleanTarget) []CleanResult {
	results := make([]CleanResult, 0, len(targets))

	for _, target := range targets {
		result := CleanResult{
			Target:  target,
			Success: true,
		}

		var err error
		if target.Type == TypeDirectory {
			err = os.RemoveAll(target.Path)
		} else {
			err = os.Remove(target.Path)
		}

		if err != nil {
			result.Success = false
			result.Error = err
		}

		results = append(results, result)
	}

	return results
}
