package update

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// pathSet is a set of cleaned absolute paths.
type pathSet map[string]struct{}

func newPathSet(paths ...string) pathSet {
	s := make(pathSet, len(paths))
	for _, p := range paths {
		if p != "" {
			s[filepath.Clean(p)] = struct{}{}
		}
	}
	return s
}

// has reports whether p itself is in the set.
func (s pathSet) has(p string) bool {
	_, ok := s[filepath.Clean(p)]
	return ok
}

// holds reports whether some member lies strictly beneath dir.
func (s pathSet) holds(dir string) bool {
	dir = filepath.Clean(dir)
	for p := range s {
		if p != dir && within(dir, p) {
			return true
		}
	}
	return false
}

// copyTree copies the contents of src into dst, creating dst when missing.
// Regular files keep their mode and symlinks are recreated. Paths in skip
// (on either side) are left alone.
func copyTree(src, dst string, skip pathSet) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if rel != "." && (skip.has(path) || skip.has(target)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			if err := os.MkdirAll(target, info.Mode().Perm()|0o700); err != nil {
				return fmt.Errorf("creating directory %s: %w", target, err)
			}
			return nil
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("reading symlink %s: %w", path, err)
			}
			if err := os.RemoveAll(target); err != nil {
				return fmt.Errorf("replacing %s: %w", target, err)
			}
			return os.Symlink(link, target)
		case info.Mode().IsRegular():
			return copyFile(path, target, info.Mode().Perm())
		}
		// Sockets, devices and pipes are not part of an installation.
		return nil
	})
}

// copyFile copies a single regular file, replacing dst.
func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	// O_TRUNC on an existing file keeps its old mode.
	return os.Chmod(dst, perm)
}

// removeContents deletes every entry of dir except the paths in keep.
// Directories that contain a kept path are descended into rather than removed.
func removeContents(dir string, keep pathSet) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", dir, err)
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if keep.has(path) {
			continue
		}
		if e.IsDir() && keep.holds(path) {
			if err := removeContents(path, keep); err != nil {
				return err
			}
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("removing %s: %w", path, err)
		}
	}
	return nil
}

// normalizeExtracted moves the unpacked tree into dst. When the archive held
// exactly one top-level directory and nothing else, that directory's contents
// become the root of dst.
func normalizeExtracted(extractDir, dst string) error {
	entries, err := os.ReadDir(extractDir)
	if err != nil {
		return fmt.Errorf("listing extracted files: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("archive is empty")
	}

	root := extractDir
	if len(entries) == 1 && entries[0].IsDir() {
		root = filepath.Join(extractDir, entries[0].Name())
	}

	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("clearing %s: %w", dst, err)
	}
	if err := os.Rename(root, dst); err == nil {
		return nil
	}
	// Rename can fail across volumes; fall back to a copy.
	if err := copyTree(root, dst, nil); err != nil {
		return fmt.Errorf("staging new files: %w", err)
	}
	return nil
}
