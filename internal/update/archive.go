package update

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxEntryBytes is the upper bound on a single extracted file (2 GB).
// Prevents decompression bombs from filling the disk.
const maxEntryBytes = 2 << 30

var (
	zipMagic  = []byte("PK\x03\x04")
	gzipMagic = []byte{0x1f, 0x8b}
)

// ExtractArchive unpacks a zip or gzip-compressed tar archive into dest.
// The format is detected from the file's leading bytes. Entries that would
// land outside dest are rejected, and symlinks pointing outside dest are skipped.
// Paths are checked after resolving links already on disk, so a chain of
// archive symlinks cannot redirect a later entry out of dest.
func ExtractArchive(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	head := make([]byte, 4)
	n, _ := io.ReadFull(f, head)
	f.Close()
	head = head[:n]

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("creating extract directory: %w", err)
	}
	root, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return fmt.Errorf("resolving extract directory: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, zipMagic):
		return extractZip(archivePath, root)
	case bytes.HasPrefix(head, gzipMagic):
		return extractTarGz(archivePath, root)
	}
	return fmt.Errorf("unsupported archive format (expected .zip or .tar.gz)")
}

func extractZip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("opening zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := entryTarget(dest, f.Name)
		if err != nil {
			return err
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if _, err := resolveParent(dest, target); err != nil {
				return err
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case mode&fs.ModeSymlink != 0:
			link, err := readZipLink(f)
			if err != nil {
				return err
			}
			if err := writeSymlink(dest, target, link); err != nil {
				return err
			}
		case mode.IsRegular():
			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("opening %s: %w", f.Name, err)
			}
			err = writeEntry(dest, target, rc, mode.Perm())
			rc.Close()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func readZipLink(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()
	link, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return "", fmt.Errorf("reading symlink %s: %w", f.Name, err)
	}
	return string(link), nil
}

func extractTarGz(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		target, err := entryTarget(dest, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if _, err := resolveParent(dest, target); err != nil {
				return err
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(dest, target, tr, fs.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := writeSymlink(dest, target, header.Linkname); err != nil {
				return err
			}
		}
		// Hard links, devices and FIFOs are ignored.
	}
}

// entryTarget resolves an archive entry name inside dest.
func entryTarget(dest, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes the extract directory", name)
	}
	return filepath.Join(dest, clean), nil
}

func writeEntry(dest, target string, r io.Reader, perm fs.FileMode) error {
	if _, err := resolveParent(dest, target); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	// A link left by an earlier entry must not redirect the write.
	if fi, err := os.Lstat(target); err == nil && fi.Mode()&fs.ModeSymlink != 0 {
		if err := os.Remove(target); err != nil {
			return err
		}
	}
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	n, err := io.Copy(out, io.LimitReader(r, maxEntryBytes+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	if n > maxEntryBytes {
		return fmt.Errorf("archive entry %s exceeds %d bytes", filepath.Base(target), int64(maxEntryBytes))
	}
	return nil
}

// writeSymlink creates target -> link when the link stays inside dest.
func writeSymlink(dest, target, link string) error {
	if filepath.IsAbs(link) {
		return nil
	}
	parent, err := resolveParent(dest, target)
	if err != nil {
		return err
	}
	if !within(dest, filepath.Join(parent, link)) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := os.Symlink(link, target); err != nil {
		return err
	}
	if resolved, err := filepath.EvalSymlinks(target); err == nil && !within(dest, resolved) {
		return os.Remove(target)
	}
	return nil
}

// resolveParent returns the on-disk location of target's directory with
// existing links followed. Components that do not exist yet are appended
// unresolved. It fails when the result lies outside dest.
func resolveParent(dest, target string) (string, error) {
	dir := filepath.Dir(target)
	var rest []string
	for {
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			for i := len(rest) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, rest[i])
			}
			if !within(dest, resolved) {
				return "", fmt.Errorf("archive entry %s resolves outside the extract directory", target)
			}
			return resolved, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("resolving %s: %w", dir, err)
		}
		up := filepath.Dir(dir)
		if up == dir {
			return "", fmt.Errorf("archive entry %s has no existing parent", target)
		}
		rest = append(rest, filepath.Base(dir))
		dir = up
	}
}
