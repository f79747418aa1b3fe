package update

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractArchive(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"main.py":         "print('hi')",
		"lib/helper.py":   "x = 1",
		"assets/icon.txt": "icon",
	}

	tests := map[string]struct {
		build func(t *testing.T) []byte
		name  string
	}{
		"zip":    {build: func(t *testing.T) []byte { return zipBytes(t, files) }, name: "a.zip"},
		"tar.gz": {build: func(t *testing.T) []byte { return tarGzBytes(t, files) }, name: "a.tar.gz"},
		"zip without extension": {
			build: func(t *testing.T) []byte { return zipBytes(t, files) },
			name:  "download-1",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			archive := writeArchive(t, dir, tt.name, tt.build(t))
			dest := filepath.Join(dir, "out")

			require.NoError(t, ExtractArchive(archive, dest))
			assert.Equal(t, files, readTree(t, dest))
		})
	}
}

func TestExtractArchive_Unsupported(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := writeArchive(t, dir, "a.rar", []byte("Rar!\x1a\x07"))
	err := ExtractArchive(archive, filepath.Join(dir, "out"))
	assert.ErrorContains(t, err, "unsupported archive format")
}

func TestExtractArchive_Truncated(t *testing.T) {
	t.Parallel()

	data := tarGzBytes(t, map[string]string{"a.txt": "content that is long enough"})
	dir := t.TempDir()
	archive := writeArchive(t, dir, "a.tar.gz", data[:len(data)/2])
	assert.Error(t, ExtractArchive(archive, filepath.Join(dir, "out")))
}

func TestExtractArchive_RejectsTraversal(t *testing.T) {
	t.Parallel()

	var zbuf bytes.Buffer
	zw := zip.NewWriter(&zbuf)
	w, err := zw.Create("../evil.txt")
	require.NoError(t, err)
	_, _ = w.Write([]byte("evil"))
	require.NoError(t, zw.Close())

	var tbuf bytes.Buffer
	gz := gzip.NewWriter(&tbuf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "../../evil.txt", Mode: 0o644, Size: 4, Typeflag: tar.TypeReg}))
	_, _ = tw.Write([]byte("evil"))
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	tests := map[string]struct {
		data []byte
		name string
	}{
		"zip":    {data: zbuf.Bytes(), name: "a.zip"},
		"tar.gz": {data: tbuf.Bytes(), name: "a.tar.gz"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			archive := writeArchive(t, dir, tt.name, tt.data)
			dest := filepath.Join(dir, "nested", "out")

			assert.Error(t, ExtractArchive(archive, dest))
			_, statErr := os.Stat(filepath.Join(dir, "evil.txt"))
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestExtractArchive_Symlinks(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "real.txt", Mode: 0o644, Size: 4, Typeflag: tar.TypeReg}))
	_, _ = tw.Write([]byte("real"))
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "inside", Linkname: "real.txt", Typeflag: tar.TypeSymlink}))
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "outside", Linkname: "../../etc/passwd", Typeflag: tar.TypeSymlink}))
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "absolute", Linkname: "/etc/passwd", Typeflag: tar.TypeSymlink}))
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	dir := t.TempDir()
	archive := writeArchive(t, dir, "a.tar.gz", buf.Bytes())
	dest := filepath.Join(dir, "out")
	require.NoError(t, ExtractArchive(archive, dest))

	link, err := os.Readlink(filepath.Join(dest, "inside"))
	require.NoError(t, err)
	assert.Equal(t, "real.txt", link)

	for _, name := range []string{"outside", "absolute"} {
		_, err := os.Lstat(filepath.Join(dest, name))
		assert.True(t, os.IsNotExist(err), "%s must be skipped", name)
	}
}

func TestExtractArchive_SymlinkChain(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}

	// Each link looks harmless as text, but d/t/u resolves two levels up
	// once d/t exists on disk.
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "d/t", Linkname: "..", Typeflag: tar.TypeSymlink}))
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "d/t/u", Linkname: "..", Typeflag: tar.TypeSymlink}))
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "u/evil.txt", Mode: 0o644, Size: 5, Typeflag: tar.TypeReg}))
	_, _ = tw.Write([]byte("pwned"))
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	dir := t.TempDir()
	archive := writeArchive(t, dir, "a.tar.gz", buf.Bytes())
	session := filepath.Join(dir, "session")
	dest := filepath.Join(session, "extract")
	require.NoError(t, ExtractArchive(archive, dest))

	_, err := os.Stat(filepath.Join(session, "evil.txt"))
	assert.True(t, os.IsNotExist(err), "no file may be written outside the extract directory")
	_, err = os.Lstat(filepath.Join(dest, "d", "t", "u"))
	assert.True(t, os.IsNotExist(err), "escaping link must be skipped")

	data, err := os.ReadFile(filepath.Join(dest, "u", "evil.txt"))
	require.NoError(t, err)
	assert.Equal(t, "pwned", string(data))
}

func TestExtractArchive_WriteThroughLinkRejected(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}

	dir := t.TempDir()
	outside := filepath.Join(dir, "outside")
	require.NoError(t, os.MkdirAll(outside, 0o755))
	dest := filepath.Join(dir, "extract")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.Symlink(outside, filepath.Join(dest, "lib")))

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "lib/a.txt", Mode: 0o644, Size: 1, Typeflag: tar.TypeReg}))
	_, _ = tw.Write([]byte("a"))
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	archive := writeArchive(t, dir, "a.tar.gz", buf.Bytes())
	err := ExtractArchive(archive, dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the extract directory")
	assert.NoFileExists(t, filepath.Join(outside, "a.txt"))
}

func TestNormalizeExtracted(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		files map[string]string
		want  map[string]string
	}{
		"single wrapper directory is stripped": {
			files: map[string]string{"app-1.0.53/main.py": "m", "app-1.0.53/lib/a.py": "a"},
			want:  map[string]string{"main.py": "m", "lib/a.py": "a"},
		},
		"flat archive kept as is": {
			files: map[string]string{"main.py": "m", "lib/a.py": "a"},
			want:  map[string]string{"main.py": "m", "lib/a.py": "a"},
		},
		"directory plus file kept as is": {
			files: map[string]string{"app/main.py": "m", "README": "r"},
			want:  map[string]string{"app/main.py": "m", "README": "r"},
		},
		"single file kept as is": {
			files: map[string]string{"app.exe": "bin"},
			want:  map[string]string{"app.exe": "bin"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			root := t.TempDir()
			extract := filepath.Join(root, "extract")
			dst := filepath.Join(root, "new")
			writeTree(t, extract, tt.files)

			require.NoError(t, normalizeExtracted(extract, dst))
			assert.Equal(t, tt.want, readTree(t, dst))
		})
	}
}

func TestNormalizeExtracted_Empty(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	extract := filepath.Join(root, "extract")
	require.NoError(t, os.MkdirAll(extract, 0o755))
	assert.ErrorContains(t, normalizeExtracted(extract, filepath.Join(root, "new")), "empty")
}
