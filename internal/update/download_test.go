package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloader_Download(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		responseCode int
		responseBody string
		wantReason   DownloadReason
		wantErr      bool
	}{
		"successful download": {
			responseCode: http.StatusOK,
			responseBody: "fake archive content",
		},
		"not found": {
			responseCode: http.StatusNotFound,
			wantReason:   ReasonTransport,
			wantErr:      true,
		},
		"server error": {
			responseCode: http.StatusInternalServerError,
			wantReason:   ReasonTransport,
			wantErr:      true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.responseCode)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			dir := t.TempDir()
			downloader := NewDownloader(server.Client(), time.Second)

			path, err := downloader.Download(context.Background(), server.URL+"/app-linux.zip", dir, nil)

			if tt.wantErr {
				var de *DownloadError
				require.ErrorAs(t, err, &de)
				assert.Equal(t, tt.wantReason, de.Reason)
				assert.ErrorIs(t, err, ErrDownload)
				assertDirEmpty(t, dir)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, dir, filepath.Dir(path))
			assert.True(t, strings.HasSuffix(path, ".zip"))
			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.responseBody, string(content))
		})
	}
}

func TestDownloader_UniqueNames(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	defer server.Close()

	dir := t.TempDir()
	downloader := NewDownloader(server.Client(), time.Second)

	first, err := downloader.Download(context.Background(), server.URL, dir, nil)
	require.NoError(t, err)
	second, err := downloader.Download(context.Background(), server.URL, dir, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestDownloader_IncompleteBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("only a few bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	_, err := NewDownloader(server.Client(), time.Second).Download(context.Background(), server.URL, dir, nil)

	var de *DownloadError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ReasonIncompleteBody, de.Reason)
	assertDirEmpty(t, dir)
}

func TestDownloader_StalledBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	_, err := NewDownloader(server.Client(), 50*time.Millisecond).Download(context.Background(), server.URL, dir, nil)

	var de *DownloadError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ReasonTimeout, de.Reason)
	assertDirEmpty(t, dir)
}

func TestDownloader_ProgressSamples(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("x", 64*1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	progress := make(chan ProgressSample, 16)
	_, err := NewDownloader(server.Client(), time.Second).Download(context.Background(), server.URL, t.TempDir(), progress)
	require.NoError(t, err)
	close(progress)

	var last ProgressSample
	for s := range progress {
		assert.GreaterOrEqual(t, s.BytesDownloaded, last.BytesDownloaded, "samples are monotonic")
		last = s
	}
	assert.Equal(t, int64(len(body)), last.BytesDownloaded)
	assert.Equal(t, int64(len(body)), last.TotalBytes)
	assert.InDelta(t, 100.0, last.Percent(), 0.001)
}

func TestDownloader_ProgressNeverBlocks(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("y", 4096)))
	}))
	defer server.Close()

	// Unbuffered and never read: every send must be dropped.
	progress := make(chan ProgressSample)
	done := make(chan error, 1)
	go func() {
		_, err := NewDownloader(server.Client(), time.Second).Download(context.Background(), server.URL, t.TempDir(), progress)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("download blocked on progress consumer")
	}
}

func TestDownloader_CanceledContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDownloader(server.Client(), time.Second).Download(ctx, server.URL, t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrDownload)
}

func TestProgressSample_Percent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -1.0, ProgressSample{BytesDownloaded: 10, TotalBytes: -1}.Percent())
	assert.InDelta(t, 50.0, ProgressSample{BytesDownloaded: 5, TotalBytes: 10}.Percent(), 0.001)
}

func TestArchiveExt(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		url  string
		want string
	}{
		"zip":          {url: "https://example.com/a/app-linux.zip", want: ".zip"},
		"tar.gz":       {url: "https://example.com/app.TAR.GZ?x=1", want: ".tar.gz"},
		"tgz":          {url: "https://example.com/app.tgz", want: ".tgz"},
		"unrecognized": {url: "https://example.com/download", want: ""},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, archiveExt(tt.url))
		})
	}
}

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	client := NewHTTPClient(2 * time.Second)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, transport.ResponseHeaderTimeout)
	assert.Equal(t, 2*time.Second, transport.TLSHandshakeTimeout)
	assert.Zero(t, client.Timeout, "body reads are bounded by the idle timer, not a total deadline")
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
