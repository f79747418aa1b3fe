package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_FetchLatest(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		responseCode int
		headers      map[string]string
		responseBody string
		wantVersion  string
		wantAssets   []Asset
		wantErr      error
	}{
		"release with assets": {
			responseCode: http.StatusOK,
			responseBody: `{
				"tag_name": "1.0.53",
				"assets": [
					{"name": "app-windows.zip", "browser_download_url": "https://example.com/w.zip"},
					{"name": "app-mac.zip", "browser_download_url": "https://example.com/m.zip"}
				]
			}`,
			wantVersion: "1.0.53",
			wantAssets: []Asset{
				{Name: "app-windows.zip", DownloadURL: "https://example.com/w.zip"},
				{Name: "app-mac.zip", DownloadURL: "https://example.com/m.zip"},
			},
		},
		"empty asset list": {
			responseCode: http.StatusOK,
			responseBody: `{"tag_name": "v2.0.0", "assets": []}`,
			wantVersion:  "v2.0.0",
			wantAssets:   []Asset{},
		},
		"missing tag_name": {
			responseCode: http.StatusOK,
			responseBody: `{"assets": []}`,
			wantErr:      ErrMalformedResponse,
		},
		"missing assets": {
			responseCode: http.StatusOK,
			responseBody: `{"tag_name": "1.0.0"}`,
			wantErr:      ErrMalformedResponse,
		},
		"asset without url": {
			responseCode: http.StatusOK,
			responseBody: `{"tag_name": "1.0.0", "assets": [{"name": "a.zip"}]}`,
			wantErr:      ErrMalformedResponse,
		},
		"invalid json": {
			responseCode: http.StatusOK,
			responseBody: `{"tag_name": `,
			wantErr:      ErrMalformedResponse,
		},
		"server error": {
			responseCode: http.StatusInternalServerError,
			responseBody: `oops`,
			wantErr:      ErrNetwork,
		},
		"rate limited": {
			responseCode: http.StatusForbidden,
			headers: map[string]string{
				"X-RateLimit-Remaining": "0",
				"X-RateLimit-Reset":     "1700000000",
			},
			responseBody: `{"message": "API rate limit exceeded"}`,
			wantErr:      ErrNetwork,
		},
		"forbidden without quota headers": {
			responseCode: http.StatusForbidden,
			responseBody: `{"message": "forbidden"}`,
			wantErr:      ErrNetwork,
		},
		"not found": {
			responseCode: http.StatusNotFound,
			responseBody: `{"message": "Not Found"}`,
			wantErr:      ErrNotFound,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.responseCode)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			fetcher := NewFetcher(server.URL, 5*time.Second)
			rel, err := fetcher.FetchLatest(context.Background())

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, rel.Version)
			assert.Equal(t, tt.wantAssets, rel.Assets)
		})
	}
}

func TestFetcher_RateLimitError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewFetcher(server.URL, time.Second).FetchLatest(context.Background())

	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 0, rl.Remaining)
	assert.Equal(t, time.Unix(1700000000, 0), rl.ResetAt)
}

func TestFetcher_SingleRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewFetcher(server.URL, time.Second).FetchLatest(context.Background())
	require.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, int32(1), calls.Load(), "fetcher must not retry on its own")
}

func TestFetcher_Headers(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "myapp/1.0.4", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"tag_name": "1.0.4", "assets": []}`))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, time.Second)
	fetcher.SetToken("secret")
	fetcher.SetUserAgent("myapp/1.0.4")

	_, err := fetcher.FetchLatest(context.Background())
	require.NoError(t, err)
}

func TestFetcher_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"tag_name": "1.0.0", "assets": []}`))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, 20*time.Millisecond)
	_, err := fetcher.FetchLatest(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestFetcher_OversizedBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name": "1.0.0", "assets": [], "body": "`))
		_, _ = w.Write([]byte(strings.Repeat("x", maxReleaseBytes)))
		_, _ = w.Write([]byte(`"}`))
	}))
	defer server.Close()

	_, err := NewFetcher(server.URL, 5*time.Second).FetchLatest(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestSelectAsset(t *testing.T) {
	t.Parallel()

	assets := []Asset{
		{Name: "App-Windows-x64.zip", DownloadURL: "https://example.com/win"},
		{Name: "app-macOS.zip", DownloadURL: "https://example.com/mac"},
		{Name: "app-darwin-arm64.tar.gz", DownloadURL: "https://example.com/darwin"},
		{Name: "app-LINUX.tar.gz", DownloadURL: "https://example.com/linux"},
	}

	tests := map[string]struct {
		assets  []Asset
		goos    string
		wantURL string
		wantErr bool
	}{
		"windows case-insensitive": {assets: assets, goos: "windows", wantURL: "https://example.com/win"},
		"darwin matches mac alias first in list order": {
			assets: assets, goos: "darwin", wantURL: "https://example.com/mac",
		},
		"linux upper-case name": {assets: assets, goos: "linux", wantURL: "https://example.com/linux"},
		"darwin asset is not windows": {
			assets:  []Asset{{Name: "app-darwin.zip", DownloadURL: "d"}},
			goos:    "windows",
			wantErr: true,
		},
		"unknown os falls back to goos": {
			assets:  []Asset{{Name: "app-freebsd.tgz", DownloadURL: "f"}},
			goos:    "freebsd",
			wantURL: "f",
		},
		"no match":   {assets: assets[:2], goos: "linux", wantErr: true},
		"empty list": {assets: nil, goos: "linux", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := SelectAsset(tt.assets, tt.goos)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoMatchingAsset)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, got.DownloadURL)
		})
	}
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com/a", redactURL("https://user:pw@example.com/a?token=x#frag"))
	assert.Equal(t, "<invalid url>", redactURL("://bad"))
}
