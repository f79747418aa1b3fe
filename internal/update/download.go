package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

const (
	// DefaultConnectTimeout bounds connection setup and the wait for response headers.
	DefaultConnectTimeout = 30 * time.Second

	// DefaultReadTimeout bounds the gap between two successful body reads.
	DefaultReadTimeout = 30 * time.Second

	// progressInterval is the minimum spacing between two progress samples.
	progressInterval = 100 * time.Millisecond
)

var (
	errReadStalled = errors.New("no data received within read timeout")
	downloadSeq    atomic.Uint64
)

// ProgressSample is an advisory snapshot of a running download.
// TotalBytes is -1 when the server did not declare a length.
type ProgressSample struct {
	BytesDownloaded int64
	TotalBytes      int64
	Elapsed         time.Duration
}

// Percent returns the completed fraction in percent, or -1 when the total is unknown.
func (s ProgressSample) Percent() float64 {
	if s.TotalBytes <= 0 {
		return -1
	}
	return float64(s.BytesDownloaded) / float64(s.TotalBytes) * 100
}

// ArchiveDownloader streams a release archive into a directory.
type ArchiveDownloader interface {
	Download(ctx context.Context, rawURL, dir string, progress chan<- ProgressSample) (string, error)
}

// Downloader handles downloading release archives.
type Downloader struct {
	httpClient  *http.Client
	readTimeout time.Duration
}

// NewHTTPClient returns a client whose dial, TLS handshake and response header
// waits are each bounded by connectTimeout. The body has no overall deadline;
// Downloader enforces an idle read timeout instead.
func NewHTTPClient(connectTimeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = connectTimeout
	transport.ResponseHeaderTimeout = connectTimeout
	return &http.Client{Transport: transport}
}

// NewDownloader creates a new downloader with the given HTTP client.
func NewDownloader(client *http.Client, readTimeout time.Duration) *Downloader {
	if client == nil {
		client = NewHTTPClient(DefaultConnectTimeout)
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Downloader{httpClient: client, readTimeout: readTimeout}
}

// progressWriter counts written bytes, keeps the idle timer alive and
// publishes throttled samples without ever blocking the copy.
type progressWriter struct {
	Writer   io.Writer
	Total    int64
	Current  int64
	Started  time.Time
	Idle     *time.Timer
	Timeout  time.Duration
	OnUpdate chan<- ProgressSample

	lastSent time.Time
}

// Write implements io.Writer and reports progress.
func (pw *progressWriter) Write(p []byte) (int, error) {
	pw.Idle.Reset(pw.Timeout)
	n, err := pw.Writer.Write(p)
	pw.Current += int64(n)
	if now := time.Now(); now.Sub(pw.lastSent) >= progressInterval {
		pw.lastSent = now
		pw.publish(now)
	}
	return n, err
}

func (pw *progressWriter) publish(now time.Time) {
	if pw.OnUpdate == nil {
		return
	}
	sample := ProgressSample{BytesDownloaded: pw.Current, TotalBytes: pw.Total, Elapsed: now.Sub(pw.Started)}
	select {
	case pw.OnUpdate <- sample:
	default:
	}
}

// Download fetches rawURL into a new, uniquely named file inside dir and
// returns its path. Samples are offered to progress when it is non-nil; a full
// channel drops them. The partial file is removed on failure.
func (d *Downloader) Download(ctx context.Context, rawURL, dir string, progress chan<- ProgressSample) (string, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	idle := time.AfterFunc(d.readTimeout, func() { cancel(errReadStalled) })
	defer idle.Stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &DownloadError{Reason: ReasonTransport, URL: redactURL(rawURL), Err: err}
	}

	started := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", d.classify(ctx, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &DownloadError{
			Reason: ReasonTransport,
			URL:    redactURL(rawURL),
			Err:    fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	dest := filepath.Join(dir, fmt.Sprintf("download-%d-%d%s", time.Now().UnixNano(), downloadSeq.Add(1), archiveExt(rawURL)))
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", &DownloadError{Reason: ReasonTransport, URL: redactURL(rawURL), Err: fmt.Errorf("creating staging file: %w", err)}
	}

	pw := &progressWriter{
		Writer:   f,
		Total:    resp.ContentLength,
		Started:  started,
		Idle:     idle,
		Timeout:  d.readTimeout,
		OnUpdate: progress,
	}

	written, copyErr := io.Copy(pw, resp.Body)
	closeErr := f.Close()

	if copyErr == nil && resp.ContentLength >= 0 && written != resp.ContentLength {
		copyErr = &DownloadError{
			Reason: ReasonIncompleteBody,
			URL:    redactURL(rawURL),
			Err:    fmt.Errorf("received %d of %d bytes", written, resp.ContentLength),
		}
	}
	if copyErr == nil && closeErr != nil {
		copyErr = &DownloadError{Reason: ReasonTransport, URL: redactURL(rawURL), Err: fmt.Errorf("writing staging file: %w", closeErr)}
	}
	if copyErr != nil {
		os.Remove(dest)
		var de *DownloadError
		if errors.As(copyErr, &de) {
			return "", de
		}
		return "", d.classify(ctx, rawURL, copyErr)
	}

	pw.publish(time.Now())
	return dest, nil
}

// classify maps a transfer error onto a DownloadError reason.
func (d *Downloader) classify(ctx context.Context, rawURL string, err error) *DownloadError {
	reason := ReasonTransport
	switch {
	case errors.Is(context.Cause(ctx), errReadStalled):
		reason = ReasonTimeout
		err = fmt.Errorf("%w (%s)", errReadStalled, d.readTimeout)
	case isTimeout(err):
		reason = ReasonTimeout
	case errors.Is(err, io.ErrUnexpectedEOF):
		reason = ReasonIncompleteBody
	}
	return &DownloadError{Reason: reason, URL: redactURL(rawURL), Err: err}
}

// archiveExt returns the archive extension of the URL path, if recognizable.
func archiveExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := strings.ToLower(path.Base(u.Path))
	for _, ext := range []string{".tar.gz", ".tgz", ".zip"} {
		if strings.HasSuffix(name, ext) {
			return ext
		}
	}
	return ""
}
