package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultReleaseURL is the endpoint for fetching the latest release.
	DefaultReleaseURL = "https://api.github.com/repos/Fan-Yu0/cursor/releases/latest"

	// DefaultHTTPTimeout is the default timeout for release metadata requests.
	DefaultHTTPTimeout = 30 * time.Second

	// maxReleaseBytes is the upper bound on the release metadata body (10 MB).
	maxReleaseBytes = 10 << 20
)

// Release is the metadata of the newest published release.
type Release struct {
	Version string
	Assets  []Asset
}

// Asset is a single downloadable archive attached to a release.
type Asset struct {
	Name        string
	DownloadURL string
}

// ReleaseFetcher retrieves metadata of the newest published release.
type ReleaseFetcher interface {
	FetchLatest(ctx context.Context) (*Release, error)
}

// RateLimitError is returned when the release API refuses requests until ResetAt.
type RateLimitError struct {
	Remaining int
	ResetAt   time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return "rate limit exceeded"
	}
	return fmt.Sprintf("rate limit exceeded (%d remaining, resets at %s)",
		e.Remaining, e.ResetAt.UTC().Format("15:04 UTC"))
}

// Is makes a RateLimitError match ErrNetwork.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrNetwork
}

// releaseWire is the JSON wire format of the release endpoint.
// Pointers distinguish absent fields from empty ones.
type releaseWire struct {
	TagName *string      `json:"tag_name"`
	Assets  *[]assetWire `json:"assets"`
}

type assetWire struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Fetcher queries a GitHub-style "latest release" endpoint.
type Fetcher struct {
	httpClient *http.Client
	apiURL     string
	token      string
	userAgent  string
}

// NewFetcher creates a release fetcher for apiURL with the given timeout.
func NewFetcher(apiURL string, timeout time.Duration) *Fetcher {
	if timeout == 0 {
		timeout = DefaultHTTPTimeout
	}
	if apiURL == "" {
		apiURL = DefaultReleaseURL
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     apiURL,
		userAgent:  "autoupdater",
	}
}

// SetToken sets a bearer token sent with release lookups. Empty disables authentication.
func (f *Fetcher) SetToken(token string) {
	f.token = token
}

// SetUserAgent sets the User-Agent header value.
func (f *Fetcher) SetUserAgent(ua string) {
	if ua != "" {
		f.userAgent = ua
	}
}

// APIURL returns the endpoint queried by FetchLatest.
func (f *Fetcher) APIURL() string {
	return f.apiURL
}

// FetchLatest performs a single GET against the release endpoint.
// It never retries; the caller decides whether to.
func (f *Fetcher) FetchLatest(ctx context.Context) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrNetwork, err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", f.userAgent)
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNetwork, redactURL(f.apiURL), err)
	}
	defer resp.Body.Close()

	if rlErr := checkRateLimit(resp); rlErr != nil {
		return nil, rlErr
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w at %s", ErrNotFound, redactURL(f.apiURL))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrNetwork, resp.StatusCode)
	}

	return parseRelease(io.LimitReader(resp.Body, maxReleaseBytes+1))
}

// parseRelease decodes and validates a release body.
func parseRelease(r io.Reader) (*Release, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetwork, err)
	}
	if len(body) > maxReleaseBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedResponse, maxReleaseBytes)
	}

	var wire releaseWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrMalformedResponse, err)
	}
	if wire.TagName == nil || strings.TrimSpace(*wire.TagName) == "" {
		return nil, fmt.Errorf("%w: missing tag_name", ErrMalformedResponse)
	}
	if wire.Assets == nil {
		return nil, fmt.Errorf("%w: missing assets", ErrMalformedResponse)
	}

	rel := &Release{
		Version: strings.TrimSpace(*wire.TagName),
		Assets:  make([]Asset, 0, len(*wire.Assets)),
	}
	for i, a := range *wire.Assets {
		if a.Name == "" || a.BrowserDownloadURL == "" {
			return nil, fmt.Errorf("%w: asset %d lacks name or browser_download_url", ErrMalformedResponse, i)
		}
		rel.Assets = append(rel.Assets, Asset{Name: a.Name, DownloadURL: a.BrowserDownloadURL})
	}
	return rel, nil
}

// checkRateLimit returns a *RateLimitError when the response signals an exhausted quota.
func checkRateLimit(resp *http.Response) error {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}
	remaining, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining"))
	if resp.StatusCode == http.StatusForbidden && (err != nil || remaining > 0) {
		return nil
	}
	rl := &RateLimitError{Remaining: max(remaining, 0)}
	if reset, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		rl.ResetAt = time.Unix(reset, 0)
	}
	return rl
}

// osAliases maps GOOS values to the substrings release assets use for them.
// "win" alone is not an alias since it also matches "darwin".
var osAliases = map[string][]string{
	"windows": {"windows"},
	"darwin":  {"darwin", "mac"},
	"linux":   {"linux"},
}

// PlatformAliases returns the asset-name substrings that identify goos.
func PlatformAliases(goos string) []string {
	if aliases, ok := osAliases[goos]; ok {
		return aliases
	}
	return []string{strings.ToLower(goos)}
}

// SelectAsset returns the first asset, in list order, whose name contains
// any alias of goos, compared case-insensitively.
func SelectAsset(assets []Asset, goos string) (Asset, error) {
	aliases := PlatformAliases(goos)
	for _, a := range assets {
		name := strings.ToLower(a.Name)
		for _, alias := range aliases {
			if strings.Contains(name, alias) {
				return a, nil
			}
		}
	}
	return Asset{}, fmt.Errorf("%w: %s (%d assets checked)", ErrNoMatchingAsset, goos, len(assets))
}

// redactURL strips credentials and query parameters from a URL for logging.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
