package update

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidVersion indicates a version string is not a dotted numeric version.
	ErrInvalidVersion = errors.New("invalid version")

	// ErrNetwork indicates the release endpoint could not be reached or returned a non-success status.
	ErrNetwork = errors.New("release lookup failed")

	// ErrNotFound indicates the release endpoint reported no published release.
	ErrNotFound = errors.New("no releases found")

	// ErrMalformedResponse indicates the release metadata could not be decoded or lacks required fields.
	ErrMalformedResponse = errors.New("malformed release metadata")

	// ErrNoMatchingAsset indicates no release asset matches the host operating system.
	ErrNoMatchingAsset = errors.New("no asset matches this platform")

	// ErrDownload is matched by every *DownloadError.
	ErrDownload = errors.New("download failed")

	// ErrBackupFailed indicates the installation could not be copied into the session backup.
	// The installation has not been touched.
	ErrBackupFailed = errors.New("backup failed")

	// ErrExtractFailed indicates the archive could not be unpacked into the session.
	ErrExtractFailed = errors.New("extract failed")

	// ErrSwapFailed indicates the installation directory could not be replaced.
	ErrSwapFailed = errors.New("swap failed")

	// ErrRestoreFailed indicates the backup could not be copied back after a failed swap.
	// The installation directory may be inconsistent.
	ErrRestoreFailed = errors.New("restore from backup failed")

	// ErrRelaunchFailed indicates the new version is installed but could not be started.
	ErrRelaunchFailed = errors.New("relaunch failed")

	// ErrUpdateInProgress indicates another update session is already running.
	ErrUpdateInProgress = errors.New("update already in progress")

	// ErrHelperSpawn indicates the detached install helper could not be started.
	ErrHelperSpawn = errors.New("starting install helper failed")

	// ErrInvalidPlan indicates an install plan violates its ordering or path invariants.
	ErrInvalidPlan = errors.New("invalid install plan")
)

// DownloadReason classifies a download failure.
type DownloadReason string

const (
	// ReasonTimeout means the connection or a read stalled beyond its deadline.
	ReasonTimeout DownloadReason = "timeout"
	// ReasonTransport means the request failed or the server answered with a non-success status.
	ReasonTransport DownloadReason = "transport"
	// ReasonIncompleteBody means fewer (or more) bytes arrived than the server declared.
	ReasonIncompleteBody DownloadReason = "incomplete body"
)

// DownloadError describes a failed archive download.
type DownloadError struct {
	Reason DownloadReason
	URL    string
	Err    error
}

func (e *DownloadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("download %s: %s", e.URL, e.Reason)
	}
	return fmt.Sprintf("download %s: %s: %v", e.URL, e.Reason, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Is makes every DownloadError match ErrDownload.
func (e *DownloadError) Is(target error) bool {
	return target == ErrDownload
}

// Recoverable reports whether err belongs to a failure class that leaves the
// installation untouched and can simply be retried later.
func Recoverable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrNetwork),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrMalformedResponse),
		errors.Is(err, ErrNoMatchingAsset),
		errors.Is(err, ErrDownload),
		errors.Is(err, ErrBackupFailed),
		errors.Is(err, ErrHelperSpawn),
		errors.Is(err, ErrUpdateInProgress):
		return true
	}
	return false
}
