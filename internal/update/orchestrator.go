package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// progressBuffer is the capacity of the download progress channel.
const progressBuffer = 32

// Status is the outcome class of an update cycle.
type Status string

const (
	StatusUpdated  Status = "updated"
	StatusUpToDate Status = "up_to_date"
	StatusFailed   Status = "failed"
)

// Result is the outcome of RunUpdateCycle. Updated means the installer has
// taken over; the swap itself may still be running in the helper process.
type Result struct {
	Status    Status
	From      string
	To        string
	SessionID string
	Duration  time.Duration
	Err       error
}

// CheckResult reports whether a newer release exists without installing it.
type CheckResult struct {
	Current   string
	Latest    string
	Available bool
	Asset     *Asset
}

// Options configures an Orchestrator.
type Options struct {
	// CurrentVersion is the version of the running installation.
	CurrentVersion string
	// InstallDir is the directory replaced by an update.
	InstallDir string
	// TempDir is where session roots are created.
	TempDir string
	// LogDir receives one helper log file per session. Empty disables helper logs.
	LogDir string
	// GOOS selects release assets. Defaults to runtime.GOOS.
	GOOS string
	// Relaunch starts the new version. A relative Path is resolved against InstallDir.
	Relaunch RelaunchSpec
	// Preserve lists extra paths the swap must leave in place.
	Preserve []string
	// MaxRetries is how many times a failed release lookup is retried.
	MaxRetries int
	// RetryDelay is the pause between lookup attempts.
	RetryDelay time.Duration
}

// Orchestrator runs update cycles. At most one cycle is in flight at a time.
type Orchestrator struct {
	opts       Options
	fetcher    ReleaseFetcher
	downloader ArchiveDownloader
	installer  Installer
	reporter   Reporter
	logger     *log.Logger
	now        func() time.Time

	inFlight atomic.Bool
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithReporter sets the event sink.
func WithReporter(r Reporter) OrchestratorOption {
	return func(o *Orchestrator) { o.reporter = r }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock overrides the time source used for session identifiers.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator wires the update pipeline.
func NewOrchestrator(opts Options, fetcher ReleaseFetcher, downloader ArchiveDownloader, installer Installer, options ...OrchestratorOption) *Orchestrator {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	o := &Orchestrator{
		opts:       opts,
		fetcher:    fetcher,
		downloader: downloader,
		installer:  installer,
		reporter:   NopReporter,
		now:        time.Now,
	}
	for _, opt := range options {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	return o
}

// Check fetches the latest release and compares it with the running version.
func (o *Orchestrator) Check(ctx context.Context) (*CheckResult, error) {
	release, err := o.fetch(ctx)
	if err != nil {
		return nil, err
	}
	newer, err := IsNewer(release.Version, o.opts.CurrentVersion)
	if err != nil {
		return nil, err
	}
	res := &CheckResult{Current: o.opts.CurrentVersion, Latest: release.Version, Available: newer}
	emit(o.reporter, Event{Kind: EventVersionCheck, Current: res.Current, Latest: res.Latest, Available: newer})
	if newer {
		asset, err := SelectAsset(release.Assets, o.opts.GOOS)
		if err != nil {
			return res, err
		}
		res.Asset = &asset
	}
	return res, nil
}

// RunUpdateCycle checks for, downloads and installs a newer release. A
// concurrent call fails immediately with ErrUpdateInProgress.
func (o *Orchestrator) RunUpdateCycle(ctx context.Context) (res Result) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return Result{Status: StatusFailed, From: o.opts.CurrentVersion, Err: ErrUpdateInProgress}
	}
	defer o.inFlight.Store(false)

	start := time.Now()
	res = Result{From: o.opts.CurrentVersion}
	defer func() {
		res.Duration = time.Since(start)
		emit(o.reporter, Event{Kind: EventOutcome, SessionID: res.SessionID, Result: &res, Err: res.Err})
	}()

	fail := func(err error) Result {
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	release, err := o.fetch(ctx)
	if err != nil {
		return fail(err)
	}
	res.To = release.Version

	newer, err := IsNewer(release.Version, o.opts.CurrentVersion)
	emit(o.reporter, Event{
		Kind:      EventVersionCheck,
		Current:   o.opts.CurrentVersion,
		Latest:    release.Version,
		Available: newer,
		Err:       err,
	})
	if err != nil {
		return fail(err)
	}
	if !newer {
		o.logger.Info("already running the latest version", "version", o.opts.CurrentVersion)
		res.Status = StatusUpToDate
		return res
	}

	asset, err := SelectAsset(release.Assets, o.opts.GOOS)
	if err != nil {
		return fail(err)
	}

	sess, err := NewSession(o.opts.TempDir, o.opts.InstallDir, o.opts.CurrentVersion, release.Version, o.now())
	if err != nil {
		return fail(err)
	}
	res.SessionID = sess.ID
	logger := o.logger.With("session", sess.ID)
	logger.Info("downloading update", "asset", asset.Name, "to", release.Version)

	staging, err := o.download(ctx, sess, asset)
	if err != nil {
		o.discard(logger, sess)
		return fail(err)
	}
	sess.StagingFile = staging

	plan := NewPlan(sess, o.relaunchSpec(sess), PlanOptions{
		Preserve: o.opts.Preserve,
		LogFile:  o.helperLog(sess),
	})
	if err := o.installer.Install(ctx, plan); err != nil {
		o.discard(logger, sess)
		return fail(err)
	}

	res.Status = StatusUpdated
	return res
}

// fetch performs the release lookup, retrying network failures.
func (o *Orchestrator) fetch(ctx context.Context) (*Release, error) {
	var lastErr error
	for attempt := 0; attempt <= o.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			o.logger.Warn("release lookup failed, retrying", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", ErrNetwork, ctx.Err())
			case <-time.After(o.opts.RetryDelay):
			}
		}
		release, err := o.fetcher.FetchLatest(ctx)
		if err == nil {
			return release, nil
		}
		lastErr = err
		var rl *RateLimitError
		if !errors.Is(err, ErrNetwork) || errors.As(err, &rl) {
			break
		}
	}
	return nil, lastErr
}

// download streams the asset into the session and forwards progress samples.
func (o *Orchestrator) download(ctx context.Context, sess *Session, asset Asset) (string, error) {
	progress := make(chan ProgressSample, progressBuffer)
	var g errgroup.Group
	g.Go(func() error {
		for s := range progress {
			emit(o.reporter, Event{Kind: EventProgress, SessionID: sess.ID, Sample: s})
		}
		return nil
	})

	var staging string
	g.Go(func() error {
		defer close(progress)
		var err error
		staging, err = o.downloader.Download(ctx, asset.DownloadURL, sess.TempRoot, progress)
		return err
	})

	err := g.Wait()
	return staging, err
}

func (o *Orchestrator) relaunchSpec(sess *Session) RelaunchSpec {
	spec := o.opts.Relaunch
	if spec.Path != "" && !filepath.IsAbs(spec.Path) {
		spec.Path = filepath.Join(sess.InstallDir, spec.Path)
	}
	if spec.Dir == "" {
		spec.Dir = sess.InstallDir
	}
	return spec
}

func (o *Orchestrator) helperLog(sess *Session) string {
	if o.opts.LogDir == "" {
		return ""
	}
	return filepath.Join(o.opts.LogDir, "session-"+sess.ID+".log")
}

func (o *Orchestrator) discard(logger *log.Logger, sess *Session) {
	if err := sess.Remove(); err != nil {
		logger.Warn("could not remove session directory", "error", err)
	}
}
