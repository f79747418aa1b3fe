package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultParentWait bounds how long the helper waits for the updating process to exit.
	DefaultParentWait = 2 * time.Minute

	parentPollInterval = 200 * time.Millisecond
)

// Launcher starts the freshly installed version.
type Launcher interface {
	Launch(spec RelaunchSpec) error
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(RelaunchSpec) error

// Launch calls f(spec).
func (f LauncherFunc) Launch(spec RelaunchSpec) error { return f(spec) }

// DetachedLauncher starts the relaunch target in its own session or process
// group with no inherited stdio.
type DetachedLauncher struct {
	GOOS string
}

// Launch starts spec without waiting for it.
func (l DetachedLauncher) Launch(spec RelaunchSpec) error {
	goos := l.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	if _, err := os.Stat(spec.Path); err != nil {
		return fmt.Errorf("relaunch target: %w", err)
	}
	cmd := relaunchCommand(goos, spec)
	cmd.Dir = spec.Dir
	if err := startDetached(cmd); err != nil {
		return fmt.Errorf("starting %s: %w", spec.Path, err)
	}
	return cmd.Process.Release()
}

// Executor runs an install plan: it is the helper-side half of the installer.
type Executor struct {
	logger     *log.Logger
	reporter   Reporter
	launcher   Launcher
	parentWait time.Duration
	selfPath   string
	goos       string

	// fault, when set, is consulted on entering each state and lets tests
	// force a failure at that point.
	fault func(State) error
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorReporter sets the event sink.
func WithExecutorReporter(r Reporter) ExecutorOption {
	return func(e *Executor) { e.reporter = r }
}

// WithLauncher overrides how the new version is started.
func WithLauncher(l Launcher) ExecutorOption {
	return func(e *Executor) { e.launcher = l }
}

// WithParentWait bounds the wait for the parent process.
func WithParentWait(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.parentWait = d }
}

// WithSelfPath marks the running executable. On Windows, where a running
// binary cannot be replaced, Swap leaves it in place when it lives inside the
// installation directory. Elsewhere it is replaced like any other file.
func WithSelfPath(path string) ExecutorOption {
	return func(e *Executor) { e.selfPath = path }
}

// WithGOOS overrides the operating system the executor plans for.
func WithGOOS(goos string) ExecutorOption {
	return func(e *Executor) { e.goos = goos }
}

// NewExecutor creates an Executor that logs to logger.
func NewExecutor(logger *log.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{
		logger:     logger,
		reporter:   NopReporter,
		launcher:   DetachedLauncher{},
		parentWait: DefaultParentWait,
		goos:       runtime.GOOS,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	return e
}

// run tracks the current state of one plan execution.
type run struct {
	e     *Executor
	plan  *Plan
	state State
	keep  pathSet
}

func (r *run) to(next State, err error) {
	emit(r.e.reporter, Event{
		Kind:      EventTransition,
		SessionID: r.plan.Session.ID,
		Current:   r.plan.Session.SourceVersion,
		Latest:    r.plan.Session.TargetVersion,
		From:      r.state,
		To:        next,
		Err:       err,
	})
	r.state = next
}

func (r *run) enter(next State) error {
	r.to(next, nil)
	if r.e.fault != nil {
		return r.e.fault(next)
	}
	return nil
}

// Run executes plan and returns the terminal state reached. The error is nil
// only for StateRelaunched. Cancellation of ctx is honored until the backup
// starts; afterwards the run always ends committed or restored.
func (e *Executor) Run(ctx context.Context, plan *Plan) (State, error) {
	if err := plan.Validate(); err != nil {
		return StateAbortedNoChange, err
	}

	r := &run{e: e, plan: plan, state: StateStaged}
	r.keep = newPathSet(plan.Preserve...)
	if within(plan.Session.InstallDir, plan.Session.TempRoot) {
		r.keep[filepath.Clean(plan.Session.TempRoot)] = struct{}{}
	}
	if e.goos == "windows" && e.selfPath != "" && within(plan.Session.InstallDir, e.selfPath) {
		r.keep[filepath.Clean(e.selfPath)] = struct{}{}
	}
	sess := &plan.Session
	logger := e.logger.With("session", sess.ID)

	if err := e.waitForParent(ctx, plan.ParentPID); err != nil {
		return r.abortNoChange(logger, err)
	}
	if err := ctx.Err(); err != nil {
		return r.abortNoChange(logger, err)
	}

	// Backup
	if err := r.enter(StateBackingUp); err != nil {
		return r.abortNoChange(logger, fmt.Errorf("%w: %w", ErrBackupFailed, err))
	}
	logger.Info("backing up installation", "dir", sess.InstallDir, "backup", sess.BackupDir)
	if err := os.RemoveAll(sess.BackupDir); err != nil {
		return r.abortNoChange(logger, fmt.Errorf("%w: %w", ErrBackupFailed, err))
	}
	if err := copyTree(sess.InstallDir, sess.BackupDir, r.keep); err != nil {
		return r.abortNoChange(logger, fmt.Errorf("%w: %w", ErrBackupFailed, err))
	}

	// Extract
	if err := r.enter(StateExtracting); err != nil {
		return r.abortRestored(logger, fmt.Errorf("%w: %w", ErrExtractFailed, err))
	}
	logger.Info("extracting archive", "archive", sess.StagingFile)
	if err := ExtractArchive(sess.StagingFile, sess.ExtractDir); err != nil {
		return r.abortRestored(logger, fmt.Errorf("%w: %w", ErrExtractFailed, err))
	}
	if err := normalizeExtracted(sess.ExtractDir, sess.NewDir); err != nil {
		return r.abortRestored(logger, fmt.Errorf("%w: %w", ErrExtractFailed, err))
	}

	// Swap
	if err := r.enter(StateSwapping); err != nil {
		return r.abortRestored(logger, fmt.Errorf("%w: %w", ErrSwapFailed, err))
	}
	logger.Info("replacing installation", "dir", sess.InstallDir)
	if err := removeContents(sess.InstallDir, r.keep); err != nil {
		return r.abortRestored(logger, fmt.Errorf("%w: %w", ErrSwapFailed, err))
	}
	if err := copyTree(sess.NewDir, sess.InstallDir, r.keep); err != nil {
		return r.abortRestored(logger, fmt.Errorf("%w: %w", ErrSwapFailed, err))
	}
	ensureExecutable(plan.Relaunch.Path)

	// Cleanup
	_ = r.enter(StateCleanup)
	r.cleanup(logger)

	// Restart
	if err := r.enter(StateRelaunching); err != nil {
		return r.relaunchFailed(logger, err)
	}
	logger.Info("starting new version", "path", plan.Relaunch.Path, "version", sess.TargetVersion)
	if err := e.launcher.Launch(plan.Relaunch); err != nil {
		return r.relaunchFailed(logger, err)
	}
	r.to(StateRelaunched, nil)
	return StateRelaunched, nil
}

func (r *run) abortNoChange(logger *log.Logger, err error) (State, error) {
	logger.Warn("update aborted, installation unchanged", "error", err)
	r.cleanup(logger)
	r.to(StateAbortedNoChange, err)
	return StateAbortedNoChange, err
}

// abortRestored puts the backup back. When that fails too the session root is
// kept so the backup can be recovered by hand.
func (r *run) abortRestored(logger *log.Logger, cause error) (State, error) {
	sess := &r.plan.Session
	logger.Warn("update failed, restoring previous installation", "error", cause)
	if err := restore(sess.BackupDir, sess.InstallDir, r.keep); err != nil {
		err = errors.Join(cause, fmt.Errorf("%w: %w", ErrRestoreFailed, err))
		logger.Error("restore failed; previous installation is kept in backup", "backup", sess.BackupDir, "error", err)
		r.to(StateAbortedRestored, err)
		return StateAbortedRestored, err
	}
	r.cleanup(logger)
	r.to(StateAbortedRestored, cause)
	return StateAbortedRestored, cause
}

func (r *run) relaunchFailed(logger *log.Logger, cause error) (State, error) {
	err := fmt.Errorf("%w: %w", ErrRelaunchFailed, cause)
	logger.Error("new version is installed but could not be started",
		"path", r.plan.Relaunch.Path, "version", r.plan.Session.TargetVersion, "error", cause)
	r.to(StateRelaunchFailed, err)
	return StateRelaunchFailed, err
}

// cleanup removes the session root. Failures are logged only.
func (r *run) cleanup(logger *log.Logger) {
	if err := removeLater(r.plan.Session.TempRoot); err != nil {
		logger.Warn("could not remove session directory", "dir", r.plan.Session.TempRoot, "error", err)
	}
}

// restore replaces the contents of installDir with backupDir. It is safe to
// call repeatedly.
func restore(backupDir, installDir string, keep pathSet) error {
	if _, err := os.Stat(backupDir); err != nil {
		return fmt.Errorf("backup unavailable: %w", err)
	}
	if err := removeContents(installDir, keep); err != nil {
		return err
	}
	return copyTree(backupDir, installDir, keep)
}

// waitForParent blocks until pid has exited, the wait bound passes or ctx ends.
func (e *Executor) waitForParent(ctx context.Context, pid int) error {
	if pid <= 0 || pid == os.Getpid() {
		return nil
	}
	deadline := time.Now().Add(e.parentWait)
	ticker := time.NewTicker(parentPollInterval)
	defer ticker.Stop()

	for processAlive(pid) {
		if time.Now().After(deadline) {
			return fmt.Errorf("process %d still running after %s", pid, e.parentWait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	e.logger.Debug("parent process exited", "pid", pid)
	return nil
}

// ensureExecutable adds execute bits to path on platforms that use them.
func ensureExecutable(path string) {
	if runtime.GOOS == "windows" || path == "" {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	_ = os.Chmod(path, info.Mode().Perm()|0o111)
}
