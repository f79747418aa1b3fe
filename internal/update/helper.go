package update

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// HelperCommand is the argument list that makes the binary act as the
// install helper. The CLI registers a hidden command under this path.
var HelperCommand = []string{"internal", "apply"}

// Installer hands a plan over for execution.
type Installer interface {
	Install(ctx context.Context, plan *Plan) error
}

// HelperInstaller executes plans in a detached copy of the running binary so
// that the installation can be replaced after this process exits.
type HelperInstaller struct {
	logger   *log.Logger
	reporter Reporter

	// Test seams.
	executable func() (string, error)
	spawn      func(*exec.Cmd) error
	exit       func(int)
}

// NewHelperInstaller creates a HelperInstaller. exit is called with 0 once the
// helper is running; pass nil to use os.Exit.
func NewHelperInstaller(logger *log.Logger, reporter Reporter, exit func(int)) *HelperInstaller {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if reporter == nil {
		reporter = NopReporter
	}
	if exit == nil {
		exit = os.Exit
	}
	return &HelperInstaller{
		logger:     logger,
		reporter:   reporter,
		executable: ResolveExecutable,
		spawn:      startDetached,
		exit:       exit,
	}
}

// Install writes the plan and a private copy of the running binary into the
// session, starts that copy detached, and exits. On failure the session is
// removed and the installation is untouched.
func (h *HelperInstaller) Install(ctx context.Context, plan *Plan) error {
	if plan.ParentPID == 0 {
		plan.ParentPID = os.Getpid()
	}
	if err := plan.Validate(); err != nil {
		return err
	}
	sess := &plan.Session

	cmd, err := h.prepare(plan)
	if err != nil {
		h.discard(sess)
		return fmt.Errorf("%w: %w", ErrHelperSpawn, err)
	}
	if err := ctx.Err(); err != nil {
		closeStdio(cmd)
		h.discard(sess)
		return err
	}
	err = h.spawn(cmd)
	closeStdio(cmd)
	if err != nil {
		h.discard(sess)
		return fmt.Errorf("%w: %w", ErrHelperSpawn, err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()

	h.logger.Info("install helper started", "pid", pid, "session", sess.ID, "log", plan.LogFile)
	emit(h.reporter, Event{
		Kind:      EventTransition,
		SessionID: sess.ID,
		Current:   sess.SourceVersion,
		Latest:    sess.TargetVersion,
		From:      StateStaged,
		To:        StateRelaunching,
		Message:   "handing over to install helper",
	})
	h.exit(0)
	return nil
}

// prepare copies the helper binary and plan into the session and builds the command.
func (h *HelperInstaller) prepare(plan *Plan) (*exec.Cmd, error) {
	sess := &plan.Session
	exe, err := h.executable()
	if err != nil {
		return nil, fmt.Errorf("locating executable: %w", err)
	}

	helper := filepath.Join(sess.HelperDir(), filepath.Base(exe))
	if err := copyFile(exe, helper, 0o755); err != nil {
		return nil, fmt.Errorf("copying helper binary: %w", err)
	}
	if plan.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(plan.LogFile), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}
	if err := WritePlan(plan, sess.PlanFile()); err != nil {
		return nil, err
	}

	args := append([]string{}, HelperCommand...)
	args = append(args, "--plan", sess.PlanFile())
	if plan.LogFile != "" {
		args = append(args, "--log", plan.LogFile)
	}
	cmd := exec.Command(helper, args...)
	cmd.Dir = sess.TempRoot
	// Output written before the helper opens its logger, a panic included,
	// lands in the log file. Without one, stdio goes to the null device.
	if plan.LogFile != "" {
		out, err := os.OpenFile(plan.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening helper log: %w", err)
		}
		cmd.Stdout = out
		cmd.Stderr = out
	}
	return cmd, nil
}

// closeStdio releases the parent's handle on the helper's log file.
func closeStdio(cmd *exec.Cmd) {
	if f, ok := cmd.Stdout.(*os.File); ok {
		_ = f.Close()
	}
}

func (h *HelperInstaller) discard(sess *Session) {
	if err := sess.Remove(); err != nil {
		h.logger.Warn("could not remove session directory", "error", err)
	}
}

// InlineInstaller runs the plan in the current process. It suits managed
// installations that do not contain the running binary.
type InlineInstaller struct {
	Executor *Executor
}

// Install executes plan synchronously.
func (i InlineInstaller) Install(ctx context.Context, plan *Plan) error {
	_, err := i.Executor.Run(ctx, plan)
	return err
}

// ResolveExecutable returns the running binary with symlinks resolved.
func ResolveExecutable() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("determining executable path: %w", err)
	}
	// If symlink resolution fails, use original path
	if realPath, err := filepath.EvalSymlinks(execPath); err == nil {
		return realPath, nil
	}
	return execPath, nil
}
