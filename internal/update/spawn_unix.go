//go:build unix

package update

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// startDetached starts cmd in its own session so it survives the parent.
func startDetached(cmd *exec.Cmd) error {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd.Start()
}

// processAlive reports whether pid still refers to a running process.
func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// removeLater deletes dir. A running binary can be unlinked on Unix, so no
// deferred work is needed.
func removeLater(dir string) error {
	return os.RemoveAll(dir)
}

// relaunchCommand builds the command that starts the new version. macOS app
// bundles go through LaunchServices.
func relaunchCommand(goos string, spec RelaunchSpec) *exec.Cmd {
	if goos == "darwin" && strings.HasSuffix(strings.ToLower(filepath.Clean(spec.Path)), ".app") {
		args := []string{"-n", spec.Path}
		if len(spec.Args) > 0 {
			args = append(args, "--args")
			args = append(args, spec.Args...)
		}
		return exec.Command("open", args...)
	}
	return exec.Command(spec.Path, spec.Args...)
}
