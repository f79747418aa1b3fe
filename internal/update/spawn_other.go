//go:build !unix && !windows

package update

import (
	"errors"
	"os"
	"os/exec"
)

var errUnsupportedPlatform = errors.New("detached processes are not supported on this platform")

func startDetached(*exec.Cmd) error {
	return errUnsupportedPlatform
}

func processAlive(int) bool {
	return false
}

func removeLater(dir string) error {
	return os.RemoveAll(dir)
}

func relaunchCommand(_ string, spec RelaunchSpec) *exec.Cmd {
	return exec.Command(spec.Path, spec.Args...)
}
