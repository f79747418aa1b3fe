//go:build windows

package update

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// startDetached starts cmd without a console in a new process group so it
// survives the parent.
func startDetached(cmd *exec.Cmd) error {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CreationFlags |= windows.CREATE_NEW_PROCESS_GROUP | windows.DETACHED_PROCESS
	cmd.SysProcAttr.HideWindow = true
	return cmd.Start()
}

// processAlive reports whether pid still refers to a running process.
func processAlive(pid int) bool {
	h, err := windows.OpenProcess(windows.SYNCHRONIZE|windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)
	event, err := windows.WaitForSingleObject(h, 0)
	return err == nil && event == uint32(windows.WAIT_TIMEOUT)
}

// removeLater deletes dir once the current process has exited. Windows keeps
// a running executable locked, so a detached script retries the removal and
// then deletes itself.
func removeLater(dir string) error {
	if err := os.RemoveAll(dir); err == nil {
		return nil
	}

	script, err := os.CreateTemp("", "autoupdater-cleanup-*.cmd")
	if err != nil {
		return fmt.Errorf("creating cleanup script: %w", err)
	}
	content := fmt.Sprintf("@echo off\r\n"+
		"for /L %%%%I in (1,1,30) do (\r\n"+
		"  rmdir /s /q \"%s\" >nul 2>&1\r\n"+
		"  if not exist \"%s\" goto done\r\n"+
		"  timeout /t 1 /nobreak >nul\r\n"+
		")\r\n"+
		":done\r\n"+
		"del \"%%~f0\" >nul 2>&1\r\n", dir, dir)
	if _, err := script.WriteString(content); err != nil {
		script.Close()
		return fmt.Errorf("writing cleanup script: %w", err)
	}
	if err := script.Close(); err != nil {
		return fmt.Errorf("writing cleanup script: %w", err)
	}

	cmd := exec.Command("cmd", "/C", script.Name())
	if err := startDetached(cmd); err != nil {
		return fmt.Errorf("starting cleanup script: %w", err)
	}
	return cmd.Process.Release()
}

// relaunchCommand builds the command that starts the new version.
func relaunchCommand(_ string, spec RelaunchSpec) *exec.Cmd {
	return exec.Command(spec.Path, spec.Args...)
}
