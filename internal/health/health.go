// Package health runs the preflight checks behind "autoupdater doctor": it
// verifies that an update could be staged, installed and relaunched from the
// current environment without touching the installation.
package health

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fan-yu0/autoupdater/internal/config"
	"github.com/fan-yu0/autoupdater/internal/update"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

// Inputs is the environment the checks inspect. Config may be nil when it
// failed to load; ConfigErr then carries the reason.
type Inputs struct {
	Version    string
	Executable string
	Config     *config.Configuration
	ConfigErr  error
}

func (r *HealthReport) add(c CheckResult) {
	r.Checks = append(r.Checks, c)
	if !c.Passed {
		r.Passed = false
	}
}

// RunHealthChecks runs all health checks and returns a report. Directory
// checks are skipped when the configuration could not be loaded.
func RunHealthChecks(in Inputs) *HealthReport {
	report := &HealthReport{
		Checks: make([]CheckResult, 0, 6),
		Passed: true,
	}

	report.add(CheckBuild(in.Version))
	report.add(CheckConfig(in.ConfigErr))
	if in.Config == nil {
		return report
	}

	installDir := in.Config.ResolveInstallDir(in.Executable)
	report.add(CheckWritableDir("Install directory", installDir, false))
	report.add(CheckWritableDir("Temp directory", in.Config.ResolveTempDir(), true))
	report.add(CheckWritableDir("State directory", in.Config.StateDir, true))
	report.add(CheckEntryPoint(installDir, in.Config.ResolveEntryPoint(in.Executable)))

	return report
}

// CheckBuild fails for development builds, which never update themselves.
func CheckBuild(version string) CheckResult {
	if update.IsDev(version) {
		return CheckResult{
			Name:    "Build",
			Passed:  false,
			Message: "development build cannot be updated",
		}
	}
	return CheckResult{
		Name:    "Build",
		Passed:  true,
		Message: "release build " + version,
	}
}

// CheckConfig reports whether the configuration loaded and validated.
func CheckConfig(loadErr error) CheckResult {
	if loadErr != nil {
		return CheckResult{
			Name:    "Configuration",
			Passed:  false,
			Message: loadErr.Error(),
		}
	}
	return CheckResult{
		Name:    "Configuration",
		Passed:  true,
		Message: "configuration is valid",
	}
}

// CheckWritableDir verifies that dir accepts new files by writing and
// removing a probe. With create set a missing dir is created first, matching
// how the updater treats its temp and state directories.
func CheckWritableDir(name, dir string, create bool) CheckResult {
	if dir == "" {
		return CheckResult{Name: name, Passed: false, Message: "path is not set"}
	}
	if create {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return CheckResult{Name: name, Passed: false, Message: fmt.Sprintf("cannot create %s: %v", dir, err)}
		}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return CheckResult{Name: name, Passed: false, Message: fmt.Sprintf("cannot access %s: %v", dir, err)}
	}
	if !info.IsDir() {
		return CheckResult{Name: name, Passed: false, Message: dir + " is not a directory"}
	}

	probe, err := os.CreateTemp(dir, ".autoupdater-probe-*")
	if err != nil {
		return CheckResult{Name: name, Passed: false, Message: fmt.Sprintf("%s is not writable: %v", dir, err)}
	}
	probe.Close()
	os.Remove(probe.Name())

	return CheckResult{Name: name, Passed: true, Message: dir + " is writable"}
}

// CheckEntryPoint verifies that the program relaunched after an install
// exists. Relative entry points resolve against the install directory.
func CheckEntryPoint(installDir, entry string) CheckResult {
	path := entry
	if !filepath.IsAbs(path) {
		path = filepath.Join(installDir, entry)
	}
	if _, err := os.Stat(path); err != nil {
		return CheckResult{
			Name:    "Entry point",
			Passed:  false,
			Message: path + " not found",
		}
	}
	return CheckResult{
		Name:    "Entry point",
		Passed:  true,
		Message: path,
	}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var b strings.Builder

	for _, check := range report.Checks {
		if check.Passed {
			fmt.Fprintf(&b, "✓ %s: %s\n", check.Name, check.Message)
		} else {
			fmt.Fprintf(&b, "✗ %s: %s\n", check.Name, check.Message)
		}
	}

	return b.String()
}
