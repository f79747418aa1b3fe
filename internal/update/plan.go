package update

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// Step is one action of an install plan.
type Step string

const (
	StepBackup  Step = "backup"
	StepExtract Step = "extract"
	StepSwap    Step = "swap"
	StepCleanup Step = "cleanup"
	StepRestart Step = "restart"
)

// State is a stage of the install state machine.
type State string

const (
	StateStaged          State = "staged"
	StateBackingUp       State = "backing_up"
	StateExtracting      State = "extracting"
	StateSwapping        State = "swapping"
	StateCleanup         State = "cleanup"
	StateRelaunching     State = "relaunching"
	StateRelaunched      State = "relaunched"
	StateAbortedNoChange State = "aborted_no_change"
	StateAbortedRestored State = "aborted_restored"
	StateRelaunchFailed  State = "relaunch_failed"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	switch s {
	case StateRelaunched, StateAbortedNoChange, StateAbortedRestored, StateRelaunchFailed:
		return true
	}
	return false
}

// RelaunchSpec describes how to start the new version.
type RelaunchSpec struct {
	Path string   `json:"path"`
	Args []string `json:"args,omitempty"`
	Dir  string   `json:"dir"`
}

// Plan is the ordered, data-only description of an installation.
type Plan struct {
	Session   Session      `json:"session"`
	Steps     []Step       `json:"steps"`
	Relaunch  RelaunchSpec `json:"relaunch"`
	Preserve  []string     `json:"preserve,omitempty"`
	ParentPID int          `json:"parent_pid,omitempty"`
	LogFile   string       `json:"log_file,omitempty"`
}

// PlanOptions tunes NewPlan.
type PlanOptions struct {
	// Preserve lists extra absolute paths Swap must neither delete nor overwrite.
	Preserve []string
	// ParentPID is the process the helper waits on before touching files.
	ParentPID int
	// LogFile receives the helper's log output.
	LogFile string
}

// NewPlan returns the fixed Backup, Extract, Swap, Cleanup, Restart sequence
// for session. The session root is preserved when it lives inside the
// installation directory.
func NewPlan(session *Session, relaunch RelaunchSpec, opts PlanOptions) *Plan {
	preserve := slices.Clone(opts.Preserve)
	if within(session.InstallDir, session.TempRoot) {
		preserve = append(preserve, session.TempRoot)
	}
	return &Plan{
		Session:   *session,
		Steps:     []Step{StepBackup, StepExtract, StepSwap, StepCleanup, StepRestart},
		Relaunch:  relaunch,
		Preserve:  preserve,
		ParentPID: opts.ParentPID,
		LogFile:   opts.LogFile,
	}
}

// Validate checks the ordering and path invariants of the plan.
func (p *Plan) Validate() error {
	idx := func(s Step) int { return slices.Index(p.Steps, s) }
	backup, swap, cleanup, restart := idx(StepBackup), idx(StepSwap), idx(StepCleanup), idx(StepRestart)

	if backup < 0 || swap < 0 {
		return fmt.Errorf("%w: backup and swap steps are required", ErrInvalidPlan)
	}
	if backup > swap {
		return fmt.Errorf("%w: backup must precede swap", ErrInvalidPlan)
	}
	if restart >= 0 && restart < swap {
		return fmt.Errorf("%w: restart must follow swap", ErrInvalidPlan)
	}
	if cleanup >= 0 {
		for _, s := range p.Steps[cleanup+1:] {
			if s != StepRestart {
				return fmt.Errorf("%w: %s after cleanup", ErrInvalidPlan, s)
			}
		}
	}

	paths := map[string]string{
		"install_dir": p.Session.InstallDir,
		"temp_root":   p.Session.TempRoot,
		"staging":     p.Session.StagingFile,
		"backup":      p.Session.BackupDir,
		"extract":     p.Session.ExtractDir,
		"new":         p.Session.NewDir,
	}
	if restart >= 0 {
		paths["relaunch"] = p.Relaunch.Path
	}
	for name, path := range paths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("%w: %s path %q is not absolute", ErrInvalidPlan, name, path)
		}
	}
	for _, path := range p.Preserve {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("%w: preserved path %q is not absolute", ErrInvalidPlan, path)
		}
	}
	if within(p.Session.TempRoot, p.Session.InstallDir) {
		return fmt.Errorf("%w: install directory lies inside the session root", ErrInvalidPlan)
	}
	return nil
}

// WritePlan serializes p as JSON to path.
func WritePlan(p *Plan, path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}
	return nil
}

// ReadPlan loads and validates a plan written by WritePlan.
func ReadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: decoding plan: %v", ErrInvalidPlan, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// within reports whether path equals dir or lies beneath it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !startsWithParent(rel))
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
