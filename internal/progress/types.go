// Package progress renders update events for a terminal: a spinner while the
// release is looked up, a download bar, and a line per install phase.
package progress

import "github.com/fan-yu0/autoupdater/internal/update"

// TerminalCapabilities encapsulates detected terminal features
type TerminalCapabilities struct {
	// IsTTY indicates whether stdout is a terminal (vs pipe/redirect)
	IsTTY bool
	// SupportsColor indicates whether terminal supports ANSI color codes
	SupportsColor bool
	// SupportsUnicode indicates whether terminal supports Unicode characters
	SupportsUnicode bool
	// Width is the terminal width in columns (0 if unknown/pipe)
	Width int
}

// ProgressSymbols defines the character set for visual indicators
type ProgressSymbols struct {
	// Checkmark is the success indicator ("✓" or "[OK]")
	Checkmark string
	// Failure is the failure indicator ("✗" or "[FAIL]")
	Failure string
	// Arrow prefixes in-progress steps ("→" or "->")
	Arrow string
	// BarFilled and BarEmpty draw the download bar
	BarFilled string
	BarEmpty  string
	// SpinnerSet is the index into spinner.CharSets
	SpinnerSet int
}

// stateLabels describes the install phases shown while the installer runs.
var stateLabels = map[update.State]string{
	update.StateStaged:      "Update staged",
	update.StateBackingUp:   "Backing up current installation",
	update.StateExtracting:  "Extracting new version",
	update.StateSwapping:    "Replacing installation",
	update.StateCleanup:     "Removing backup",
	update.StateRelaunching: "Starting new version",
}

// StateLabel returns the human-readable label for s.
func StateLabel(s update.State) string {
	if label, ok := stateLabels[s]; ok {
		return label
	}
	return string(s)
}
