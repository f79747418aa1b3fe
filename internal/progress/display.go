package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fan-yu0/autoupdater/internal/update"
)

// Display renders update events. It implements update.Reporter.
type Display struct {
	capabilities TerminalCapabilities
	symbols      ProgressSymbols
	out          io.Writer
	spinnerOut   io.Writer

	mu      sync.Mutex
	spinner *spinner.Spinner
	barOpen bool
}

// NewDisplay creates a display writing to out. In TTY mode the spinner
// writes to stderr so it never mixes with piped stdout.
func NewDisplay(caps TerminalCapabilities, out io.Writer) *Display {
	if out == nil {
		out = os.Stdout
	}
	return &Display{
		capabilities: caps,
		symbols:      SelectSymbols(caps),
		out:          out,
		spinnerOut:   os.Stderr,
	}
}

// Start shows msg with a spinner until the next event arrives.
func (d *Display) Start(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopSpinner()
	if !d.capabilities.IsTTY {
		fmt.Fprintf(d.out, "%s %s...\n", arrow(d.symbols, false), msg)
		return
	}
	d.spinner = spinner.New(spinner.CharSets[d.symbols.SpinnerSet], 100*time.Millisecond)
	d.spinner.Writer = d.spinnerOut
	d.spinner.Suffix = " " + msg + "..."
	d.spinner.Start()
}

// Stop clears any running spinner and terminates an open download bar.
func (d *Display) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopSpinner()
	d.closeBar()
}

// Report implements update.Reporter.
func (d *Display) Report(e update.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopSpinner()
	if e.Kind != update.EventProgress {
		d.closeBar()
	}

	switch e.Kind {
	case update.EventVersionCheck:
		d.versionCheck(e)
	case update.EventProgress:
		d.progress(e.Sample)
	case update.EventTransition:
		d.transition(e)
	case update.EventOutcome:
		d.outcome(e.Result)
	}
}

func (d *Display) versionCheck(e update.Event) {
	switch {
	case e.Err != nil:
		d.line(failureMark(d.symbols, d.capabilities.SupportsColor), "Could not compare versions: %v", e.Err)
	case e.Available:
		d.line(arrow(d.symbols, d.capabilities.SupportsColor), "New version available: %s %s %s", e.Current, d.symbols.Arrow, e.Latest)
	default:
		d.line(checkmark(d.symbols, d.capabilities.SupportsColor), "Already running the latest version (%s)", e.Current)
	}
}

// progress redraws the bar in place on a terminal. Piped output only gets
// the final line, written when the bar is closed.
func (d *Display) progress(s update.ProgressSample) {
	if !d.barOpen {
		d.line(arrow(d.symbols, d.capabilities.SupportsColor), "Downloading update")
		d.barOpen = true
	}
	if d.capabilities.IsTTY {
		fmt.Fprintf(d.out, "\r%s", renderBar(d.symbols, s))
		return
	}
	if s.TotalBytes > 0 && s.BytesDownloaded >= s.TotalBytes {
		fmt.Fprintln(d.out, renderBar(d.symbols, s))
	}
}

func (d *Display) transition(e update.Event) {
	color := d.capabilities.SupportsColor
	switch {
	case e.From == update.StateStaged && e.To == update.StateRelaunching:
		d.line(arrow(d.symbols, color), "Installing %s in the background; the application restarts when done", e.Latest)
	case e.To == update.StateRelaunched:
		d.line(checkmark(d.symbols, color), "Started %s", e.Latest)
	case e.To == update.StateAbortedNoChange:
		d.line(failureMark(d.symbols, color), "Install aborted, nothing was changed: %v", e.Err)
	case e.To == update.StateAbortedRestored:
		d.line(failureMark(d.symbols, color), "Install failed, previous version restored: %v", e.Err)
	case e.To == update.StateRelaunchFailed:
		d.line(failureMark(d.symbols, color), "Installed %s but could not start it; please start it manually: %v", e.Latest, e.Err)
	default:
		d.line(arrow(d.symbols, color), "%s", StateLabel(e.To))
	}
}

func (d *Display) outcome(res *update.Result) {
	if res == nil {
		return
	}
	color := d.capabilities.SupportsColor
	switch res.Status {
	case update.StatusUpdated:
		d.line(checkmark(d.symbols, color), "Successfully updated to %s", res.To)
	case update.StatusFailed:
		d.line(failureMark(d.symbols, color), "Update failed: %v", res.Err)
	}
}

func (d *Display) line(mark, format string, args ...any) {
	fmt.Fprintf(d.out, "%s %s\n", mark, fmt.Sprintf(format, args...))
}

func (d *Display) stopSpinner() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}

func (d *Display) closeBar() {
	if d.barOpen && d.capabilities.IsTTY {
		fmt.Fprintln(d.out) // New line after progress
	}
	d.barOpen = false
}
