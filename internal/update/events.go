package update

import (
	"time"

	"github.com/charmbracelet/log"
)

// EventKind classifies an Event.
type EventKind string

const (
	EventVersionCheck EventKind = "version_check"
	EventProgress     EventKind = "download_progress"
	EventTransition   EventKind = "transition"
	EventOutcome      EventKind = "outcome"
)

// Event is an observable step of an update attempt. Only the fields relevant
// to Kind are set.
type Event struct {
	Kind      EventKind
	Time      time.Time
	SessionID string

	// EventVersionCheck and EventTransition
	Current string
	Latest  string

	// EventVersionCheck
	Available bool

	// EventProgress
	Sample ProgressSample

	// EventTransition
	From State
	To   State

	// EventOutcome
	Result *Result

	Message string
	Err     error
}

// Reporter receives update events. Implementations must not block for long.
// Calls for one cycle come one at a time but not always from the same goroutine.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

// Report calls f(e).
func (f ReporterFunc) Report(e Event) { f(e) }

// MultiReporter fans events out to several reporters in order.
type MultiReporter []Reporter

// Report forwards e to every non-nil reporter.
func (m MultiReporter) Report(e Event) {
	for _, r := range m {
		if r != nil {
			r.Report(e)
		}
	}
}

// NopReporter discards every event.
var NopReporter Reporter = ReporterFunc(func(Event) {})

// LogReporter writes events to a structured logger. Download samples are
// logged at debug level only.
type LogReporter struct {
	Logger *log.Logger
}

// Report logs e.
func (l LogReporter) Report(e Event) {
	if l.Logger == nil {
		return
	}
	switch e.Kind {
	case EventVersionCheck:
		l.Logger.Info("version check", "current", e.Current, "latest", e.Latest, "available", e.Available)
	case EventProgress:
		l.Logger.Debug("download progress",
			"session", e.SessionID,
			"bytes", e.Sample.BytesDownloaded,
			"total", e.Sample.TotalBytes,
			"elapsed", e.Sample.Elapsed.Round(time.Millisecond))
	case EventTransition:
		switch e.To {
		case StateRelaunchFailed:
			l.Logger.Error("new version installed but could not be started; start it manually",
				"session", e.SessionID, "from", e.From, "to", e.To, "error", e.Err)
		case StateAbortedRestored, StateAbortedNoChange:
			l.Logger.Warn("install aborted", "session", e.SessionID, "from", e.From, "to", e.To, "error", e.Err)
		default:
			l.Logger.Info("install state", "session", e.SessionID, "from", e.From, "to", e.To)
		}
	case EventOutcome:
		if e.Result == nil {
			return
		}
		if e.Result.Err != nil {
			l.Logger.Error("update failed", "from", e.Result.From, "to", e.Result.To, "error", e.Result.Err)
			return
		}
		l.Logger.Info("update finished", "status", e.Result.Status, "from", e.Result.From, "to", e.Result.To)
	}
}

// emit stamps e and hands it to r.
func emit(r Reporter, e Event) {
	if r == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	r.Report(e)
}
