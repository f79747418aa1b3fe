package history

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fan-yu0/autoupdater/internal/update"
)

// Writer records update attempts with automatic pruning. It implements
// update.Reporter so it can be attached to both the orchestrator and the
// install helper; the two sides meet on the session ID.
type Writer struct {
	// StateDir is the directory containing the history file.
	StateDir string
	// MaxEntries is the maximum number of entries to retain (0 keeps all).
	MaxEntries int

	logger *log.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewWriter creates a new history writer.
func NewWriter(stateDir string, maxEntries int, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Writer{
		StateDir:   stateDir,
		MaxEntries: maxEntries,
		logger:     logger,
		now:        time.Now,
	}
}

// Report implements update.Reporter. Errors are logged and never fail the update.
func (w *Writer) Report(e update.Event) {
	var err error
	switch e.Kind {
	case update.EventTransition:
		err = w.onTransition(e)
	case update.EventOutcome:
		err = w.onOutcome(e)
	default:
		return
	}
	if err != nil {
		w.logger.Warn("failed to record update history", "error", err)
	}
}

// onTransition records the helper handoff and every terminal install state.
func (w *Writer) onTransition(e update.Event) error {
	handoff := e.From == update.StateStaged && e.To == update.StateRelaunching
	if !handoff && !e.To.Terminal() {
		return nil
	}
	return w.modify(func(f *File) {
		entry := w.sessionEntry(f, e.SessionID, e.Current, e.Latest)
		if handoff {
			if !entry.Final() {
				entry.Status = StatusInstalling
			}
			return
		}
		now := w.now()
		entry.Status = string(e.To)
		entry.CompletedAt = &now
		if e.Err != nil {
			entry.Error = e.Err.Error()
		}
	})
}

// onOutcome records attempts that ended in the parent process: up to date,
// failures before the install, and the inline install result when no
// transition was recorded for it.
func (w *Writer) onOutcome(e update.Event) error {
	res := e.Result
	if res == nil {
		return nil
	}
	return w.modify(func(f *File) {
		var entry *Entry
		if i := f.FindSession(res.SessionID); i >= 0 {
			entry = &f.Entries[i]
			entry.Duration = res.Duration.Round(time.Millisecond).String()
			if entry.Final() {
				return
			}
		} else {
			entry = w.appendEntry(f, res.SessionID, res.From, res.To)
			entry.Duration = res.Duration.Round(time.Millisecond).String()
		}

		switch res.Status {
		case update.StatusUpdated:
			entry.Status = StatusInstalling
			return
		case update.StatusUpToDate:
			entry.Status = StatusUpToDate
		default:
			entry.Status = StatusFailed
		}
		now := w.now()
		entry.CompletedAt = &now
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
	})
}

// sessionEntry returns the entry for sessionID, appending one when missing.
func (w *Writer) sessionEntry(f *File, sessionID, from, to string) *Entry {
	if i := f.FindSession(sessionID); i >= 0 {
		return &f.Entries[i]
	}
	return w.appendEntry(f, sessionID, from, to)
}

func (w *Writer) appendEntry(f *File, sessionID, from, to string) *Entry {
	now := w.now()
	id, err := GenerateID(now)
	if err != nil {
		id = "attempt_" + now.Format("20060102_150405")
	}
	f.Entries = append(f.Entries, Entry{
		ID:          id,
		SessionID:   sessionID,
		StartedAt:   now,
		FromVersion: from,
		ToVersion:   to,
	})
	return &f.Entries[len(f.Entries)-1]
}

// modify loads the history, applies fn, prunes and saves.
func (w *Writer) modify(fn func(*File)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	history, err := Load(w.StateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	fn(history)

	if w.MaxEntries > 0 && len(history.Entries) > w.MaxEntries {
		excess := len(history.Entries) - w.MaxEntries
		history.Entries = history.Entries[excess:]
	}

	if err := Save(w.StateDir, history); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}
