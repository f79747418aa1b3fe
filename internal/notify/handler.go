package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fan-yu0/autoupdater/internal/update"
	"golang.org/x/term"
)

// dispatchTimeout bounds a single notification so a hung OS tool cannot
// stall the update.
const dispatchTimeout = 5 * time.Second

// Handler turns update events into desktop notifications. It implements
// update.Reporter.
type Handler struct {
	config NotificationConfig
	sender Sender
	logger *log.Logger

	mu       sync.Mutex
	notified map[string]bool

	// Environment probes, replaceable in tests.
	ci          func() bool
	interactive func() bool
}

// NewHandler creates a new notification handler with the given configuration.
// If notifications are disabled in config, the handler will no-op on all calls.
func NewHandler(config NotificationConfig, logger *log.Logger) *Handler {
	return NewHandlerWithSender(config, NewSender(), logger)
}

// NewHandlerWithSender creates a handler with a custom sender (for testing).
func NewHandlerWithSender(config NotificationConfig, sender Sender, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Handler{
		config:      config,
		sender:      sender,
		logger:      logger,
		notified:    map[string]bool{},
		ci:          isCI,
		interactive: isInteractive,
	}
}

// Config returns the handler's notification configuration
func (h *Handler) Config() NotificationConfig {
	return h.config
}

// isEnabled checks if notifications should be sent.
func (h *Handler) isEnabled() bool {
	if !h.config.Enabled {
		return false
	}
	if h.ci() {
		return false
	}
	if h.config.RequireTTY && !h.interactive() {
		return false
	}
	return true
}

// isCI checks for common CI environment variables.
func isCI() bool {
	ciVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"CIRCLECI",
		"TRAVIS",
		"JENKINS_URL",
		"BUILDKITE",
		"DRONE",
		"TEAMCITY_VERSION",
		"TF_BUILD",           // Azure DevOps
		"CODEBUILD_BUILD_ID", // AWS CodeBuild
	}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// isInteractive checks if any standard stream is attached to a terminal.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) ||
		term.IsTerminal(int(os.Stderr.Fd())) ||
		term.IsTerminal(int(os.Stdin.Fd()))
}

// Report implements update.Reporter.
func (h *Handler) Report(e update.Event) {
	if !h.isEnabled() {
		return
	}

	switch e.Kind {
	case update.EventTransition:
		h.onTransition(e)
	case update.EventOutcome:
		h.onOutcome(e)
	}
}

func (h *Handler) onTransition(e update.Event) {
	var n Notification
	switch e.To {
	case update.StateRelaunched:
		if !h.config.OnUpdate {
			return
		}
		n = notice(SeverityInfo, e.Latest, "Updated to %s", e.Latest)
	case update.StateRelaunchFailed:
		if !h.config.OnError {
			return
		}
		n = notice(SeverityError, e.Latest, "%s is installed but could not be started. Please start it manually.", e.Latest)
	case update.StateAbortedRestored:
		if !h.config.OnError {
			return
		}
		n = notice(SeverityError, e.Latest, "Update to %s failed. The previous version was restored.", e.Latest)
	case update.StateAbortedNoChange:
		if !h.config.OnError {
			return
		}
		n = notice(SeverityError, e.Latest, "Update to %s was cancelled. Nothing was changed.", e.Latest)
	default:
		return
	}
	h.markNotified(e.SessionID)
	h.dispatch(n)
}

// onOutcome reports failures that happened before an install started.
func (h *Handler) onOutcome(e update.Event) {
	if e.Result == nil || e.Result.Err == nil || !h.config.OnError {
		return
	}
	if h.wasNotified(e.Result.SessionID) {
		return
	}
	h.dispatch(notice(SeverityError, e.Result.To, "Update failed: %v", e.Result.Err))
}

// notice builds a notification titled with the target version, so stacked
// notifications from different attempts stay distinguishable.
func notice(sev Severity, version, format string, args ...any) Notification {
	title := appName
	if version != "" {
		title = appName + " " + version
	}
	return Notification{
		Title:    title,
		Message:  fmt.Sprintf(format, args...),
		Severity: sev,
		Version:  version,
	}
}

func (h *Handler) markNotified(sessionID string) {
	if sessionID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notified[sessionID] = true
}

func (h *Handler) wasNotified(sessionID string) bool {
	if sessionID == "" {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.notified[sessionID]
}

// dispatch sends a notification and waits at most dispatchTimeout for it.
// Failures are logged and never propagate.
func (h *Handler) dispatch(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.send(n)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		h.logger.Debug("notification timed out", "title", n.Title)
	}
}

// send delivers n according to the configured output type
func (h *Handler) send(n Notification) {
	if h.config.Type != OutputSound {
		if err := h.sender.SendVisual(n); err != nil {
			h.logger.Debug("visual notification failed", "error", err)
		}
	}
	if h.config.Type == OutputSound || h.config.Type == OutputBoth {
		if err := ValidateSoundFile(h.config.SoundFile); err != nil {
			h.logger.Warn("falling back to the default sound", "error", err)
		}
		if err := h.sender.SendSound(h.config.SoundFile); err != nil {
			h.logger.Debug("sound notification failed", "error", err)
		}
	}
}
