// Package notify provides cross-platform desktop notifications for update
// outcomes.
//
// The install helper runs detached from any terminal, so a notification is
// often the only way a user learns that an update was rolled back or that the
// new version could not be started. Senders call native OS tools through
// os/exec and degrade to no-ops when those tools are missing.
//
// # Platform Support
//
//   - macOS: osascript for visual notifications, afplay for sound
//   - Linux: notify-send for visual notifications, paplay for sound
//   - Windows: PowerShell for toast notifications and sound
//
// # Usage
//
//	handler := notify.NewHandler(cfg.Notifications, logger)
//	executor := update.NewExecutor(logger, update.WithExecutorReporter(handler))
package notify
