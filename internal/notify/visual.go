package notify

import "fmt"

// appName identifies notifications from this tool in the OS notification
// center. notify-send uses it to replace an earlier bubble.
const appName = "autoupdater"

// notifySendArgs builds the notify-send invocation for n. Failures stay on
// screen until dismissed since they usually need the user to act.
func notifySendArgs(n Notification) []string {
	urgency, icon := "normal", "system-software-update"
	if n.Severity == SeverityError {
		urgency, icon = "critical", "dialog-error"
	}
	args := []string{
		"-a", appName,
		"-u", urgency,
		"-i", icon,
		"-h", "string:x-canonical-private-synchronous:" + appName,
	}
	if n.Severity == SeverityError {
		args = append(args, "-t", "0")
	}
	return append(args, n.Title, n.Message)
}

// appleScript builds the osascript source for n. The subtitle carries what
// happened to the installation.
func appleScript(n Notification) string {
	subtitle := "Update installed"
	if n.Version != "" {
		subtitle = fmt.Sprintf("Now running %s", n.Version)
	}
	if n.Severity == SeverityError {
		subtitle = "Action may be required"
	}
	script := fmt.Sprintf(`display notification %q with title %q subtitle %q`, n.Message, n.Title, subtitle)
	if n.Severity == SeverityError {
		script += ` sound name "Basso"`
	}
	return script
}
