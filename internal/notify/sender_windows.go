//go:build windows

package notify

import (
	"fmt"
	"os/exec"
	"strings"
)

// windowsSender implements Sender for Windows using PowerShell
type windowsSender struct {
	available bool
}

func newPlatformSender() Sender {
	return &windowsSender{available: toolAvailable("powershell")}
}

const toastScript = `
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
$textNodes = $template.GetElementsByTagName('text')
$textNodes.Item(0).AppendChild($template.CreateTextNode('%s')) | Out-Null
$textNodes.Item(1).AppendChild($template.CreateTextNode('%s')) | Out-Null
$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('%s').Show($toast)
`

// SendVisual sends a toast notification using PowerShell
func (s *windowsSender) SendVisual(n Notification) error {
	if !s.available {
		return nil // graceful degradation
	}
	script := fmt.Sprintf(toastScript, escapeForPowerShell(n.Title), escapeForPowerShell(n.Message), appName)
	return powershell(script).Run()
}

// SendSound plays a custom sound file, or a short beep when none is configured
func (s *windowsSender) SendSound(soundFile string) error {
	if !s.available {
		return nil
	}

	script := "[Console]::Beep(800, 200)"
	if file := soundOrDefault(soundFile, ""); file != "" {
		script = fmt.Sprintf(`
$player = New-Object System.Media.SoundPlayer
$player.SoundLocation = '%s'
$player.PlaySync()
`, escapeForPowerShell(file))
	}
	return powershell(script).Run()
}

// VisualAvailable returns true if PowerShell is available
func (s *windowsSender) VisualAvailable() bool {
	return s.available
}

// SoundAvailable returns true if PowerShell is available
func (s *windowsSender) SoundAvailable() bool {
	return s.available
}

func powershell(script string) *exec.Cmd {
	return exec.Command("powershell", "-ExecutionPolicy", "Bypass", "-NoProfile", "-Command", script)
}

// escapeForPowerShell escapes s for use inside a single-quoted PowerShell string
func escapeForPowerShell(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '\'':
			b.WriteString("''")
		case '`', '$':
			b.WriteRune('`')
			b.WriteRune(c)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}
