//go:build darwin

package notify

import "os/exec"

// DefaultMacOSSound plays for sound output when no file is configured.
const DefaultMacOSSound = "/System/Library/Sounds/Glass.aiff"

// darwinSender posts to Notification Center through osascript. Failures
// also play the Basso alert so they are noticed when the banner is missed.
type darwinSender struct {
	visualAvailable bool
	soundAvailable  bool
}

func newPlatformSender() Sender {
	return &darwinSender{
		visualAvailable: toolAvailable("osascript"),
		soundAvailable:  toolAvailable("afplay"),
	}
}

func (s *darwinSender) SendVisual(n Notification) error {
	if !s.visualAvailable {
		return nil // graceful degradation
	}
	return exec.Command("osascript", "-e", appleScript(n)).Run()
}

// SendSound plays a sound using afplay
func (s *darwinSender) SendSound(soundFile string) error {
	if !s.soundAvailable {
		return nil
	}
	return exec.Command("afplay", soundOrDefault(soundFile, DefaultMacOSSound)).Run()
}

// VisualAvailable returns true if osascript is available
func (s *darwinSender) VisualAvailable() bool {
	return s.visualAvailable
}

// SoundAvailable returns true if afplay is available
func (s *darwinSender) SoundAvailable() bool {
	return s.soundAvailable
}
