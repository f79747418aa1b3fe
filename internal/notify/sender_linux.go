//go:build linux

package notify

import (
	"os"
	"os/exec"
)

// linuxSender talks to the freedesktop notification daemon via notify-send.
// Each update replaces the previous bubble instead of stacking.
type linuxSender struct {
	visualAvailable bool
	soundAvailable  bool
}

func newPlatformSender() Sender {
	return &linuxSender{
		visualAvailable: toolAvailable("notify-send") && hasDisplay(),
		soundAvailable:  toolAvailable("paplay"),
	}
}

// hasDisplay reports whether an X11 or Wayland display is available
func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

func (s *linuxSender) SendVisual(n Notification) error {
	if !s.visualAvailable {
		return nil // graceful degradation
	}
	return exec.Command("notify-send", notifySendArgs(n)...).Run()
}

// SendSound plays a custom sound using paplay. Linux has no default sound.
func (s *linuxSender) SendSound(soundFile string) error {
	if !s.soundAvailable {
		return nil
	}
	file := soundOrDefault(soundFile, "")
	if file == "" {
		return nil
	}
	return exec.Command("paplay", file).Run()
}

// VisualAvailable returns true if notify-send is available and display is present
func (s *linuxSender) VisualAvailable() bool {
	return s.visualAvailable
}

// SoundAvailable returns true if paplay is available
func (s *linuxSender) SoundAvailable() bool {
	return s.soundAvailable
}
