package notify

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Sender defines the interface for platform-specific notification senders
type Sender interface {
	// SendVisual sends a visual notification to the OS notification system
	SendVisual(n Notification) error

	// SendSound plays an audio notification
	SendSound(soundFile string) error

	// VisualAvailable returns true if visual notifications are supported
	VisualAvailable() bool

	// SoundAvailable returns true if sound notifications are supported
	SoundAvailable() bool
}

// NewSender creates the notification sender for the current OS.
// Unsupported platforms get a no-op sender.
func NewSender() Sender {
	return newPlatformSender()
}

// toolAvailable checks if a command-line tool is available in PATH
func toolAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// noopSender is a sender that does nothing (for unsupported platforms)
type noopSender struct{}

func (s *noopSender) SendVisual(_ Notification) error { return nil }
func (s *noopSender) SendSound(_ string) error        { return nil }
func (s *noopSender) VisualAvailable() bool           { return false }
func (s *noopSender) SoundAvailable() bool            { return false }

// supportedAudioExtensions contains file extensions supported for custom sounds
var supportedAudioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".aiff": true,
	".aif":  true,
	".ogg":  true,
	".flac": true,
	".m4a":  true,
}

// ValidateSoundFile checks that soundFile exists, is a regular file and has a
// supported extension. An empty path is valid and selects the platform default.
func ValidateSoundFile(soundFile string) error {
	if soundFile == "" {
		return nil
	}

	info, err := os.Stat(soundFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("sound file not found: %s", soundFile)
		}
		return fmt.Errorf("cannot access sound file %s: %w", soundFile, err)
	}
	if info.IsDir() {
		return fmt.Errorf("sound path is a directory: %s", soundFile)
	}

	ext := strings.ToLower(filepath.Ext(soundFile))
	if !supportedAudioExtensions[ext] {
		return fmt.Errorf("unsupported audio format %q: %s", ext, soundFile)
	}
	return nil
}

// soundOrDefault returns soundFile when it is usable, otherwise fallback.
func soundOrDefault(soundFile, fallback string) string {
	if soundFile == "" || ValidateSoundFile(soundFile) != nil {
		return fallback
	}
	return soundFile
}
