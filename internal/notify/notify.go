package notify

// Severity tells the platform sender how prominently to show a
// notification. Installs that leave the application stopped or rolled back
// are SeverityError.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

// OutputType represents the notification output type
type OutputType string

const (
	// OutputSound sends only an audible notification
	OutputSound OutputType = "sound"
	// OutputVisual sends only a visual notification
	OutputVisual OutputType = "visual"
	// OutputBoth sends both sound and visual notifications
	OutputBoth OutputType = "both"
)

// ValidOutputType checks if the given string is a valid output type
func ValidOutputType(s string) bool {
	switch OutputType(s) {
	case OutputSound, OutputVisual, OutputBoth:
		return true
	default:
		return false
	}
}

// NotificationConfig holds user preferences for notification behavior.
type NotificationConfig struct {
	// Enabled is the master switch for all notifications (default: false, opt-in)
	Enabled bool `koanf:"enabled" json:"enabled"`

	// Type specifies the notification output type: sound, visual, or both (default: visual)
	Type OutputType `koanf:"type" json:"type"`

	// SoundFile is an optional custom sound file path
	SoundFile string `koanf:"sound_file" json:"sound_file"`

	// OnUpdate notifies when the new version was installed and started
	OnUpdate bool `koanf:"on_update" json:"on_update"`

	// OnError notifies when an update fails or is rolled back
	OnError bool `koanf:"on_error" json:"on_error"`

	// RequireTTY suppresses notifications when no terminal is attached.
	// Install helpers run detached, so this is off by default.
	RequireTTY bool `koanf:"require_tty" json:"require_tty"`
}

// DefaultConfig returns a NotificationConfig with default values
func DefaultConfig() NotificationConfig {
	return NotificationConfig{
		Enabled:  false,
		Type:     OutputVisual,
		OnUpdate: true,
		OnError:  true,
	}
}

// Notification is one message shown to the user about an update attempt.
type Notification struct {
	Title    string
	Message  string
	Severity Severity
	// Version is the release the attempt targeted, when known.
	Version string
}
