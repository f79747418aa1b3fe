package notify

import (
	"sync"
)

// MockSender records notification calls for handler tests.
type MockSender struct {
	mu sync.Mutex

	VisualError error
	SoundError  error

	VisualCalls []Notification
	SoundCalls  []string
}

// SendVisual records the call and returns the configured error
func (m *MockSender) SendVisual(n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VisualCalls = append(m.VisualCalls, n)
	return m.VisualError
}

// SendSound records the call and returns the configured error
func (m *MockSender) SendSound(soundFile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SoundCalls = append(m.SoundCalls, soundFile)
	return m.SoundError
}

func (m *MockSender) VisualAvailable() bool { return true }
func (m *MockSender) SoundAvailable() bool  { return true }

func (m *MockSender) visual() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.VisualCalls...)
}

func (m *MockSender) sounds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.SoundCalls...)
}
