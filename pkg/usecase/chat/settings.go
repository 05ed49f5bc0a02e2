package chat

import "sync"

// Settings holds the user toggles shared by the renderer and the session
type Settings struct {
	mu            sync.RWMutex
	darkMode      bool
	criticalMode  bool
	memoryEnabled bool
}

type SettingsOption func(*Settings)

func WithDarkMode(enabled bool) SettingsOption {
	return func(s *Settings) {
		s.darkMode = enabled
	}
}

func WithCriticalMode(enabled bool) SettingsOption {
	return func(s *Settings) {
		s.criticalMode = enabled
	}
}

func WithMemory(enabled bool) SettingsOption {
	return func(s *Settings) {
		s.memoryEnabled = enabled
	}
}

// NewSettings returns settings with dark mode on and every other toggle off
func NewSettings(opts ...SettingsOption) *Settings {
	s := &Settings{darkMode: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Settings) DarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.darkMode
}

// CriticalMode is relayed to the agent with every query
func (s *Settings) CriticalMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criticalMode
}

// MemoryEnabled has no effect beyond being displayed
func (s *Settings) MemoryEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memoryEnabled
}

func (s *Settings) ToggleDarkMode() bool {
	return s.toggle(&s.darkMode)
}

func (s *Settings) ToggleCriticalMode() bool {
	return s.toggle(&s.criticalMode)
}

func (s *Settings) ToggleMemory() bool {
	return s.toggle(&s.memoryEnabled)
}

func (s *Settings) toggle(flag *bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	*flag = !*flag
	return *flag
}
