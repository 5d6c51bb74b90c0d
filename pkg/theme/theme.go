// Package theme holds the process-wide display mode flag.
package theme

import "sync"

// Mode is the display mode applied to the whole document.
type Mode string

const (
	Dark  Mode = "dark"
	Light Mode = "light"
)

// Class returns the document class for the mode; dark is the default
// styling and needs none.
func (m Mode) Class() string {
	if m == Light {
		return "light"
	}
	return ""
}

// Toggle is a binary display mode flag. The zero value is in dark mode.
type Toggle struct {
	mu    sync.RWMutex
	light bool
}

// Mode returns the current mode.
func (t *Toggle) Mode() Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.light {
		return Light
	}
	return Dark
}

// Toggle flips the mode and returns the new one.
func (t *Toggle) Toggle() Mode {
	t.mu.Lock()
	t.light = !t.light
	t.mu.Unlock()
	return t.Mode()
}
