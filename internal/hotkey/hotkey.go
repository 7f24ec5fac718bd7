// Package hotkey provides global system-wide hotkey monitoring.
package hotkey

import (
	"log"
	"strings"
	"sync"
)

// Manager handles global hotkey registration and matching
type Manager struct {
	mu           sync.RWMutex
	hotkeys      []*registeredHotkey
	currentState map[string]bool // keys currently held
}

type registeredHotkey struct {
	parts    []string // e.g., ["CTRL", "F12"]
	original string
	callback func()
}

var aliases = map[string]string{
	"CONTROL": "CTRL",
	"ESCAPE":  "ESC",
	"RETURN":  "ENTER",
	"DEL":     "DELETE",
	"CMD":     "WIN",
}

func normalize(key string) string {
	key = strings.ToUpper(strings.TrimSpace(key))
	if alias, ok := aliases[key]; ok {
		return alias
	}
	return key
}

// NewManager creates a new hotkey manager
func NewManager() *Manager {
	return &Manager{
		currentState: make(map[string]bool),
	}
}

// Register registers a hotkey string (e.g. "Ctrl+F12") and a callback.
func (m *Manager) Register(hotkeyStr string, callback func()) (int, error) {
	if hotkeyStr == "" {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	parts := strings.Split(hotkeyStr, "+")
	for i, p := range parts {
		parts[i] = normalize(p)
	}

	m.hotkeys = append(m.hotkeys, &registeredHotkey{
		parts:    parts,
		original: hotkeyStr,
		callback: callback,
	})

	return len(m.hotkeys) - 1, nil
}

// Clear removes all registered hotkeys
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = nil
}

// UpdateState records a key transition and checks for matches. Auto-repeat
// of a held key does not trigger again.
func (m *Manager) UpdateState(key string, isDown bool) {
	key = normalize(key)
	m.mu.Lock()
	repeat := isDown && m.currentState[key]
	if isDown {
		m.currentState[key] = true
	} else {
		delete(m.currentState, key)
	}
	m.mu.Unlock()

	if isDown && !repeat {
		m.checkMatches(key)
	}
}

// checkMatches fires every hotkey that includes the key just pressed and
// whose other keys are already held.
func (m *Manager) checkMatches(pressed string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, hk := range m.hotkeys {
		match, involved := true, false
		for _, part := range hk.parts {
			if !m.currentState[part] {
				match = false
				break
			}
			if part == pressed {
				involved = true
			}
		}

		if match && involved {
			log.Printf("Hotkey triggered: %s", hk.original)
			go hk.callback()
		}
	}
}

// Start initiates the platform-specific global hooks.
func (m *Manager) Start() error {
	return m.startPlatform()
}
