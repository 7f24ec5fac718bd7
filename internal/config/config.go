// Package config provides persisted settings for the automation host.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"midiautomate/internal/automate"
)

const appDir = "VEP MIDI AutoMate"

// Config represents the application settings
type Config struct {
	// CSVPath is the last CSV file chosen
	CSVPath string `json:"csv_path"`

	// SlowMode pauses longer after every simulated action
	SlowMode bool `json:"slow_mode"`

	// Theme is the status page theme ("light" or "dark")
	Theme string `json:"theme"`

	// AbortHotkey is the global hotkey that aborts a run (e.g. "Ctrl+F12")
	AbortHotkey string `json:"abort_hotkey"`

	// Engine tunes detection and pacing
	Engine Engine `json:"engine"`

	// APIEnabled enables the local HTTP control API in serve mode
	APIEnabled bool `json:"api_enabled"`

	// APIPort is the port for the API server (default: 18090)
	APIPort int `json:"api_port"`

	// APIToken is an optional authentication token for API requests
	APIToken string `json:"api_token,omitempty"`
}

// Engine holds the automation thresholds and timings.
type Engine struct {
	WindowTitlePrefix  string `json:"window_title_prefix"`
	StandaloneMarker   string `json:"standalone_marker"`
	ServerMarker       string `json:"server_marker"`
	GroupSettingsTitle string `json:"group_settings_title"`

	ChangeThreshold   int `json:"change_threshold"`
	MatchDistance     int `json:"match_distance"`
	LastPanelContrast int `json:"last_panel_contrast"`

	WaitTimeoutMs     int `json:"wait_timeout_ms"`
	PollIntervalMs    int `json:"poll_interval_ms"`
	ActionPauseMs     int `json:"action_pause_ms"`
	SlowActionPauseMs int `json:"slow_action_pause_ms"`

	PurgeLimit     int `json:"purge_limit"`
	DriftTolerance int `json:"drift_tolerance"`
}

// DefaultEngine mirrors automate.DefaultOptions.
func DefaultEngine() Engine {
	o := automate.DefaultOptions()
	return Engine{
		WindowTitlePrefix:  o.TitlePrefix,
		StandaloneMarker:   o.StandaloneMarker,
		ServerMarker:       o.ServerMarker,
		GroupSettingsTitle: o.GroupSettingsTitle,
		ChangeThreshold:    o.ChangeThreshold,
		MatchDistance:      o.MatchDistance,
		LastPanelContrast:  o.PanelContrast,
		WaitTimeoutMs:      int(o.WaitTimeout / time.Millisecond),
		PollIntervalMs:     int(o.PollInterval / time.Millisecond),
		ActionPauseMs:      int(o.ActionPause / time.Millisecond),
		SlowActionPauseMs:  int(automate.SlowActionPause / time.Millisecond),
		PurgeLimit:         o.PurgeLimit,
		DriftTolerance:     o.DriftTolerance,
	}
}

// Options converts the settings for the orchestrator. slow selects the
// slow action pause.
func (e Engine) Options(slow bool) automate.Options {
	pause := e.ActionPauseMs
	if slow {
		pause = e.SlowActionPauseMs
	}
	return automate.Options{
		TitlePrefix:        e.WindowTitlePrefix,
		StandaloneMarker:   e.StandaloneMarker,
		ServerMarker:       e.ServerMarker,
		GroupSettingsTitle: e.GroupSettingsTitle,
		ChangeThreshold:    e.ChangeThreshold,
		MatchDistance:      e.MatchDistance,
		PanelContrast:      e.LastPanelContrast,
		DriftTolerance:     e.DriftTolerance,
		WaitTimeout:        time.Duration(e.WaitTimeoutMs) * time.Millisecond,
		PollInterval:       time.Duration(e.PollIntervalMs) * time.Millisecond,
		ActionPause:        time.Duration(pause) * time.Millisecond,
		PurgeLimit:         e.PurgeLimit,
	}
}

// Validate reports the first setting that cannot drive a run.
func (c *Config) Validate() error {
	e := c.Engine
	switch {
	case e.WindowTitlePrefix == "":
		return errors.New("window_title_prefix must not be empty")
	case e.StandaloneMarker == "" || e.ServerMarker == "":
		return errors.New("window type markers must not be empty")
	case e.ChangeThreshold < 0 || e.ChangeThreshold > 255:
		return fmt.Errorf("change_threshold %d out of range 0..255", e.ChangeThreshold)
	case e.MatchDistance < 0 || e.LastPanelContrast < 0 || e.DriftTolerance < 0:
		return errors.New("distances must not be negative")
	case e.WaitTimeoutMs <= 0 || e.PollIntervalMs <= 0:
		return errors.New("wait_timeout_ms and poll_interval_ms must be positive")
	case e.ActionPauseMs < 0 || e.SlowActionPauseMs < 0:
		return errors.New("action pauses must not be negative")
	case e.PurgeLimit <= 0:
		return fmt.Errorf("purge_limit %d must be positive", e.PurgeLimit)
	case c.APIPort < 0 || c.APIPort > 65535:
		return fmt.Errorf("api_port %d out of range", c.APIPort)
	}
	return nil
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Theme:       "light",
		AbortHotkey: "Ctrl+F12",
		Engine:      DefaultEngine(),
		APIEnabled:  true,
		APIPort:     18090,
	}
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
}

// NewManager creates a configuration manager for the per-user settings file
func NewManager() (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(configPath), nil
}

// NewManagerAt creates a configuration manager for the given file
func NewManagerAt(path string) *Manager {
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}
}

// Path returns the settings file location
func (m *Manager) Path() string {
	return m.configPath
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", appDir)
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, appDir)
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config")
		}
		configDir = filepath.Join(configDir, appDir)
	}

	return filepath.Join(configDir, "settings.json"), nil
}

// Load reads the configuration from disk. Keys missing from the file keep
// their defaults.
func (m *Manager) Load() error {
	m.mu.Lock()
	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		// No config file, use defaults
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		m.mu.Unlock()
		return err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("parse %s: %w", m.configPath, err)
	}
	m.config = cfg
	onChanged := m.onChanged
	m.mu.Unlock()

	if onChanged != nil {
		onChanged()
	}
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}

	log.Printf("Config: Saving configuration to %s (%d bytes)", m.configPath, len(data))
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.config
}

// Set updates the configuration
func (m *Manager) Set(config Config) {
	m.mu.Lock()
	m.config = &config
	onChanged := m.onChanged
	m.mu.Unlock()
	if onChanged != nil {
		onChanged()
	}
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
