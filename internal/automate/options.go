package automate

import "time"

// Detection constants. The thresholds are empirical and tuned against the
// mixer's default skin; change them only with new calibration captures.
const (
	DefaultChangeThreshold = 25
	DefaultMatchDistance   = 5
	DefaultPanelContrast   = 50
	DefaultDriftTolerance  = 12

	DefaultWaitTimeout  = 10 * time.Second
	DefaultPollInterval = 3 * time.Millisecond

	DefaultActionPause = 30 * time.Millisecond
	SlowActionPause    = 500 * time.Millisecond

	DefaultPurgeLimit = 1000
)

// Options tunes an Orchestrator.
type Options struct {
	// TitlePrefix selects the target window; the first match wins.
	TitlePrefix string
	// StandaloneMarker and ServerMarker classify the window by title.
	StandaloneMarker string
	ServerMarker     string
	// GroupSettingsTitle names a floating window that must be hidden.
	GroupSettingsTitle string

	// ChangeThreshold is the per-channel delta above which a pixel counts
	// as changed between two captures.
	ChangeThreshold int
	// MatchDistance is the color distance below which two colors are
	// treated as the same for hover and scrollbar matching.
	MatchDistance int
	// PanelContrast is the luminance step between a menu panel's top
	// border and its first row.
	PanelContrast int
	// DriftTolerance is the largest fingerprint distance accepted between
	// the device menu at probe time and on later rows.
	DriftTolerance int

	WaitTimeout  time.Duration
	PollInterval time.Duration
	// ActionPause is slept after every simulated input.
	ActionPause time.Duration

	// PurgeLimit bounds the number of rows deleted before giving up.
	PurgeLimit int
}

// DefaultOptions returns options for Vienna Ensemble Pro at 100% scaling.
func DefaultOptions() Options {
	return Options{
		TitlePrefix:        "Vienna Ensemble Pro",
		StandaloneMarker:   "Standalone",
		ServerMarker:       "Server",
		GroupSettingsTitle: "Group Settings",
		ChangeThreshold:    DefaultChangeThreshold,
		MatchDistance:      DefaultMatchDistance,
		PanelContrast:      DefaultPanelContrast,
		DriftTolerance:     DefaultDriftTolerance,
		WaitTimeout:        DefaultWaitTimeout,
		PollInterval:       DefaultPollInterval,
		ActionPause:        DefaultActionPause,
		PurgeLimit:         DefaultPurgeLimit,
	}
}
