package automate

import (
	"image"
	"sync/atomic"
	"time"

	"midiautomate/internal/pixel"
	"midiautomate/internal/window"
)

// Windows finds and manipulates top-level windows.
type Windows interface {
	Find(titlePrefix string) ([]window.Window, error)
	Maximize(w window.Window) error
	Activate(w window.Window) error
	// ClientRect returns the client area in desktop coordinates.
	ClientRect(w window.Window) (image.Rectangle, error)
}

// Screen captures desktop pixels.
type Screen interface {
	// Desktop returns the virtual desktop rectangle.
	Desktop() (image.Rectangle, error)
	// Capture snapshots r; the returned image's (0,0) is r.Min.
	Capture(r image.Rectangle) (pixel.Image, error)
}

// Input simulates the mouse and keyboard. Coordinates are desktop pixels.
type Input interface {
	MoveTo(x, y int) error
	Click() error
	DragTo(x, y int) error
	KeyDown(key string) error
	KeyUp(key string) error
	Press(key string) error
	Type(text string) error
	Hotkey(keys ...string) error
}

// AbortSignal is polled between actions.
type AbortSignal interface {
	IsSet() bool
}

// Flag is an AbortSignal that may be set from any goroutine.
type Flag struct {
	set atomic.Bool
}

// Set raises the flag.
func (f *Flag) Set() { f.set.Store(true) }

// Reset lowers the flag.
func (f *Flag) Reset() { f.set.Store(false) }

// IsSet reports whether the flag is raised.
func (f *Flag) IsSet() bool { return f.set.Load() }

// Mode is the kind of mixer window found.
type Mode int

const (
	Standalone Mode = iota + 1
	Server
)

func (m Mode) String() string {
	if m == Server {
		return "server"
	}
	return "standalone"
}

// Baseline holds window coordinates derived once the menus are measured.
type Baseline struct {
	FirstRowTop int
	FirstRowY   int
	// DeviceX and DestinationX are the click columns of a row's device
	// selector and destination cells.
	DeviceX      int
	DestinationX int
	// BottomY is the top edge of the window's bottom bar.
	BottomY int
	// TopRowBands is the color-band count across the first row while no
	// scrollbar is shown.
	TopRowBands int
}

// Scrollbar tracks the controller table's vertical scrollbar.
type Scrollbar struct {
	Active bool
	X      int
}

// Session is the mutable context of one run. It is owned by the running
// orchestrator and never shared.
type Session struct {
	abort AbortSignal

	Window  window.Window
	Mode    Mode
	Desktop image.Rectangle
	// Client is the window's client area in desktop coordinates.
	Client image.Rectangle
	// Pointer is where the last move left the pointer, in desktop coordinates.
	Pointer image.Point

	// Entry and NewRow are window coordinates of the controller-table
	// control and the cell that appends a row.
	Entry  image.Point
	NewRow image.Point

	Geometry  MenuGeometry
	Layout    Baseline
	Scrollbar Scrollbar

	Started time.Time
	Done    int
}

func newSession(abort AbortSignal) *Session {
	return &Session{abort: abort}
}

// toDesktop converts window coordinates to desktop coordinates.
func (s *Session) toDesktop(p image.Point) image.Point {
	return p.Add(s.Client.Min)
}

func (s *Session) aborted() bool {
	return s.abort != nil && s.abort.IsSet()
}
