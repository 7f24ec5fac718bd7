// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"encoding/binary"
	"image/color"
	"sync"

	"github.com/getlantern/systray"
)

// MenuItem represents a menu item
type MenuItem struct {
	ID       int
	Title    string
	Callback func()
	disabled bool
	item     *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	mu      sync.Mutex
	title   string
	tooltip string
	items   []*MenuItem
	ready   bool
	quitCh  chan struct{}
}

// New creates a new system tray
func New(title, tooltip string) *Tray {
	return &Tray{
		title:   title,
		tooltip: tooltip,
		items:   make([]*MenuItem, 0),
		quitCh:  make(chan struct{}),
	}
}

// AddMenuItem adds a menu item to the tray
func (t *Tray) AddMenuItem(title string, callback func()) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := len(t.items)
	t.items = append(t.items, &MenuItem{
		ID:       id,
		Title:    title,
		Callback: callback,
	})
	return id
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, nil) // nil indicates separator
}

// SetItemEnabled enables or disables a menu item
func (t *Tray) SetItemEnabled(id int, enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.items) || t.items[id] == nil {
		return
	}
	mi := t.items[id]
	mi.disabled = !enabled
	if mi.item != nil {
		if enabled {
			mi.item.Enable()
		} else {
			mi.item.Disable()
		}
	}
}

// SetTooltip updates the hover text, e.g. with the latest progress
func (t *Tray) SetTooltip(tooltip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tooltip = tooltip
	if t.ready {
		systray.SetTooltip(tooltip)
	}
}

// Run starts the tray event loop (blocks)
func (t *Tray) Run() {
	systray.Run(t.setupMenu, func() { close(t.quitCh) })
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	t.mu.Lock()
	defer t.mu.Unlock()

	systray.SetTitle(t.title)
	systray.SetTooltip(t.tooltip)
	systray.SetIcon(getIcon())
	t.ready = true

	// Create menu items
	for _, menuItem := range t.items {
		if menuItem == nil {
			// Separator
			systray.AddSeparator()
			continue
		}
		item := systray.AddMenuItem(menuItem.Title, "")
		menuItem.item = item
		if menuItem.disabled {
			item.Disable()
		}

		// Handle clicks in goroutine
		if menuItem.Callback != nil {
			go func(mi *MenuItem) {
				for {
					select {
					case <-mi.item.ClickedCh:
						mi.Callback()
					case <-t.quitCh:
						return
					}
				}
			}(menuItem)
		}
	}
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

var iconFill = color.RGBA{R: 0x2e, G: 0x86, B: 0xc1, A: 0xff}

// getIcon returns a 16x16 32-bit ICO: a filled square with a transparent
// one-pixel margin.
func getIcon() []byte {
	const size = 16
	const pixelBytes = size * size * 4
	const maskBytes = size * 4 // 1bpp rows padded to 32 bits
	const imageBytes = 40 + pixelBytes + maskBytes

	icon := make([]byte, 6+16+imageBytes)
	le := binary.LittleEndian

	// ICO Header
	le.PutUint16(icon[2:], 1) // type: icon
	le.PutUint16(icon[4:], 1) // count

	// Icon Directory
	icon[6], icon[7] = size, size
	le.PutUint16(icon[10:], 1)  // planes
	le.PutUint16(icon[12:], 32) // bpp
	le.PutUint32(icon[14:], imageBytes)
	le.PutUint32(icon[18:], 22) // offset

	// DIB Header
	dib := icon[22:]
	le.PutUint32(dib[0:], 40)
	le.PutUint32(dib[4:], size)
	le.PutUint32(dib[8:], size*2) // color and mask halves
	le.PutUint16(dib[12:], 1)
	le.PutUint16(dib[14:], 32)
	le.PutUint32(dib[20:], pixelBytes)

	// Pixels are BGRA, bottom row first
	pixels := dib[40:]
	for y := 1; y < size-1; y++ {
		for x := 1; x < size-1; x++ {
			i := (y*size + x) * 4
			pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = iconFill.B, iconFill.G, iconFill.R, iconFill.A
		}
	}
	// The AND mask stays zero; alpha decides transparency
	return icon
}
