package automate

import (
	"fmt"
	"image"
	"strings"
	"testing"
	"time"

	"midiautomate/internal/pixel"
	"midiautomate/internal/window"
)

// Colors of the simulated mixer.
var (
	colDesktop   = pixel.RGB(0, 60, 0)
	colWindow    = pixel.RGB(40, 40, 40)
	colTitle     = pixel.RGB(10, 10, 10)
	colToolbar   = pixel.RGB(70, 70, 70)
	colCorner    = pixel.RGB(90, 90, 90)
	colEntry     = pixel.RGB(120, 120, 160)
	colHeader    = pixel.RGB(60, 60, 90)
	colRule      = pixel.RGB(80, 80, 80)
	colNewRow    = pixel.RGB(50, 70, 50)
	colLine      = pixel.RGB(65, 65, 65)
	colRow       = pixel.RGB(55, 55, 55)
	colDivider   = pixel.RGB(20, 20, 20)
	colFooterTop = pixel.RGB(35, 35, 35)
	colFooter    = pixel.RGB(30, 30, 30)
	colTrack     = pixel.RGB(15, 15, 15)
	colThumb     = pixel.RGB(160, 160, 160)
	colBorder    = pixel.RGB(120, 120, 120)
	colMenu      = pixel.RGB(200, 200, 200)
	colGlyph     = pixel.RGB(0, 0, 0)
	colHighlight = pixel.RGB(0, 120, 215)
	colInstance  = pixel.RGB(100, 40, 40)
)

// Window layout, in client coordinates.
var (
	rectTitle     = image.Rect(0, 0, 400, 10)
	rectToolbar   = image.Rect(0, 20, 400, 30)
	rectCorner    = image.Rect(390, 30, 400, 40)
	rectEntry     = image.Rect(350, 30, 370, 40)
	rectHeader    = image.Rect(0, 60, 300, 70)
	rectRule      = image.Rect(0, 70, 300, 72)
	rectNewRow    = image.Rect(0, 75, 300, 90)
	rectLine      = image.Rect(0, 92, 300, 94)
	rectFooterTop = image.Rect(0, 285, 400, 290)
	rectFooter    = image.Rect(0, 290, 400, 300)
	rectTrack     = image.Rect(380, 75, 390, 285)
	// Server windows show their instances above the table.
	rectInstance  = image.Rect(0, 40, 100, 50)
)

const (
	tableTop    = 95
	tableBottom = 285
	rowPitch    = 20
	rowHeight   = 15
	menuItem    = 12
	thumbHeight = 20
)

var dividers = []int{100, 200, 300}

type panelKind int

const (
	devicePanel panelKind = iota
	channelPanel
	groupPanel
	controllerPanel
)

var panelWidths = [...]int{60, 70, 80, 90}

type fakePanel struct {
	kind    panelKind
	rect    image.Rectangle
	items   int
	hovered int
}

func (p fakePanel) hasChild(item int) bool {
	switch p.kind {
	case devicePanel:
		return item > 0
	case channelPanel, groupPanel:
		return true
	}
	return false
}

func (p fakePanel) child(item int) fakePanel {
	kind := p.kind + 1
	items := map[panelKind]int{channelPanel: 16, groupPanel: 8, controllerPanel: 16}[kind]
	at := image.Pt(p.rect.Max.X, p.rect.Min.Y+item*menuItem)
	return newPanel(kind, at, items)
}

func newPanel(kind panelKind, at image.Point, items int) fakePanel {
	return fakePanel{
		kind:    kind,
		rect:    image.Rectangle{Min: at, Max: at.Add(image.Pt(panelWidths[kind], items*menuItem))},
		items:   items,
		hovered: -1,
	}
}

func (p fakePanel) hoverArea() image.Rectangle {
	return p.rect.Inset(1)
}

func (p fakePanel) itemRect(i int) image.Rectangle {
	r := image.Rect(p.rect.Min.X+1, p.rect.Min.Y+i*menuItem, p.rect.Max.X-1, p.rect.Min.Y+(i+1)*menuItem)
	return r.Intersect(p.rect.Inset(1))
}

type fakeRow struct {
	device, channel, cc int
	layers              [4]string
}

// fakeMixer simulates the mixer window, the desktop around it and the
// input devices driving it.
type fakeMixer struct {
	title         string
	groupSettings bool
	blank         bool
	desktop       image.Rectangle
	client        image.Rectangle
	devices       int
	maxVisible    int
	// widen grows the device menu, simulating a changed skin.
	widen         int

	rows      []fakeRow
	scrollTop int
	panels    []fakePanel
	menuRow   int
	editing   int
	layer     int
	selected  bool
	pointer   image.Point

	calls  []string
	onCall func(string)
	cache  *pixel.Frame
}

func newFakeMixer() *fakeMixer {
	return &fakeMixer{
		title:      "Vienna Ensemble Pro Standalone",
		desktop:    image.Rect(0, 0, 1000, 700),
		client:     image.Rect(0, 0, 400, 300),
		devices:    3,
		maxVisible: 9,
		editing:    -1,
	}
}

func (m *fakeMixer) record(format string, args ...any) {
	call := fmt.Sprintf(format, args...)
	m.calls = append(m.calls, call)
	if m.onCall != nil {
		m.onCall(call)
	}
}

func (m *fakeMixer) changed() { m.cache = nil }

func (m *fakeMixer) visible() int {
	return min(len(m.rows)-m.scrollTop, m.maxVisible)
}

func (m *fakeMixer) scrolling() bool { return len(m.rows) > m.maxVisible }

func (m *fakeMixer) thumb() image.Rectangle {
	y := 100
	if m.scrollTop > 0 {
		y = 260
	}
	return image.Rect(rectTrack.Min.X, y, rectTrack.Max.X, y+thumbHeight)
}

// Windows

func (m *fakeMixer) Find(prefix string) ([]window.Window, error) {
	var found []window.Window
	titles := []string{m.title}
	if m.groupSettings {
		titles = append(titles, "Group Settings")
	}
	for i, title := range titles {
		if title != "" && strings.HasPrefix(title, prefix) {
			found = append(found, window.Window{Handle: uintptr(i + 1), Title: title})
		}
	}
	return found, nil
}

func (m *fakeMixer) Maximize(window.Window) error { return nil }

func (m *fakeMixer) Activate(window.Window) error { return nil }

func (m *fakeMixer) ClientRect(window.Window) (image.Rectangle, error) { return m.client, nil }

// Screen

func (m *fakeMixer) Desktop() (image.Rectangle, error) { return m.desktop, nil }

func (m *fakeMixer) Capture(r image.Rectangle) (pixel.Image, error) {
	if !r.In(m.desktop) {
		return nil, fmt.Errorf("capture %v outside desktop %v", r, m.desktop)
	}
	return pixel.Crop(m.frame(), r.Sub(m.desktop.Min)), nil
}

func (m *fakeMixer) frame() *pixel.Frame {
	if m.cache != nil {
		return m.cache
	}
	f := pixel.NewFrame(m.desktop.Dx(), m.desktop.Dy())
	f.Fill(pixel.Bounds(f), colDesktop)
	m.drawWindow(f)
	for _, p := range m.panels {
		drawPanel(f, p)
	}
	m.cache = f
	return f
}

func (m *fakeMixer) drawWindow(f *pixel.Frame) {
	fill := func(r image.Rectangle, c pixel.Color) { f.Fill(r.Add(m.client.Min), c) }
	fill(image.Rectangle{Max: m.client.Size()}, colWindow)
	if m.blank {
		return
	}
	fill(rectTitle, colTitle)
	fill(rectToolbar, colToolbar)
	if strings.Contains(m.title, "Server") {
		fill(rectInstance, colInstance)
	}
	fill(rectCorner, colCorner)
	fill(rectEntry, colEntry)
	fill(rectHeader, colHeader)
	fill(rectRule, colRule)
	fill(rectNewRow, colNewRow)
	fill(rectLine, colLine)
	for i := 0; i < m.visible(); i++ {
		y := tableTop + i*rowPitch
		fill(image.Rect(0, y, 390, y+rowHeight), colRow)
	}
	for _, x := range dividers {
		fill(image.Rect(x, tableTop, x+1, tableBottom), colDivider)
	}
	if m.scrolling() {
		fill(rectTrack, colTrack)
		fill(m.thumb(), colThumb)
	}
	fill(rectFooterTop, colFooterTop)
	fill(rectFooter, colFooter)
}

func drawPanel(f *pixel.Frame, p fakePanel) {
	f.Fill(p.rect, colBorder)
	f.Fill(p.rect.Inset(1), colMenu)
	if p.hovered >= 0 {
		f.Fill(p.itemRect(p.hovered), colHighlight)
	}
	w := p.rect.Dx()
	for i := 0; i < p.items; i++ {
		if !p.hasChild(i) {
			continue
		}
		cy := p.rect.Min.Y + i*menuItem + menuItem/2
		for dx := 0; dx < 3; dx++ {
			x := p.rect.Min.X + w - 10 + dx
			half := 2 - dx
			for dy := -half; dy <= half; dy++ {
				f.Set(x, cy+dy, colGlyph)
			}
		}
	}
}

// rowAt returns the index of the row drawn under window point p.
func (m *fakeMixer) rowAt(p image.Point) (int, bool) {
	if p.Y < tableTop || p.Y >= tableBottom || p.X >= 390 {
		return 0, false
	}
	slot := (p.Y - tableTop) / rowPitch
	if (p.Y-tableTop)%rowPitch >= rowHeight || slot >= m.visible() {
		return 0, false
	}
	return m.scrollTop + slot, true
}

// Input

func (m *fakeMixer) MoveTo(x, y int) error {
	m.record("move %d,%d", x, y)
	m.pointer = image.Pt(x, y)
	m.hover()
	return nil
}

func (m *fakeMixer) hover() {
	for k := len(m.panels) - 1; k >= 0; k-- {
		p := m.panels[k]
		if !m.pointer.In(p.hoverArea()) {
			continue
		}
		item := min((m.pointer.Y-p.rect.Min.Y)/menuItem, p.items-1)
		if p.hovered == item {
			return
		}
		p.hovered = item
		m.panels = append(m.panels[:k], p)
		if p.hasChild(item) {
			m.panels = append(m.panels, p.child(item))
		}
		m.changed()
		return
	}
}

func (m *fakeMixer) Click() error {
	m.record("click")
	p := m.pointer
	if len(m.panels) > 0 {
		last := m.panels[len(m.panels)-1]
		if last.kind == controllerPanel && p.In(last.hoverArea()) && last.hovered >= 0 {
			m.commit()
		} else {
			for _, panel := range m.panels {
				if p.In(panel.rect) {
					return nil
				}
			}
		}
		m.panels = nil
		m.changed()
		return nil
	}

	w := p.Sub(m.client.Min)
	switch {
	case w.In(rectNewRow):
		m.rows = append(m.rows, fakeRow{})
	case w.Y >= tableTop && w.Y < tableBottom && w.X > 200 && w.X < 300:
		if len(m.rows) > 0 {
			m.rows = m.rows[1:]
			m.scrollTop = max(0, min(m.scrollTop, len(m.rows)-m.maxVisible))
		}
	case w.X > 100 && w.X < 200:
		if i, ok := m.rowAt(w); ok {
			m.menuRow = i
			panel := newPanel(devicePanel, p, m.devices+1)
			panel.rect.Max.X += m.widen
			m.panels = []fakePanel{panel}
		}
	case w.X > 300:
		if i, ok := m.rowAt(w); ok {
			m.editing, m.layer = i, 0
		}
	}
	m.changed()
	return nil
}

func (m *fakeMixer) commit() {
	if len(m.panels) != 4 {
		return
	}
	r := &m.rows[m.menuRow]
	r.device = m.panels[0].hovered
	r.channel = m.panels[1].hovered + 1
	r.cc = m.panels[2].hovered*16 + m.panels[3].hovered
}

func (m *fakeMixer) DragTo(x, y int) error {
	m.record("drag %d,%d", x, y)
	if m.scrolling() && m.pointer.Sub(m.client.Min).In(m.thumb()) {
		m.scrollTop = len(m.rows) - m.maxVisible
		m.changed()
	}
	m.pointer = image.Pt(x, y)
	return nil
}

func (m *fakeMixer) KeyDown(key string) error {
	m.record("keydown %s", key)
	return nil
}

func (m *fakeMixer) KeyUp(key string) error {
	m.record("keyup %s", key)
	return nil
}

func (m *fakeMixer) Press(key string) error {
	m.record("press %s", key)
	switch {
	case key == "escape" && len(m.panels) > 0:
		m.panels = m.panels[:len(m.panels)-1]
		m.changed()
	case m.editing < 0:
	case key == "down":
		m.layer++
	case key == "delete" && m.selected:
		if m.layer < 4 {
			m.rows[m.editing].layers[m.layer] = ""
		}
		m.selected = false
	case key == "enter":
		m.editing = -1
	}
	return nil
}

func (m *fakeMixer) Type(text string) error {
	m.record("type %s", text)
	if m.editing >= 0 && m.layer < 4 {
		m.rows[m.editing].layers[m.layer] += text
	}
	m.selected = false
	return nil
}

func (m *fakeMixer) Hotkey(keys ...string) error {
	combo := strings.Join(keys, "+")
	m.record("hotkey %s", combo)
	if m.editing >= 0 && combo == "ctrl+a" {
		m.selected = true
	}
	return nil
}

// testOrchestrator wires m into an Orchestrator with a clock that advances
// a quarter second on every reading and sleeps that return at once.
func testOrchestrator(t *testing.T, m *fakeMixer) (*Orchestrator, *[]string) {
	t.Helper()
	opts := DefaultOptions()
	opts.ActionPause = 0
	o := New(m, m, m, opts)
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	o.now = func() time.Time {
		clock = clock.Add(250 * time.Millisecond)
		return clock
	}
	o.sleep = func(time.Duration) {}
	reports := &[]string{}
	o.SetReporter(func(msg string) { *reports = append(*reports, msg) })
	return o, reports
}
