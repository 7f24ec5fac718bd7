package automate

import (
	"fmt"
	"image"
	"log"
	"strings"

	"midiautomate/internal/pixel"
)

// locate finds the mixer window and classifies it by title.
func (o *Orchestrator) locate(s *Session) error {
	windows, err := o.windows.Find(o.opts.TitlePrefix)
	if err != nil {
		return engineError(ReasonWindowNotFound, err)
	}
	if len(windows) == 0 {
		return engineError(ReasonWindowNotFound, nil)
	}
	s.Window = windows[0]

	switch {
	case strings.Contains(s.Window.Title, o.opts.StandaloneMarker):
		s.Mode = Standalone
	case strings.Contains(s.Window.Title, o.opts.ServerMarker):
		s.Mode = Server
	default:
		return engineError(ReasonUnknownWindow, fmt.Errorf("title %q", s.Window.Title))
	}
	log.Printf("Engine: Found %s window %q", s.Mode, s.Window.Title)
	return o.check(s)
}

// prepare maximizes and focuses the window, measures it, and resets the
// mixer's panel layout.
func (o *Orchestrator) prepare(s *Session) error {
	if err := o.windows.Maximize(s.Window); err != nil {
		return engineError(ReasonMaximize, err)
	}
	if err := o.check(s); err != nil {
		return err
	}
	if err := o.windows.Activate(s.Window); err != nil {
		return engineError(ReasonActivate, err)
	}
	if err := o.check(s); err != nil {
		return err
	}

	desktop, err := o.screen.Desktop()
	if err != nil {
		return engineError(ReasonCapture, err)
	}
	client, err := o.windows.ClientRect(s.Window)
	if err != nil {
		return engineError(ReasonGeometry, err)
	}
	if client.Empty() {
		return engineError(ReasonGeometry, fmt.Errorf("empty client area %v", client))
	}
	s.Desktop, s.Client = desktop, client
	log.Printf("Engine: Desktop %v, client area %v", desktop, client)

	img, err := o.captureWindow(s)
	if err != nil {
		return err
	}
	if s.Mode == Server && pixel.CountBands(img, image.Pt(0, 0), pixel.Down) == 1 {
		return engineError(ReasonNoInstance, nil)
	}
	if err := o.check(s); err != nil {
		return err
	}
	return o.resetLayout(s)
}

// resetLayout restores the default window arrangement and hides the
// channel, mixer and group settings panes.
func (o *Orchestrator) resetLayout(s *Session) error {
	err := o.withKeyHeld(s, "alt", func() error { return o.press(s, "h") })
	if err != nil {
		return err
	}
	keys := []string{"left"}
	for i := 0; i < 7; i++ {
		keys = append(keys, "down")
	}
	keys = append(keys, "enter", "f2", "f3")
	for _, key := range keys {
		if err := o.press(s, key); err != nil {
			return err
		}
	}

	others, err := o.windows.Find(o.opts.GroupSettingsTitle)
	if err != nil {
		log.Printf("Engine: Could not look for %q: %v", o.opts.GroupSettingsTitle, err)
	}
	for _, w := range others {
		if w.Title == o.opts.GroupSettingsTitle {
			return o.press(s, "f8")
		}
	}
	return nil
}

// openControllerTable clicks the control that shows the MIDI controller
// table: the fourth band down the right edge, then the third band leftward.
func (o *Orchestrator) openControllerTable(s *Session) error {
	img, err := o.captureWindow(s)
	if err != nil {
		return err
	}
	down, err := findBand(img, 3, image.Pt(img.Width()-1, 0), pixel.Down)
	if err != nil {
		return err
	}
	left, err := findBand(img, 2, image.Pt(img.Width()-1, down.Middle.Y), pixel.Left)
	if err != nil {
		return err
	}
	s.Entry = image.Pt(left.Middle.X, down.Middle.Y)
	return o.clickAt(s, s.toDesktop(s.Entry))
}

// emptyTableBands is the band count below the entry control when the
// controller table holds no rows.
const emptyTableBands = 4

// purge deletes the first row until the table is empty.
func (o *Orchestrator) purge(s *Session) error {
	img, err := o.captureWindow(s)
	if err != nil {
		return err
	}
	deleted := 0
	for pixel.CountBands(img, s.Entry, pixel.Down) > emptyTableBands {
		if deleted >= o.opts.PurgeLimit {
			return engineError(ReasonConfused, fmt.Errorf("table still not empty after %d deletions", deleted))
		}
		gap, err := findBand(img, 3, s.Entry, pixel.Down)
		if err != nil {
			return err
		}
		button, err := findBand(img, 2, image.Pt(s.Entry.X, gap.End.Y), pixel.Left)
		if err != nil {
			return err
		}
		if err := o.clickAt(s, s.toDesktop(image.Pt(button.Middle.X, gap.End.Y))); err != nil {
			return err
		}
		deleted++
		if img, err = o.captureWindow(s); err != nil {
			return err
		}
		if err := o.check(s); err != nil {
			return err
		}
	}
	log.Printf("Engine: Deleted %d existing rows", deleted)
	return nil
}

// newRowBand is the band down the left edge ending just above the
// new-row cell; server windows carry an extra instance strip.
func newRowBand(m Mode) int {
	if m == Server {
		return 6
	}
	return 4
}

// probe appends the first row, measures the cascading menus from its
// device cell, closes them, and records the table baseline.
func (o *Orchestrator) probe(s *Session) error {
	img, err := o.captureWindow(s)
	if err != nil {
		return err
	}
	edge, err := findBand(img, newRowBand(s.Mode), image.Pt(0, 0), pixel.Down)
	if err != nil {
		return err
	}
	header, err := findBand(img, 0, image.Pt(0, edge.End.Y), pixel.Right)
	if err != nil {
		return err
	}
	cell, err := findBand(img, 3, image.Pt(header.Middle.X, edge.End.Y), pixel.Down)
	if err != nil {
		return err
	}
	s.NewRow = image.Pt(header.Middle.X, cell.Middle.Y)
	if err := o.clickAt(s, s.toDesktop(s.NewRow)); err != nil {
		return err
	}

	if img, err = o.captureWindow(s); err != nil {
		return err
	}
	first, err := findBand(img, 4, s.NewRow, pixel.Down)
	if err != nil {
		return err
	}
	if err := o.moveTo(s, s.toDesktop(image.Pt(s.NewRow.X, first.Middle.Y))); err != nil {
		return err
	}
	before, err := o.captureDesktop(s)
	if err != nil {
		return err
	}
	reference := before.ColorAt(s.Pointer.X-s.Desktop.Min.X, s.Pointer.Y-s.Desktop.Min.Y)
	if err := o.click(s); err != nil {
		return err
	}
	if err := o.waitForMenuOpen(s, reference); err != nil {
		return err
	}
	after, err := o.captureDesktop(s)
	if err != nil {
		return err
	}

	if s.Geometry, err = o.measureMenus(s, before, after); err != nil {
		return err
	}
	for i := 0; i < 4; i++ {
		if err := o.press(s, "escape"); err != nil {
			return err
		}
	}
	return o.baseline(s)
}

// baseline records where rows are clicked and what the first row looks like
// while no scrollbar is shown.
func (o *Orchestrator) baseline(s *Session) error {
	img, err := o.captureWindow(s)
	if err != nil {
		return err
	}
	first, err := findBand(img, 4, s.NewRow, pixel.Down)
	if err != nil {
		return err
	}
	top := image.Pt(s.NewRow.X, first.Start.Y)
	left, err := findBand(img, 0, top, pixel.Left)
	if err != nil {
		return err
	}
	right, err := findBand(img, 0, top, pixel.Right)
	if err != nil {
		return err
	}
	dest, err := findBand(img, 4, top, pixel.Right)
	if err != nil {
		return err
	}
	bottom, err := findBand(img, 0, image.Pt(img.Width()-1, img.Height()-1), pixel.Up)
	if err != nil {
		return err
	}

	s.Layout = Baseline{
		FirstRowTop:  first.Start.Y,
		FirstRowY:    first.Middle.Y,
		DeviceX:      (left.End.X + right.End.X) / 2,
		DestinationX: dest.Middle.X,
		BottomY:      bottom.End.Y,
		TopRowBands:  pixel.CountBands(img, image.Pt(0, first.Start.Y), pixel.Right),
	}
	log.Printf("Engine: Baseline %+v", s.Layout)
	return o.check(s)
}

