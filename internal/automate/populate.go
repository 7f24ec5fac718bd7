package automate

import (
	"errors"
	"fmt"
	"image"
	"log"

	"midiautomate/internal/pixel"
)

var errNoThumb = errors.New("scrollbar thumb not found")

// populate writes one row: it appends a table row when needed, picks the
// device, channel and controller through the cascading menus, then types
// the destination layers.
func (o *Orchestrator) populate(s *Session, index int, row Row) error {
	if index > 0 {
		if err := o.clickAt(s, s.toDesktop(s.NewRow)); err != nil {
			return err
		}
		if err := o.followScrollbar(s); err != nil {
			return err
		}
	}

	img, err := o.captureWindow(s)
	if err != nil {
		return err
	}
	last, err := findBand(img, 3, image.Pt(s.NewRow.X, s.Layout.BottomY), pixel.Up)
	if err != nil {
		return err
	}
	rowY := last.Middle.Y

	if err := o.selectController(s, rowY, row); err != nil {
		return err
	}
	return o.enterDestination(s, rowY, row)
}

// followScrollbar notices when the table starts scrolling and, from then on,
// drags the thumb to the bottom so the newest row is visible.
func (o *Orchestrator) followScrollbar(s *Session) error {
	img, err := o.captureWindow(s)
	if err != nil {
		return err
	}
	if !s.Scrollbar.Active {
		bands := pixel.CountBands(img, image.Pt(0, s.Layout.FirstRowTop), pixel.Right)
		if bands == s.Layout.TopRowBands {
			return nil
		}
		bar, err := findBand(img, 1, image.Pt(img.Width()-1, s.Layout.FirstRowY), pixel.Left)
		if err != nil {
			return err
		}
		s.Scrollbar = Scrollbar{Active: true, X: bar.Middle.X}
		log.Printf("Engine: Scrollbar appeared at x=%d", s.Scrollbar.X)
	}
	return o.scrollToBottom(s, img)
}

// scrollToBottom finds the thumb below the new-row cell and drags it to
// the bottom edge of the window.
func (o *Orchestrator) scrollToBottom(s *Session, img pixel.Image) error {
	x := s.Scrollbar.X
	track := img.ColorAt(x, s.NewRow.Y)
	start, end := -1, -1
	for y := s.NewRow.Y; y < img.Height(); y++ {
		same := track.Matches(img.ColorAt(x, y), o.opts.MatchDistance)
		if start < 0 && !same {
			start = y
		} else if start >= 0 && same {
			end = y
			break
		}
	}
	if start < 0 || end < 0 {
		return engineError(ReasonConfused, errNoThumb)
	}
	thumb := (start + end) / 2
	if err := o.moveTo(s, s.toDesktop(image.Pt(x, thumb+1))); err != nil {
		return err
	}
	return o.dragTo(s, s.toDesktop(image.Pt(x, img.Height()-1)))
}

// selectController opens the device menu of the row at rowY and walks it
// down to the row's controller.
func (o *Orchestrator) selectController(s *Session, rowY int, row Row) error {
	g := s.Geometry
	cell := s.toDesktop(image.Pt(s.Layout.DeviceX, rowY))
	if err := o.moveTo(s, cell); err != nil {
		return err
	}
	menus := image.Rect(cell.X, s.Desktop.Min.Y, cell.X+g.TotalWidth(), s.Desktop.Max.Y)
	if !s.Desktop.Empty() {
		menus = menus.Intersect(s.Desktop)
	}

	closed, err := o.capture(menus)
	if err != nil {
		return err
	}
	reference := closed.ColorAt(s.Pointer.X-menus.Min.X, s.Pointer.Y-menus.Min.Y)
	if err := o.click(s); err != nil {
		return err
	}
	if err := o.waitForMenuOpen(s, reference); err != nil {
		return err
	}
	opened, err := o.capture(menus)
	if err != nil {
		return err
	}
	panel, err := o.changedRegion(closed, opened, false)
	if err != nil {
		return err
	}
	if err := o.checkDrift(g, pixel.Crop(opened, panel)); err != nil {
		return err
	}

	device, ok := g.DeviceOffset(row.Device)
	if !ok {
		return engineError(ReasonConfused, fmt.Errorf("device %d not in menu of %d devices", row.Device, len(g.Devices)))
	}
	if err := o.moveTo(s, menus.Min.Add(panel.Min).Add(device)); err != nil {
		return err
	}
	if err := o.waitForHoverHighlight(s, g.Highlight, g.ItemHeight); err != nil {
		return err
	}

	levels := []struct{ width, index int }{
		{g.ChannelWidth, row.Channel - 1},
		{g.GroupWidth, row.ControllerGroup()},
		{g.ControllerWidth, row.GroupPosition()},
	}
	prev := opened
	for _, level := range levels {
		next, err := o.capture(menus)
		if err != nil {
			return err
		}
		r, err := o.changedRegion(prev, next, true)
		if err != nil {
			return err
		}
		item := image.Pt(r.Min.X+level.width/2, r.Min.Y+g.itemOffset(level.index))
		if err := o.moveTo(s, menus.Min.Add(item)); err != nil {
			return err
		}
		if err := o.waitForHoverHighlight(s, g.Highlight, g.ItemHeight); err != nil {
			return err
		}
		prev = next
	}
	return o.click(s)
}

// checkDrift compares a freshly opened device menu against the one
// measured during probing.
func (o *Orchestrator) checkDrift(probed MenuGeometry, panel pixel.Image) error {
	if !probed.DevicePanel.Valid() || o.opts.DriftTolerance <= 0 {
		return nil
	}
	if panel.Width() != probed.DeviceWidth {
		return engineError(ReasonLayoutChanged, fmt.Errorf("device menu is %dpx wide, measured %dpx", panel.Width(), probed.DeviceWidth))
	}
	now, err := pixel.NewFingerprint(panel)
	if err != nil {
		return engineError(ReasonCapture, err)
	}
	d, err := probed.DevicePanel.Distance(now)
	if err != nil {
		return engineError(ReasonCapture, err)
	}
	if d > o.opts.DriftTolerance {
		return engineError(ReasonLayoutChanged, fmt.Errorf("device menu fingerprint distance %d", d))
	}
	return nil
}

// enterDestination opens the row's destination editor and types its layers.
func (o *Orchestrator) enterDestination(s *Session, rowY int, row Row) error {
	if err := o.clickAt(s, s.toDesktop(image.Pt(s.Layout.DestinationX, rowY))); err != nil {
		return err
	}
	return o.keystrokes(s, row.entryScript())
}
