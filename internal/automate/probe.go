package automate

import (
	"errors"
	"fmt"
	"image"
	"log"

	"midiautomate/internal/pixel"
)

var errNoGlyph = errors.New("no submenu glyph in device menu")

// MenuGeometry is the measured layout of the four cascading selection
// menus. It is probed once and reused for every row.
type MenuGeometry struct {
	ItemHeight int

	DeviceWidth     int
	ChannelWidth    int
	GroupWidth      int
	ControllerWidth int

	// Devices holds, for device i+1, the offset of its submenu glyph from
	// the device panel's top-left corner.
	Devices []image.Point
	// DevicesPerColumn counts devices in each column of the device panel.
	DevicesPerColumn []int

	// Highlight is the hover color of a menu item.
	Highlight pixel.Color
	// DevicePanel fingerprints the device menu as first opened.
	DevicePanel pixel.Fingerprint
}

// TotalWidth is the horizontal space the fully expanded menu occupies.
func (g MenuGeometry) TotalWidth() int {
	return g.DeviceWidth + g.ChannelWidth + g.GroupWidth + g.ControllerWidth
}

// Columns is the number of device columns.
func (g MenuGeometry) Columns() int {
	return len(g.DevicesPerColumn)
}

// DeviceOffset returns where to hover for the 1-based device.
func (g MenuGeometry) DeviceOffset(device int) (image.Point, bool) {
	if device < 1 || device > len(g.Devices) {
		return image.Point{}, false
	}
	return g.Devices[device-1], true
}

// itemOffset is the vertical center of the index-th item of a panel.
func (g MenuGeometry) itemOffset(index int) int {
	return (2*index + 1) * g.ItemHeight / 2
}

// submenuGlyph cuts the "has submenu" arrow out of a device panel. The
// rightmost column holding a third color band down from the top edge meets
// the arrow's tip; from there the glyph is grown until the item background
// surrounds it, and returned with a one-pixel background margin.
func submenuGlyph(panel pixel.Image) (*pixel.Frame, error) {
	w, h := panel.Width(), panel.Height()
	for x := w - 1; x > 0; x-- {
		b := pixel.FindBand(panel, 2, image.Pt(x, 0), pixel.Down)
		if !b.Found() {
			continue
		}
		tip := b.Start
		if tip.X+1 >= w {
			continue
		}
		background := panel.ColorAt(tip.X+1, tip.Y)

		left := tip.X
		for left > 0 && panel.ColorAt(left-1, tip.Y) != background {
			left--
		}
		top := tip.Y
		for top > 0 && panel.ColorAt(left, top-1) != background {
			top--
		}
		bottom := tip.Y
		for bottom < h-1 && panel.ColorAt(left, bottom+1) != background {
			bottom++
		}

		r := image.Rect(left-1, top-1, tip.X+2, bottom+2)
		if !r.In(pixel.Bounds(panel)) {
			return nil, fmt.Errorf("glyph at %v touches the panel edge", tip)
		}
		return pixel.Crop(panel, r), nil
	}
	return nil, errNoGlyph
}

// locateDevices finds every item carrying glyph, in column order, and
// counts items per column.
func locateDevices(panel, glyph pixel.Image) ([]image.Point, []int) {
	hits := pixel.FindAll(panel, glyph)
	var perColumn []int
	for i, p := range hits {
		if i == 0 || p.X != hits[i-1].X {
			perColumn = append(perColumn, 0)
		}
		perColumn[len(perColumn)-1]++
	}
	return hits, perColumn
}

// itemHeight derives the height of one menu item. The device panel holds
// one item without a submenu above the devices.
func itemHeight(panelHeight, firstColumn int) int {
	return panelHeight / (firstColumn + 1)
}

// measureMenus probes the menu geometry. before and after are desktop
// captures taken either side of the click that opened the device menu.
func (o *Orchestrator) measureMenus(s *Session, before, after pixel.Image) (MenuGeometry, error) {
	var g MenuGeometry

	region, err := o.changedRegion(before, after, false)
	if err != nil {
		return g, err
	}
	panel := pixel.Crop(after, region)

	glyph, err := submenuGlyph(panel)
	if err != nil {
		return g, engineError(ReasonConfused, err)
	}
	g.Devices, g.DevicesPerColumn = locateDevices(panel, glyph)
	if len(g.Devices) == 0 {
		return g, engineError(ReasonConfused, errNoGlyph)
	}
	g.ItemHeight = itemHeight(panel.Height(), g.DevicesPerColumn[0])
	if g.ItemHeight < 2 {
		return g, engineError(ReasonConfused, fmt.Errorf("item height %d", g.ItemHeight))
	}
	g.DeviceWidth = region.Dx()
	if g.DevicePanel, err = pixel.NewFingerprint(panel); err != nil {
		log.Printf("Engine: Device menu fingerprint unavailable: %v", err)
	}
	log.Printf("Engine: Device menu %dx%d, %d devices in %d columns, item height %d",
		region.Dx(), region.Dy(), len(g.Devices), g.Columns(), g.ItemHeight)

	// The first item has no submenu; hovering it reveals the highlight color.
	origin := s.Desktop.Min.Add(region.Min)
	x := origin.X + g.DeviceWidth/g.Columns()/2
	if err := o.moveTo(s, image.Pt(x, origin.Y+g.itemOffset(0))); err != nil {
		return g, err
	}
	sample, err := o.capture(image.Rectangle{Min: s.Pointer, Max: s.Pointer.Add(image.Pt(1, 1))})
	if err != nil {
		return g, err
	}
	g.Highlight = sample.ColorAt(0, 0)

	if err := o.moveTo(s, image.Pt(x, origin.Y+g.itemOffset(1))); err != nil {
		return g, err
	}
	if err := o.waitForHoverHighlight(s, g.Highlight, g.ItemHeight); err != nil {
		return g, err
	}

	base := after
	widths := []*int{&g.ChannelWidth, &g.GroupWidth, &g.ControllerWidth}
	for level, width := range widths {
		next, err := o.captureDesktop(s)
		if err != nil {
			return g, err
		}
		r, err := o.changedRegion(base, next, true)
		if err != nil {
			return g, err
		}
		*width = r.Dx()
		if level == len(widths)-1 {
			break
		}

		first := s.Desktop.Min.Add(image.Pt(r.Min.X+r.Dx()/2, r.Min.Y+g.itemOffset(0)))
		if err := o.moveTo(s, first); err != nil {
			return g, err
		}
		if err := o.waitForHoverHighlight(s, g.Highlight, g.ItemHeight); err != nil {
			return g, err
		}
		base = next
	}

	log.Printf("Engine: Menu widths %d/%d/%d/%d", g.DeviceWidth, g.ChannelWidth, g.GroupWidth, g.ControllerWidth)
	return g, nil
}
