package automate

import (
	"image"

	"midiautomate/internal/pixel"
)

// poll evaluates cond until it holds or the wait timeout passes. The abort
// flag is checked on every iteration and again once the wait ends, so a
// cancelled run always reports Aborted rather than a timeout.
func (o *Orchestrator) poll(s *Session, cond func() (bool, error)) error {
	deadline := o.now().Add(o.opts.WaitTimeout)
	for {
		ok, err := cond()
		if abortErr := o.check(s); abortErr != nil {
			return abortErr
		}
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !o.now().Before(deadline) {
			return engineError(ReasonTimeout, nil)
		}
		o.sleep(o.opts.PollInterval)
	}
}

// waitForMenuOpen blocks until the pixel under the pointer no longer shows
// reference, the color sampled there before the click.
func (o *Orchestrator) waitForMenuOpen(s *Session, reference pixel.Color) error {
	spot := image.Rectangle{Min: s.Pointer, Max: s.Pointer.Add(image.Pt(1, 1))}
	return o.poll(s, func() (bool, error) {
		img, err := o.capture(spot)
		if err != nil {
			return false, err
		}
		return img.ColorAt(0, 0) != reference, nil
	})
}

// waitForHoverHighlight blocks until the menu item under the pointer shows
// the selection color. The highlighted row may sit a few pixels off the
// pointer, so half an item above and below are sampled too.
func (o *Orchestrator) waitForHoverHighlight(s *Session, selection pixel.Color, itemHeight int) error {
	half := itemHeight / 2
	strip := image.Rect(s.Pointer.X, s.Pointer.Y-half, s.Pointer.X+1, s.Pointer.Y+half+1)
	if !s.Desktop.Empty() {
		strip = strip.Intersect(s.Desktop)
	}
	return o.poll(s, func() (bool, error) {
		img, err := o.capture(strip)
		if err != nil {
			return false, err
		}
		center := s.Pointer.Y - strip.Min.Y
		for offset := 0; offset <= half; offset++ {
			for _, y := range [2]int{center + offset, center - offset} {
				if y < 0 || y >= img.Height() {
					continue
				}
				if selection.Matches(img.ColorAt(0, y), o.opts.MatchDistance) {
					return true, nil
				}
			}
		}
		return false, nil
	})
}
