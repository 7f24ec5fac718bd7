package pixel

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrNoChange means two captures are identical at the given threshold.
	ErrNoChange = errors.New("pixel: no changed pixels")

	// ErrNoPanelEdge means LastPanel found no left edge inside the region.
	ErrNoPanelEdge = errors.New("pixel: no panel edge found")
)

// Changed reports whether any channel of a and b differs by more than threshold.
func Changed(a, b Color, threshold int) bool {
	return absDiff(a.R, b.R) > threshold ||
		absDiff(a.G, b.G) > threshold ||
		absDiff(a.B, b.B) > threshold
}

// ChangedRegion returns the bounding box of what changed between two
// captures of the same size. The horizontal extent is the widest run of
// adjacent columns holding at least one changed pixel (the leftmost run wins
// a tie); the vertical extent spans the changed pixels inside that run.
func ChangedRegion(before, after Image, threshold int) (image.Rectangle, error) {
	w, h := before.Width(), before.Height()
	if after.Width() != w || after.Height() != h {
		return image.Rectangle{}, fmt.Errorf("pixel: capture sizes differ: %dx%d vs %dx%d",
			w, h, after.Width(), after.Height())
	}

	top := make([]int, w)
	bottom := make([]int, w)
	for x := 0; x < w; x++ {
		top[x], bottom[x] = -1, -1
		for y := 0; y < h; y++ {
			if Changed(before.ColorAt(x, y), after.ColorAt(x, y), threshold) {
				if top[x] < 0 {
					top[x] = y
				}
				bottom[x] = y
			}
		}
	}

	bestLeft, bestWidth := -1, 0
	for x := 0; x < w; {
		if top[x] < 0 {
			x++
			continue
		}
		start := x
		for x < w && top[x] >= 0 {
			x++
		}
		if x-start > bestWidth {
			bestLeft, bestWidth = start, x-start
		}
	}
	if bestLeft < 0 {
		return image.Rectangle{}, ErrNoChange
	}

	r := image.Rectangle{
		Min: image.Pt(bestLeft, h),
		Max: image.Pt(bestLeft+bestWidth, 0),
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		r.Min.Y = min(r.Min.Y, top[x])
		r.Max.Y = max(r.Max.Y, bottom[x]+1)
	}
	return r, nil
}

// LastPanel narrows region to the right-most of several panels opened side
// by side. Within a panel the top border and the row beneath it contrast by
// at least minContrast in luminance; scanning leftward from the right edge,
// the first column where that contrast disappears is the panel's left edge.
func LastPanel(img Image, region image.Rectangle, minContrast int) (image.Rectangle, error) {
	if region.Dx() < 3 || region.Dy() < 2 {
		return image.Rectangle{}, fmt.Errorf("%w: region %v too small", ErrNoPanelEdge, region)
	}
	top := region.Min.Y
	for x := region.Max.X - 2; x > region.Min.X; x-- {
		below := img.ColorAt(x-1, top+1).Luma()
		border := img.ColorAt(x, top).Luma()
		d := below - border
		if d < 0 {
			d = -d
		}
		if d < minContrast {
			return image.Rect(x-1, region.Min.Y, region.Max.X, region.Max.Y), nil
		}
	}
	return image.Rectangle{}, ErrNoPanelEdge
}
