package pixel

import "image"

// Scan directions.
var (
	Up    = image.Point{X: 0, Y: -1}
	Down  = image.Point{X: 0, Y: 1}
	Left  = image.Point{X: -1, Y: 0}
	Right = image.Point{X: 1, Y: 0}
)

// Band is a maximal run of one exact color along a scan ray.
// Start is the first pixel of the run in scan order, End the last.
type Band struct {
	Start  image.Point
	Middle image.Point
	End    image.Point
}

// NoBand is returned when the requested band does not exist.
var NoBand = Band{
	Start:  image.Point{X: -1, Y: -1},
	Middle: image.Point{X: -1, Y: -1},
	End:    image.Point{X: -1, Y: -1},
}

// Found reports whether b is a real band.
func (b Band) Found() bool {
	return b != NoBand
}

// CountBands walks from start in steps of dir until it leaves img and
// returns how many color runs it crossed.
func CountBands(img Image, start, dir image.Point) int {
	count := 0
	var prev Color
	for p := start; Inside(img, p); p = p.Add(dir) {
		c := img.ColorAt(p.X, p.Y)
		if count == 0 || c != prev {
			count++
			prev = c
		}
	}
	return count
}

// FindBand returns the n-th (zero based) band along the ray from start.
// A band only counts once the next band begins, so a run cut off by the
// image edge is reported as NoBand.
func FindBand(img Image, n int, start, dir image.Point) Band {
	if n < 0 || !Inside(img, start) {
		return NoBand
	}
	index := -1
	bandStart := start
	prev := img.ColorAt(start.X, start.Y)
	last := start
	for p := start; Inside(img, p); p = p.Add(dir) {
		c := img.ColorAt(p.X, p.Y)
		if index == -1 || c != prev {
			if index == n {
				return Band{
					Start:  bandStart,
					Middle: image.Pt((bandStart.X+last.X)/2, (bandStart.Y+last.Y)/2),
					End:    last,
				}
			}
			index++
			bandStart = p
			prev = c
		}
		last = p
	}
	return NoBand
}
