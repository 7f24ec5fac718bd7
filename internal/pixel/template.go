package pixel

import "image"

// MatchesAt reports whether tpl is pixel-identical to img at offset at.
func MatchesAt(img, tpl Image, at image.Point) bool {
	if at.X < 0 || at.Y < 0 || at.X+tpl.Width() > img.Width() || at.Y+tpl.Height() > img.Height() {
		return false
	}
	for y := 0; y < tpl.Height(); y++ {
		for x := 0; x < tpl.Width(); x++ {
			if img.ColorAt(at.X+x, at.Y+y) != tpl.ColorAt(x, y) {
				return false
			}
		}
	}
	return true
}

// FindAll returns the top-left corner of every exact occurrence of tpl in
// img, column by column from the left and top to bottom within a column.
func FindAll(img, tpl Image) []image.Point {
	var hits []image.Point
	for x := 0; x+tpl.Width() <= img.Width(); x++ {
		for y := 0; y+tpl.Height() <= img.Height(); y++ {
			at := image.Pt(x, y)
			if MatchesAt(img, tpl, at) {
				hits = append(hits, at)
			}
		}
	}
	return hits
}
