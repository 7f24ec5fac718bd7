// Package pixel provides the screen-pixel primitives the automation engine
// works with: colors, captured frames, color bands, change regions and
// panel fingerprints.
package pixel

import "fmt"

// Color is an 8-bit RGB triple. Captures never carry alpha.
type Color struct {
	R, G, B uint8
}

// RGB builds a Color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Distance is the channel-wise sum of absolute differences.
func (c Color) Distance(o Color) int {
	return absDiff(c.R, o.R) + absDiff(c.G, o.G) + absDiff(c.B, o.B)
}

// Matches reports whether o is closer to c than tolerance.
// A tolerance of zero or less means exact equality.
func (c Color) Matches(o Color, tolerance int) bool {
	if tolerance <= 0 {
		return c == o
	}
	return c.Distance(o) < tolerance
}

// Luma is the 8-bit ITU-R 601 luminance of the color.
func (c Color) Luma() int {
	return int((uint32(c.R)*19595 + uint32(c.G)*38470 + uint32(c.B)*7471 + 1<<15) >> 16)
}

func (c Color) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
