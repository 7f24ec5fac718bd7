package pixel

import (
	"image"
	"image/color"
	"image/draw"
)

// Image is the capability every captured pixel grid offers.
type Image interface {
	Width() int
	Height() int
	ColorAt(x, y int) Color
}

// Frame is an Image backed by an *image.RGBA whose origin is (0,0).
type Frame struct {
	rgba *image.RGBA
}

// NewFrame allocates a black frame of the given size.
func NewFrame(width, height int) *Frame {
	return &Frame{rgba: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// FromImage copies any image.Image into a Frame anchored at (0,0).
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy())
	draw.Draw(f.rgba, f.rgba.Bounds(), img, b.Min, draw.Src)
	return f
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.rgba.Rect.Dx() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.rgba.Rect.Dy() }

// ColorAt returns the pixel at (x, y). Out-of-range coordinates yield black.
func (f *Frame) ColorAt(x, y int) Color {
	if x < 0 || y < 0 || x >= f.Width() || y >= f.Height() {
		return Color{}
	}
	i := f.rgba.PixOffset(x, y)
	p := f.rgba.Pix[i : i+3 : i+3]
	return Color{R: p[0], G: p[1], B: p[2]}
}

// Set paints one pixel.
func (f *Frame) Set(x, y int, c Color) {
	f.rgba.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
}

// Fill paints every pixel of r that lies inside the frame.
func (f *Frame) Fill(r image.Rectangle, c Color) {
	r = r.Intersect(f.rgba.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			f.Set(x, y, c)
		}
	}
}

// RGBA exposes the backing image.
func (f *Frame) RGBA() *image.RGBA { return f.rgba }

// Bounds returns the rectangle covered by img.
func Bounds(img Image) image.Rectangle {
	return image.Rect(0, 0, img.Width(), img.Height())
}

// Inside reports whether p addresses a pixel of img.
func Inside(img Image, p image.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < img.Width() && p.Y < img.Height()
}

// Crop copies r out of img. The part of r outside img is dropped.
func Crop(img Image, r image.Rectangle) *Frame {
	r = r.Intersect(Bounds(img))
	out := NewFrame(r.Dx(), r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			out.Set(x-r.Min.X, y-r.Min.Y, img.ColorAt(x, y))
		}
	}
	return out
}

// ToRGBA converts img for use with image libraries.
func ToRGBA(img Image) *image.RGBA {
	if f, ok := img.(*Frame); ok {
		return f.rgba
	}
	return Crop(img, Bounds(img)).rgba
}
