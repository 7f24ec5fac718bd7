// Package screen captures desktop pixels for the automation engine.
package screen

import (
	"errors"
	"fmt"
	"image"

	"midiautomate/internal/pixel"
)

// ErrUnsupported is returned on platforms without a capture backend.
var ErrUnsupported = errors.New("screen: capture not supported on this platform")

// backend implements platform-specific raw capture.
type backend interface {
	bounds() (image.Rectangle, error)
	grab(r image.Rectangle) (*image.RGBA, error)
}

// Provider captures regions of the virtual desktop.
type Provider struct {
	backend
}

// New creates a capture provider for the current platform.
func New() *Provider {
	return &Provider{backend: newBackend()}
}

// Desktop returns the virtual desktop rectangle. Its origin may be negative
// when a monitor sits left of or above the primary one.
func (p *Provider) Desktop() (image.Rectangle, error) {
	return p.bounds()
}

// Capture snapshots r, given in desktop coordinates. Pixel (0,0) of the
// result is r.Min.
func (p *Provider) Capture(r image.Rectangle) (pixel.Image, error) {
	if r.Empty() {
		return nil, fmt.Errorf("screen: empty capture rectangle %v", r)
	}
	img, err := p.grab(r)
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() != r.Dx() || img.Bounds().Dy() != r.Dy() {
		return nil, fmt.Errorf("screen: captured %v for %v", img.Bounds(), r)
	}
	return pixel.FromImage(img), nil
}
