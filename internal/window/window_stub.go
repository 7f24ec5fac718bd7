//go:build !windows

package window

import (
	"fmt"
	"image"
	"runtime"
)

func (p *Provider) list() ([]Window, error) {
	return nil, fmt.Errorf("%w (%s)", ErrUnsupported, runtime.GOOS)
}

// Maximize is unsupported here.
func (p *Provider) Maximize(w Window) error { return ErrUnsupported }

// Activate is unsupported here.
func (p *Provider) Activate(w Window) error { return ErrUnsupported }

// ClientRect is unsupported here.
func (p *Provider) ClientRect(w Window) (image.Rectangle, error) {
	return image.Rectangle{}, ErrUnsupported
}
