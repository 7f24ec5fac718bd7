//go:build !windows

package screen

import "image"

type stubBackend struct{}

func newBackend() backend { return stubBackend{} }

func (stubBackend) bounds() (image.Rectangle, error) { return image.Rectangle{}, ErrUnsupported }

func (stubBackend) grab(image.Rectangle) (*image.RGBA, error) { return nil, ErrUnsupported }
