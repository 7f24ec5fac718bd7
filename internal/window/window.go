// Package window finds, arranges and measures top-level desktop windows.
package window

import (
	"errors"
	"strings"
)

// ErrUnsupported is returned on platforms without a window backend.
var ErrUnsupported = errors.New("window: not supported on this platform")

// Window identifies a top-level window.
type Window struct {
	Handle uintptr
	Title  string
}

// Provider talks to the platform window manager.
type Provider struct{}

// NewProvider creates a window provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Find returns the windows whose title starts with titlePrefix.
func (p *Provider) Find(titlePrefix string) ([]Window, error) {
	all, err := p.list()
	if err != nil {
		return nil, err
	}
	return filterTitles(all, titlePrefix), nil
}

// filterTitles keeps the windows whose title starts with prefix, preserving
// the platform's front-to-back order.
func filterTitles(all []Window, prefix string) []Window {
	var out []Window
	for _, w := range all {
		if w.Title != "" && strings.HasPrefix(w.Title, prefix) {
			out = append(out, w)
		}
	}
	return out
}
