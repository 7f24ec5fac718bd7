// Package input simulates mouse and keyboard input.
package input

import (
	"errors"
	"time"
)

// ErrUnsupported is returned on platforms without an input backend.
var ErrUnsupported = errors.New("input: injection not supported on this platform")

// Default pauses between the steps of a compound gesture.
const (
	DefaultDragPause = 50 * time.Millisecond
	DefaultDragSteps = 8
)

// Injector sends input to the foreground application. Coordinates are
// virtual-desktop pixels.
type Injector struct {
	// DragPause is slept between the steps of a drag so the target sees a
	// continuous motion rather than a jump.
	DragPause time.Duration
	DragSteps int
}

// NewInjector creates an injector with default gesture timing.
func NewInjector() *Injector {
	return &Injector{DragPause: DefaultDragPause, DragSteps: DefaultDragSteps}
}

// Press taps a named key.
func (i *Injector) Press(key string) error {
	if err := i.KeyDown(key); err != nil {
		return err
	}
	return i.KeyUp(key)
}

// Hotkey presses keys in order and releases them in reverse.
func (i *Injector) Hotkey(keys ...string) error {
	for n, key := range keys {
		if err := i.KeyDown(key); err != nil {
			for j := n - 1; j >= 0; j-- {
				i.KeyUp(keys[j])
			}
			return err
		}
	}
	var err error
	for j := len(keys) - 1; j >= 0; j-- {
		if upErr := i.KeyUp(keys[j]); upErr != nil && err == nil {
			err = upErr
		}
	}
	return err
}

// DragTo holds the left button from the current pointer position to (x, y).
func (i *Injector) DragTo(x, y int) error {
	fromX, fromY, err := i.position()
	if err != nil {
		return err
	}
	if err := i.button(true); err != nil {
		return err
	}
	steps := max(i.DragSteps, 1)
	for s := 1; s <= steps; s++ {
		stepX := fromX + (x-fromX)*s/steps
		stepY := fromY + (y-fromY)*s/steps
		if err := i.MoveTo(stepX, stepY); err != nil {
			i.button(false)
			return err
		}
		time.Sleep(i.DragPause)
	}
	return i.button(false)
}

// Click presses and releases the left button where the pointer is.
func (i *Injector) Click() error {
	if err := i.button(true); err != nil {
		return err
	}
	return i.button(false)
}
