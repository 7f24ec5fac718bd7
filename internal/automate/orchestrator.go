// Package automate drives the mixer's MIDI controller table through
// simulated input, steering by what is visible on screen.
package automate

import (
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"midiautomate/internal/pixel"
)

const bullet = "▸"

// Orchestrator runs the automation phases in order. One Orchestrator must
// not run twice concurrently.
type Orchestrator struct {
	windows Windows
	screen  Screen
	input   Input
	opts    Options
	report  func(string)

	now   func() time.Time
	sleep func(time.Duration)
}

// New creates an Orchestrator over the given providers.
func New(windows Windows, screen Screen, input Input, opts Options) *Orchestrator {
	return &Orchestrator{
		windows: windows,
		screen:  screen,
		input:   input,
		opts:    opts,
		report:  func(string) {},
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// SetReporter sets the callback receiving progress text. It is called on
// the goroutine executing Run.
func (o *Orchestrator) SetReporter(fn func(string)) {
	if fn == nil {
		fn = func(string) {}
	}
	o.report = fn
}

// Run writes rows into the controller table and reports how it ended.
func (o *Orchestrator) Run(rows []Row, abort AbortSignal) Outcome {
	if len(rows) == 0 {
		o.report("No rows found in the CSV.")
		return Outcome{Status: Completed}
	}
	for i, row := range rows {
		if err := row.Validate(); err != nil {
			out := Outcome{Status: Failed, Reason: fmt.Sprintf("Row %d is invalid: %v.", i+1, err), Err: err}
			o.report(out.Reason)
			return out
		}
	}

	s := newSession(abort)
	err := o.run(s, rows)
	elapsed := time.Duration(0)
	if !s.Started.IsZero() {
		elapsed = o.now().Sub(s.Started)
	}
	out := outcomeOf(err, s.Done, elapsed)

	switch out.Status {
	case Completed:
		log.Printf("Engine: Wrote %d rows in %s", out.Rows, elapsed)
		o.report(fmt.Sprintf("Total time = %s.", formatDuration(elapsed)))
		o.report(fmt.Sprintf("Average time per row ≈ %.2f seconds.", out.Average().Seconds()))
		o.report("All done.")
	case Aborted:
		log.Printf("Engine: Aborted after %d rows", out.Rows)
		o.report(out.Reason)
	case Failed:
		log.Printf("Engine: Run failed after %d rows: %v", out.Rows, out.Err)
		o.report(out.Reason)
	}
	return out
}

func (o *Orchestrator) run(s *Session, rows []Row) error {
	o.report(bullet + " locating and preparing VEP")
	if err := o.locate(s); err != nil {
		return err
	}
	if err := o.prepare(s); err != nil {
		return err
	}
	if err := o.openControllerTable(s); err != nil {
		return err
	}

	o.report(bullet + " deleting current rows")
	if err := o.purge(s); err != nil {
		return err
	}

	o.report(bullet + " investigating layout")
	if err := o.probe(s); err != nil {
		return err
	}

	o.report(fmt.Sprintf("%s inputting data for %d rows", bullet, len(rows)))
	s.Started = o.now()
	for i, row := range rows {
		if err := o.populate(s, i, row); err != nil {
			return err
		}
		s.Done++
		o.report(progressLine(s.Done, len(rows), o.now().Sub(s.Started), row))
	}
	return nil
}

// check returns an AbortError once cancellation has been requested.
func (o *Orchestrator) check(s *Session) error {
	if s.aborted() {
		return &AbortError{}
	}
	return nil
}

// act issues one simulated input unless the run was aborted, then pauses.
func (o *Orchestrator) act(s *Session, fn func() error) error {
	if err := o.check(s); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return engineError(ReasonInput, err)
	}
	if o.opts.ActionPause > 0 {
		o.sleep(o.opts.ActionPause)
	}
	return nil
}

func (o *Orchestrator) moveTo(s *Session, p image.Point) error {
	err := o.act(s, func() error { return o.input.MoveTo(p.X, p.Y) })
	if err == nil {
		s.Pointer = p
	}
	return err
}

func (o *Orchestrator) click(s *Session) error {
	return o.act(s, o.input.Click)
}

func (o *Orchestrator) clickAt(s *Session, p image.Point) error {
	if err := o.moveTo(s, p); err != nil {
		return err
	}
	return o.click(s)
}

func (o *Orchestrator) dragTo(s *Session, p image.Point) error {
	err := o.act(s, func() error { return o.input.DragTo(p.X, p.Y) })
	if err == nil {
		s.Pointer = p
	}
	return err
}

func (o *Orchestrator) press(s *Session, key string) error {
	return o.act(s, func() error { return o.input.Press(key) })
}

func (o *Orchestrator) typeText(s *Session, text string) error {
	return o.act(s, func() error { return o.input.Type(text) })
}

func (o *Orchestrator) hotkey(s *Session, keys ...string) error {
	return o.act(s, func() error { return o.input.Hotkey(keys...) })
}

// withKeyHeld holds key while fn runs and always releases it.
func (o *Orchestrator) withKeyHeld(s *Session, key string, fn func() error) error {
	if err := o.act(s, func() error { return o.input.KeyDown(key) }); err != nil {
		return err
	}
	err := fn()
	// Released even after an abort so the modifier is not left stuck.
	if upErr := o.input.KeyUp(key); upErr != nil && err == nil {
		err = engineError(ReasonInput, upErr)
	}
	return err
}

func (o *Orchestrator) keystrokes(s *Session, ks []keystroke) error {
	for _, k := range ks {
		var err error
		switch k.kind {
		case keyType:
			err = o.typeText(s, k.text)
		case keyPress:
			err = o.press(s, k.text)
		case keyHotkey:
			err = o.hotkey(s, k.keys...)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) capture(r image.Rectangle) (pixel.Image, error) {
	img, err := o.screen.Capture(r)
	if err != nil {
		return nil, engineError(ReasonCapture, err)
	}
	return img, nil
}

func (o *Orchestrator) captureWindow(s *Session) (pixel.Image, error) {
	return o.capture(s.Client)
}

func (o *Orchestrator) captureDesktop(s *Session) (pixel.Image, error) {
	return o.capture(s.Desktop)
}

// changedRegion wraps pixel.ChangedRegion, optionally narrowing the result
// to the most recently opened panel.
func (o *Orchestrator) changedRegion(before, after pixel.Image, lastOnly bool) (image.Rectangle, error) {
	r, err := pixel.ChangedRegion(before, after, o.opts.ChangeThreshold)
	if err == nil && lastOnly {
		r, err = pixel.LastPanel(after, r, o.opts.PanelContrast)
	}
	if err != nil {
		return image.Rectangle{}, engineError(ReasonConfused, err)
	}
	return r, nil
}

// findBand is pixel.FindBand that treats a missing band as fatal.
func findBand(img pixel.Image, n int, from, dir image.Point) (pixel.Band, error) {
	b := pixel.FindBand(img, n, from, dir)
	if !b.Found() {
		return b, engineError(ReasonConfused, fmt.Errorf("no band %d from %v towards %v", n, from, dir))
	}
	return b, nil
}

// IsAbort reports whether err came from cancellation.
func IsAbort(err error) bool {
	return errors.Is(err, ErrAborted)
}
