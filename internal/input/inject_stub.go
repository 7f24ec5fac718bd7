//go:build !windows

package input

// MoveTo is unsupported here.
func (i *Injector) MoveTo(x, y int) error { return ErrUnsupported }

// KeyDown is unsupported here.
func (i *Injector) KeyDown(key string) error { return ErrUnsupported }

// KeyUp is unsupported here.
func (i *Injector) KeyUp(key string) error { return ErrUnsupported }

// Type is unsupported here.
func (i *Injector) Type(text string) error { return ErrUnsupported }

func (i *Injector) position() (int, int, error) { return 0, 0, ErrUnsupported }

func (i *Injector) button(down bool) error { return ErrUnsupported }
