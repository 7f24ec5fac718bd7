//go:build windows

package input

import (
	"fmt"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	procSendInput    = user32.NewProc("SendInput")
	procSetCursorPos = user32.NewProc("SetCursorPos")
	procGetCursorPos = user32.NewProc("GetCursorPos")
)

const (
	INPUT_MOUSE    = 0
	INPUT_KEYBOARD = 1

	MOUSEEVENTF_LEFTDOWN = 0x0002
	MOUSEEVENTF_LEFTUP   = 0x0004

	KEYEVENTF_EXTENDEDKEY = 0x0001
	KEYEVENTF_KEYUP       = 0x0002
	KEYEVENTF_UNICODE     = 0x0004
)

type MOUSEINPUT struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type KEYBDINPUT struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// INPUT is a C union; the keyboard variant is padded to the mouse size.
type MOUSE_INPUT struct {
	Type uint32
	Mi   MOUSEINPUT
}

type KEYBD_INPUT struct {
	Type uint32
	Ki   KEYBDINPUT
	_    [8]byte
}

type POINT struct {
	X, Y int32
}

func sendMouse(events ...MOUSE_INPUT) error {
	n, _, err := procSendInput.Call(
		uintptr(len(events)),
		uintptr(unsafe.Pointer(&events[0])),
		unsafe.Sizeof(events[0]),
	)
	if int(n) != len(events) {
		return fmt.Errorf("input: SendInput sent %d of %d mouse events: %v", n, len(events), err)
	}
	return nil
}

func sendKeys(events ...KEYBD_INPUT) error {
	n, _, err := procSendInput.Call(
		uintptr(len(events)),
		uintptr(unsafe.Pointer(&events[0])),
		unsafe.Sizeof(events[0]),
	)
	if int(n) != len(events) {
		return fmt.Errorf("input: SendInput sent %d of %d key events: %v", n, len(events), err)
	}
	return nil
}

// MoveTo places the pointer at (x, y).
func (i *Injector) MoveTo(x, y int) error {
	ret, _, err := procSetCursorPos.Call(uintptr(x), uintptr(y))
	if ret == 0 {
		return fmt.Errorf("input: SetCursorPos(%d, %d): %v", x, y, err)
	}
	return nil
}

func (i *Injector) position() (int, int, error) {
	var pt POINT
	ret, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return 0, 0, fmt.Errorf("input: GetCursorPos: %v", err)
	}
	return int(pt.X), int(pt.Y), nil
}

func (i *Injector) button(down bool) error {
	flags := uint32(MOUSEEVENTF_LEFTUP)
	if down {
		flags = MOUSEEVENTF_LEFTDOWN
	}
	return sendMouse(MOUSE_INPUT{Type: INPUT_MOUSE, Mi: MOUSEINPUT{DwFlags: flags}})
}

func keyEvent(key string, up bool) (KEYBD_INPUT, error) {
	vk, err := KeyCode(key)
	if err != nil {
		return KEYBD_INPUT{}, err
	}
	var flags uint32
	if extended(vk) {
		flags |= KEYEVENTF_EXTENDEDKEY
	}
	if up {
		flags |= KEYEVENTF_KEYUP
	}
	return KEYBD_INPUT{Type: INPUT_KEYBOARD, Ki: KEYBDINPUT{WVk: vk, DwFlags: flags}}, nil
}

// KeyDown presses a named key.
func (i *Injector) KeyDown(key string) error {
	ev, err := keyEvent(key, false)
	if err != nil {
		return err
	}
	return sendKeys(ev)
}

// KeyUp releases a named key.
func (i *Injector) KeyUp(key string) error {
	ev, err := keyEvent(key, true)
	if err != nil {
		return err
	}
	return sendKeys(ev)
}

// Type enters text as Unicode key events, independent of keyboard layout.
func (i *Injector) Type(text string) error {
	if text == "" {
		return nil
	}
	var events []KEYBD_INPUT
	for _, unit := range utf16.Encode([]rune(text)) {
		events = append(events,
			KEYBD_INPUT{Type: INPUT_KEYBOARD, Ki: KEYBDINPUT{WScan: unit, DwFlags: KEYEVENTF_UNICODE}},
			KEYBD_INPUT{Type: INPUT_KEYBOARD, Ki: KEYBDINPUT{WScan: unit, DwFlags: KEYEVENTF_UNICODE | KEYEVENTF_KEYUP}},
		)
	}
	return sendKeys(events...)
}
