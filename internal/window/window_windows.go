//go:build windows

package window

import (
	"fmt"
	"image"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
	procGetWindowTextW      = user32.NewProc("GetWindowTextW")
	procShowWindow          = user32.NewProc("ShowWindow")
	procIsZoomed            = user32.NewProc("IsZoomed")
	procGetClientRect       = user32.NewProc("GetClientRect")
	procClientToScreen      = user32.NewProc("ClientToScreen")
)

type POINT struct {
	X, Y int32
}

// EnumWindows callbacks cannot carry Go state, so results are collected in
// a package buffer guarded by enumMu.
var (
	enumMu    sync.Mutex
	enumFound []Window
	enumProc  = windows.NewCallback(enumWindow)
)

func enumWindow(hwnd windows.HWND, _ uintptr) uintptr {
	if !windows.IsWindowVisible(hwnd) {
		return 1
	}
	buf := make([]uint16, 512)
	n, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return 1
	}
	enumFound = append(enumFound, Window{
		Handle: uintptr(hwnd),
		Title:  windows.UTF16ToString(buf[:n]),
	})
	return 1
}

// list returns visible titled windows in Z order, topmost first.
func (p *Provider) list() ([]Window, error) {
	enumMu.Lock()
	defer enumMu.Unlock()

	enumFound = nil
	if err := windows.EnumWindows(enumProc, nil); err != nil {
		return nil, fmt.Errorf("window: enumerate: %w", err)
	}
	found := enumFound
	enumFound = nil
	return found, nil
}

// Maximize maximizes w and verifies the new state.
func (p *Provider) Maximize(w Window) error {
	hwnd := windows.HWND(w.Handle)
	// ShowWindow returns the previous visibility, not success
	procShowWindow.Call(uintptr(hwnd), windows.SW_MAXIMIZE)
	if ret, _, _ := procIsZoomed.Call(uintptr(hwnd)); ret == 0 {
		return fmt.Errorf("window: %q did not maximize", w.Title)
	}
	return nil
}

// Activate brings w to the foreground.
func (p *Provider) Activate(w Window) error {
	ret, _, err := procSetForegroundWindow.Call(w.Handle)
	if ret == 0 {
		return fmt.Errorf("window: activate %q: %v", w.Title, err)
	}
	return nil
}

// ClientRect returns the client area of w in desktop coordinates.
func (p *Provider) ClientRect(w Window) (image.Rectangle, error) {
	var rect windows.Rect
	if ret, _, err := procGetClientRect.Call(w.Handle, uintptr(unsafe.Pointer(&rect))); ret == 0 {
		return image.Rectangle{}, fmt.Errorf("window: client rect of %q: %v", w.Title, err)
	}
	var origin POINT
	if ret, _, err := procClientToScreen.Call(w.Handle, uintptr(unsafe.Pointer(&origin))); ret == 0 {
		return image.Rectangle{}, fmt.Errorf("window: client origin of %q: %v", w.Title, err)
	}
	topLeft := image.Pt(int(origin.X), int(origin.Y))
	return image.Rectangle{Min: topLeft, Max: topLeft.Add(image.Pt(int(rect.Right), int(rect.Bottom)))}, nil
}
