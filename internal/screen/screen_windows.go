//go:build windows

package screen

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetDC            = user32.NewProc("GetDC")
	procReleaseDC        = user32.NewProc("ReleaseDC")
	procGetSystemMetrics = user32.NewProc("GetSystemMetrics")

	gdi32                      = windows.NewLazySystemDLL("gdi32.dll")
	procCreateCompatibleDC     = gdi32.NewProc("CreateCompatibleDC")
	procCreateCompatibleBitmap = gdi32.NewProc("CreateCompatibleBitmap")
	procSelectObject           = gdi32.NewProc("SelectObject")
	procBitBlt                 = gdi32.NewProc("BitBlt")
	procGetDIBits              = gdi32.NewProc("GetDIBits")
	procDeleteObject           = gdi32.NewProc("DeleteObject")
	procDeleteDC               = gdi32.NewProc("DeleteDC")
)

const (
	SM_XVIRTUALSCREEN  = 76
	SM_YVIRTUALSCREEN  = 77
	SM_CXVIRTUALSCREEN = 78
	SM_CYVIRTUALSCREEN = 79

	SRCCOPY        = 0x00CC0020
	CAPTUREBLT     = 0x40000000
	BI_RGB         = 0
	DIB_RGB_COLORS = 0
)

type BITMAPINFOHEADER struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type BITMAPINFO struct {
	BmiHeader BITMAPINFOHEADER
	BmiColors [1]uint32
}

type gdiBackend struct{}

func newBackend() backend { return gdiBackend{} }

func metric(index uintptr) int {
	ret, _, _ := procGetSystemMetrics.Call(index)
	return int(int32(ret))
}

func (gdiBackend) bounds() (image.Rectangle, error) {
	x, y := metric(SM_XVIRTUALSCREEN), metric(SM_YVIRTUALSCREEN)
	w, h := metric(SM_CXVIRTUALSCREEN), metric(SM_CYVIRTUALSCREEN)
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, errors.New("screen: virtual desktop has no size")
	}
	return image.Rect(x, y, x+w, y+h), nil
}

// grab copies r from the screen DC into a top-down 32-bit DIB.
func (gdiBackend) grab(r image.Rectangle) (*image.RGBA, error) {
	w, h := r.Dx(), r.Dy()

	screenDC, _, _ := procGetDC.Call(0)
	if screenDC == 0 {
		return nil, errors.New("screen: GetDC failed")
	}
	defer procReleaseDC.Call(0, screenDC)

	memDC, _, _ := procCreateCompatibleDC.Call(screenDC)
	if memDC == 0 {
		return nil, errors.New("screen: CreateCompatibleDC failed")
	}
	defer procDeleteDC.Call(memDC)

	bitmap, _, _ := procCreateCompatibleBitmap.Call(screenDC, uintptr(w), uintptr(h))
	if bitmap == 0 {
		return nil, errors.New("screen: CreateCompatibleBitmap failed")
	}
	defer procDeleteObject.Call(bitmap)

	old, _, _ := procSelectObject.Call(memDC, bitmap)
	ok, _, err := procBitBlt.Call(memDC, 0, 0, uintptr(w), uintptr(h),
		screenDC, uintptr(r.Min.X), uintptr(r.Min.Y), SRCCOPY|CAPTUREBLT)
	// GetDIBits requires the bitmap to be deselected.
	procSelectObject.Call(memDC, old)
	if ok == 0 {
		return nil, fmt.Errorf("screen: BitBlt %v: %v", r, err)
	}

	info := BITMAPINFO{BmiHeader: BITMAPINFOHEADER{
		BiWidth:       int32(w),
		BiHeight:      -int32(h),
		BiPlanes:      1,
		BiBitCount:    32,
		BiCompression: BI_RGB,
	}}
	info.BmiHeader.BiSize = uint32(unsafe.Sizeof(info.BmiHeader))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	lines, _, err := procGetDIBits.Call(memDC, bitmap, 0, uintptr(h),
		uintptr(unsafe.Pointer(&img.Pix[0])), uintptr(unsafe.Pointer(&info)), DIB_RGB_COLORS)
	if int(lines) != h {
		return nil, fmt.Errorf("screen: GetDIBits copied %d of %d lines: %v", lines, h, err)
	}

	// BGRA to RGBA; GDI leaves alpha undefined.
	for i := 0; i+3 < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+2] = img.Pix[i+2], img.Pix[i]
		img.Pix[i+3] = 0xff
	}
	return img, nil
}
