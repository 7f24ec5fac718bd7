//go:build windows

package hotkey

import (
	"log"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"midiautomate/internal/input"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessage          = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessage     = user32.NewProc("DispatchMessageW")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procGetModuleHandle     = kernel32.NewProc("GetModuleHandleW")
)

const (
	WH_KEYBOARD_LL = 13
	WM_KEYDOWN     = 0x0100
	WM_KEYUP       = 0x0101
	WM_SYSKEYDOWN  = 0x0104
	WM_SYSKEYUP    = 0x0105

	// LLKHF_INJECTED marks events produced by SendInput.
	LLKHF_INJECTED = 0x10
)

type KBDLLHOOKSTRUCT struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

var (
	instanceManager *Manager
	keyboardHook    uintptr
)

func (m *Manager) startPlatform() error {
	instanceManager = m

	// Hooks must be registered in the same thread that runs the message loop
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		hMod, _, _ := procGetModuleHandle.Call(0)

		var err error
		keyboardHook, _, err = procSetWindowsHookEx.Call(
			WH_KEYBOARD_LL,
			syscall.NewCallback(keyboardHookPtr),
			hMod,
			0,
		)
		if keyboardHook == 0 {
			log.Printf("Error setting keyboard hook: %v", err)
			return
		}

		log.Println("Hotkey Engine: Windows keyboard hook started.")

		var msg struct {
			Hwnd    syscall.Handle
			Message uint32
			Wparam  uintptr
			Lparam  uintptr
			Time    uint32
			Pt      struct{ X, Y int32 }
		}

		for {
			ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
			if int32(ret) <= 0 {
				break
			}
			procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
			procDispatchMessage.Call(uintptr(unsafe.Pointer(&msg)))
		}

		procUnhookWindowsHookEx.Call(keyboardHook)
	}()

	return nil
}

func keyboardHookPtr(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode == 0 {
		kbd := (*KBDLLHOOKSTRUCT)(unsafe.Pointer(lParam))
		// The engine's own keystrokes must not count towards the abort chord.
		if kbd.Flags&LLKHF_INJECTED == 0 {
			if keyName := input.KeyName(kbd.VkCode); keyName != "" {
				isDown := wParam == WM_KEYDOWN || wParam == WM_SYSKEYDOWN
				instanceManager.UpdateState(keyName, isDown)
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(keyboardHook, uintptr(nCode), wParam, lParam)
	return ret
}
