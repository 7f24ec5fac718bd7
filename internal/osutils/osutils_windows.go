//go:build windows

// Package osutils holds process-level platform helpers.
package osutils

import (
	"fmt"

	"golang.org/x/sys/windows"
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procSetProcessDPIAware = user32.NewProc("SetProcessDPIAware")
)

// IsAdmin checks if the current process has administrative privileges
func IsAdmin() bool {
	var token windows.Token
	h, _ := windows.GetCurrentProcess()
	err := windows.OpenProcessToken(h, windows.TOKEN_QUERY, &token)
	if err != nil {
		return false
	}
	defer token.Close()

	var sid *windows.SID
	err = windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	member, err := token.IsMember(sid)
	if err != nil {
		return false
	}

	return member
}

// SetDPIAware makes window, capture and pointer coordinates physical pixels.
// It must run before any window is created or measured.
func SetDPIAware() error {
	if err := procSetProcessDPIAware.Find(); err != nil {
		return fmt.Errorf("SetProcessDPIAware unavailable: %w", err)
	}
	ret, _, err := procSetProcessDPIAware.Call()
	if ret == 0 {
		return fmt.Errorf("SetProcessDPIAware failed: %w", err)
	}
	return nil
}
