//go:build !windows

// Package osutils holds process-level platform helpers.
package osutils

// IsAdmin is a stub for non-Windows platforms
func IsAdmin() bool {
	return false
}

// SetDPIAware is a no-op on non-Windows platforms.
func SetDPIAware() error {
	return nil
}
