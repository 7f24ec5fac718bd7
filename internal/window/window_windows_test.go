//go:build windows

package window

import "testing"

// TestListTitles tests that enumeration reads window titles
func TestListTitles(t *testing.T) {
	all, err := NewProvider().list()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, w := range all {
		if w.Title == "" || w.Handle == 0 {
			t.Errorf("Expected titled windows with handles, got %+v", w)
		}
	}
}

// TestMaximizeInvalidHandle tests that a window that never maximized is reported
func TestMaximizeInvalidHandle(t *testing.T) {
	if err := NewProvider().Maximize(Window{Handle: 0x7ffffff0, Title: "gone"}); err == nil {
		t.Error("Expected error for a window that does not exist")
	}
}
