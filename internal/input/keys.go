package input

import (
	"fmt"
	"strconv"
	"strings"
)

// Virtual-key codes of named keys. Names are lower case.
var keyCodes = map[string]uint16{
	"ctrl":        0x11,
	"control":     0x11,
	"alt":         0x12,
	"shift":       0x10,
	"win":         0x5B,
	"cmd":         0x5B,
	"backspace":   0x08,
	"tab":         0x09,
	"enter":       0x0D,
	"return":      0x0D,
	"pause":       0x13,
	"capslock":    0x14,
	"escape":      0x1B,
	"esc":         0x1B,
	"space":       0x20,
	"pageup":      0x21,
	"pagedown":    0x22,
	"end":         0x23,
	"home":        0x24,
	"left":        0x25,
	"up":          0x26,
	"right":       0x27,
	"down":        0x28,
	"printscreen": 0x2C,
	"insert":      0x2D,
	"delete":      0x2E,
	"del":         0x2E,
	"scrolllock":  0x91,
}

// KeyCode resolves a key name ("ctrl", "f12", "a", "down") to its
// virtual-key code.
func KeyCode(name string) (uint16, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if vk, ok := keyCodes[name]; ok {
		return vk, nil
	}
	if len(name) == 1 {
		switch c := name[0]; {
		case c >= 'a' && c <= 'z':
			return uint16(c-'a') + 0x41, nil
		case c >= '0' && c <= '9':
			return uint16(c-'0') + 0x30, nil
		}
	}
	if strings.HasPrefix(name, "f") {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 1 && n <= 24 {
			return uint16(0x70 + n - 1), nil
		}
	}
	return 0, fmt.Errorf("input: unknown key %q", name)
}

// KeyName returns the upper-case name hotkey strings use for vk, or "" for
// keys without one. Left and right modifier variants share a name.
func KeyName(vk uint32) string {
	switch vk {
	case 0x11, 0xA2, 0xA3:
		return "CTRL"
	case 0x12, 0xA4, 0xA5:
		return "ALT"
	case 0x10, 0xA0, 0xA1:
		return "SHIFT"
	case 0x5B, 0x5C:
		return "WIN"
	case 0x20:
		return "SPACE"
	case 0x0D:
		return "ENTER"
	case 0x1B:
		return "ESC"
	case 0x08:
		return "BACKSPACE"
	case 0x09:
		return "TAB"
	case 0x14:
		return "CAPSLOCK"
	case 0x21:
		return "PAGEUP"
	case 0x22:
		return "PAGEDOWN"
	case 0x23:
		return "END"
	case 0x24:
		return "HOME"
	case 0x25:
		return "LEFT"
	case 0x26:
		return "UP"
	case 0x27:
		return "RIGHT"
	case 0x28:
		return "DOWN"
	case 0x2C:
		return "PRINTSCREEN"
	case 0x2D:
		return "INSERT"
	case 0x2E:
		return "DELETE"
	case 0x13:
		return "PAUSE"
	case 0x91:
		return "SCROLLLOCK"
	}

	// Letters and digits
	if (vk >= 0x41 && vk <= 0x5A) || (vk >= 0x30 && vk <= 0x39) {
		return string(rune(vk))
	}

	// F1-F24
	if vk >= 0x70 && vk <= 0x87 {
		return fmt.Sprintf("F%d", vk-0x6F)
	}

	return ""
}

// extended reports whether vk sits in the extended key block, which
// SendInput must flag to avoid the numeric keypad twin.
func extended(vk uint16) bool {
	switch vk {
	case 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27, 0x28, 0x2D, 0x2E, 0x5B, 0x5C:
		return true
	}
	return false
}
