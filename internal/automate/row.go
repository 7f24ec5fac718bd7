package automate

import (
	"fmt"
	"strings"
)

// Row is one validated mapping record.
type Row struct {
	Device  int
	Channel int
	CC      int
	// Layers holds the destination text for layers 1-4; empty means unset.
	Layers [4]string
	// Repeat is the number of extra advances after the last layer; 0 means none.
	Repeat int
}

// ControllerGroup is the index of the 16-wide CC group holding r.CC.
func (r Row) ControllerGroup() int { return r.CC / 16 }

// GroupPosition is the position of r.CC inside its group.
func (r Row) GroupPosition() int { return r.CC % 16 }

// Validate re-checks the invariants the ingestion layer guarantees.
func (r Row) Validate() error {
	switch {
	case r.Device < 1:
		return fmt.Errorf("device %d must be 1 or more", r.Device)
	case r.Channel < 1 || r.Channel > 16:
		return fmt.Errorf("channel %d must be from 1 to 16", r.Channel)
	case r.CC < 0 || r.CC > 127:
		return fmt.Errorf("cc %d must be from 0 to 127", r.CC)
	case r.Layers[0] == "" || r.Layers[1] == "":
		return fmt.Errorf("layers 1 and 2 are required")
	case r.Layers[3] != "" && r.Layers[2] == "":
		return fmt.Errorf("layer 4 requires layer 3")
	case r.Repeat < 0:
		return fmt.Errorf("repeat %d must be 1 or more", r.Repeat)
	case r.Repeat > 0 && r.Layers[2] == "" && r.Layers[3] == "":
		return fmt.Errorf("repeat requires layer 3 or layer 4")
	}
	return nil
}

// String renders the row the way progress messages show it.
func (r Row) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(%d,%d,%d) → %s/%s", r.Device, r.Channel, r.CC, r.Layers[0], r.Layers[1])
	for _, layer := range r.Layers[2:] {
		if layer != "" {
			b.WriteString("/" + layer)
		}
	}
	if r.Repeat > 0 {
		fmt.Fprintf(&b, " (R%d)", r.Repeat)
	}
	return b.String()
}

type keyKind int

const (
	keyType keyKind = iota
	keyPress
	keyHotkey
)

// keystroke is one step of destination-cell entry.
type keystroke struct {
	kind keyKind
	text string
	keys []string
}

func typeStroke(s string) keystroke { return keystroke{kind: keyType, text: s} }

func pressStroke(key string) keystroke { return keystroke{kind: keyPress, text: key} }

func hotkeyStroke(keys ...string) keystroke { return keystroke{kind: keyHotkey, keys: keys} }

func advance() keystroke { return pressStroke("down") }

func clearCell() []keystroke { return []keystroke{hotkeyStroke("ctrl", "a"), pressStroke("delete")} }

func advances(n int) []keystroke {
	ks := make([]keystroke, 0, n)
	for i := 0; i < n; i++ {
		ks = append(ks, advance())
	}
	return ks
}

// entryScript is the key sequence that writes r's layers into the
// destination editor, ending with the commit.
func (r Row) entryScript() []keystroke {
	ks := []keystroke{typeStroke(r.Layers[0]), advance()}
	ks = append(ks, clearCell()...)
	ks = append(ks, typeStroke(r.Layers[1]), advance())

	if r.Layers[2] != "" {
		ks = append(ks, clearCell()...)
		ks = append(ks, typeStroke(r.Layers[2]), advance())
		if r.Layers[3] == "" {
			ks = append(ks, advances(r.Repeat)...)
		} else {
			ks = append(ks, clearCell()...)
			ks = append(ks, typeStroke(r.Layers[3]), advance())
			ks = append(ks, advances(r.Repeat)...)
		}
	}
	return append(ks, pressStroke("enter"))
}
