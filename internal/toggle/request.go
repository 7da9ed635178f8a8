// Package toggle turns toggle requests into new per-window rows.
package toggle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Kind selects the request variant.
type Kind int

const (
	// KindClearAll deactivates every toggle.
	KindClearAll Kind = iota
	// KindToggle flips one toggle.
	KindToggle
	// KindToggleExplicit sets one toggle to a given state.
	KindToggleExplicit
)

func (k Kind) String() string {
	switch k {
	case KindClearAll:
		return "clear-all"
	case KindToggle:
		return "toggle"
	case KindToggleExplicit:
		return "toggle-explicit"
	default:
		return "unknown"
	}
}

// Request is one of ClearAll, Toggle(styleID) or ToggleExplicit(styleID, state).
type Request struct {
	Kind    Kind
	StyleID int
	State   bool
}

func ClearAll() Request { return Request{Kind: KindClearAll} }

func Toggle(styleID int) Request { return Request{Kind: KindToggle, StyleID: styleID} }

func ToggleExplicit(styleID int, state bool) Request {
	return Request{Kind: KindToggleExplicit, StyleID: styleID, State: state}
}

func (r Request) String() string {
	switch r.Kind {
	case KindClearAll:
		return "clear-all"
	case KindToggle:
		return fmt.Sprintf("toggle(%d)", r.StyleID)
	case KindToggleExplicit:
		return fmt.Sprintf("toggle(%d, %v)", r.StyleID, r.State)
	default:
		return r.Kind.String()
	}
}

var trailingDigits = regexp.MustCompile(`[0-9]+$`)

// ParseCommand interprets a hotkey, popup or CLI identifier such as
// "toggle-style-2" or "select-3". The trailing number selects the toggle; an
// identifier without one clears everything. explicit, when set, forces the
// selected toggle's new state.
func ParseCommand(commandID string, explicit *bool) Request {
	digits := trailingDigits.FindString(commandID)
	if digits == "" {
		return ClearAll()
	}

	styleID, err := strconv.Atoi(digits)
	if err != nil {
		// Too large to be a real toggle; resolves to nothing.
		styleID = math.MaxInt
	}
	if explicit != nil {
		return ToggleExplicit(styleID, *explicit)
	}
	return Toggle(styleID)
}
