package toggle

import (
	"fmt"

	"github.com/1broseidon/wintoggle/internal/settings"
	"github.com/1broseidon/wintoggle/internal/state"
)

// Change describes the outcome of an applied request.
type Change struct {
	// StyleID is 0 when the request cleared all toggles.
	StyleID int    `json:"style_id"`
	Name    string `json:"name"`
	Active  bool   `json:"active"`
}

// State returns the human form of the resulting state.
func (c Change) State() string {
	if c.Active {
		return "on"
	}
	return "off"
}

// Message is the notification text for the change.
func (c Change) Message() string {
	return fmt.Sprintf("Turned %s %s", c.Name, c.State())
}

// NotificationID groups notifications so a new one replaces the last one for
// the same toggle.
func (c Change) NotificationID() string {
	if c.StyleID == 0 {
		return "toggle-all"
	}
	return fmt.Sprintf("toggle-%d", c.StyleID)
}

// Apply computes the row that results from req. ok is false when the request
// names a toggle that does not exist or is disabled; row is then returned
// unchanged and nothing should happen.
func Apply(s settings.Settings, row state.Row, req Request) (state.Row, Change, bool) {
	var (
		idx = -1
		def settings.ToggleDefinition
	)

	switch req.Kind {
	case KindClearAll:
	case KindToggle, KindToggleExplicit:
		var found bool
		def, found = s.Toggle(req.StyleID)
		if !found || !def.Enabled {
			return row, Change{}, false
		}
		idx = req.StyleID - 1
	default:
		return row, Change{}, false
	}

	next := row.Resized(len(s.Toggles))

	if !s.General.AllowMultiple || idx < 0 {
		for i := range next {
			if i != idx {
				next[i] = false
			}
		}
	}

	switch req.Kind {
	case KindToggle:
		next[idx] = !next[idx]
	case KindToggleExplicit:
		next[idx] = req.State
	default:
		return next, Change{Name: settings.AllStylesName}, true
	}

	return next, Change{StyleID: req.StyleID, Name: def.Name, Active: next[idx]}, true
}
