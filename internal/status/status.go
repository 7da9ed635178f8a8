// Package status derives the button label and popup availability.
package status

import (
	"fmt"

	"github.com/1broseidon/wintoggle/internal/settings"
	"github.com/1broseidon/wintoggle/internal/state"
)

// PopupLabel is shown when the button opens the toggle list.
const PopupLabel = "Show toggles"

// Status is what the button shows for the focused window.
type Status struct {
	Label string `json:"label"`
	Popup bool   `json:"popup"`
	// StyleID is the toggle a click flips when Popup is false.
	StyleID int `json:"style_id,omitempty"`
	Enabled int `json:"enabled"`
}

// Item is one entry of the popup list.
type Item struct {
	StyleID int    `json:"style_id"`
	Name    string `json:"name"`
	Active  bool   `json:"active"`
}

// Compute returns the status for a window whose row is row. Availability is
// counted over enabled toggles, not active ones.
func Compute(s settings.Settings, row state.Row) Status {
	enabled := s.EnabledCount()
	if enabled >= 2 {
		return Status{Label: PopupLabel, Popup: true, Enabled: enabled}
	}

	if len(s.Toggles) == 0 {
		return Status{Label: PopupLabel}
	}

	// With nothing enabled the button still names the first toggle.
	styleID := 1
	for i, def := range s.Toggles {
		if def.Enabled {
			styleID = i + 1
			break
		}
	}

	name := s.Toggles[styleID-1].Name
	verb := "on"
	if styleID-1 < len(row) && row[styleID-1] {
		verb = "off"
	}
	return Status{
		Label:   fmt.Sprintf("Turn %s %s", name, verb),
		StyleID: styleID,
		Enabled: enabled,
	}
}

// Items lists enabled toggles with their state in row.
func Items(s settings.Settings, row state.Row) []Item {
	items := make([]Item, 0, len(s.Toggles))
	for i, def := range s.Toggles {
		if !def.Enabled {
			continue
		}
		items = append(items, Item{
			StyleID: i + 1,
			Name:    def.Name,
			Active:  i < len(row) && row[i],
		})
	}
	return items
}
