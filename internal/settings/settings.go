// Package settings models the toggle catalog and general options and keeps
// their stored form current across schema versions.
package settings

import (
	"fmt"
	"strings"
)

// Storage keys for the settings blobs.
const (
	KeyToggles = "toggles"
	KeyGeneral = "general"
)

// DefaultToggleCount is the number of toggles a fresh install starts with.
const DefaultToggleCount = 3

// AllStylesName names the change when no single toggle was selected.
const AllStylesName = "all styles"

// ToggleDefinition is one user-editable toggle. Its styleID is index+1.
type ToggleDefinition struct {
	Name    string `json:"name"`
	Prefix  string `json:"prefix"`
	Enabled bool   `json:"enabled"`

	// LegacyState is the global active flag stored before 1.2.
	LegacyState *bool `json:"state,omitempty"`
}

// General holds options that apply to every toggle.
type General struct {
	AllowMultiple   bool    `json:"allowMultiple"`
	NotifyMe        bool    `json:"notifyMe"`
	SettingsVersion float64 `json:"settingsVersion"`
}

// Settings is the full persisted settings document.
type Settings struct {
	Toggles []ToggleDefinition `json:"toggles"`
	General General            `json:"general"`
}

var defaultToggles = []ToggleDefinition{
	{Name: "userchrome style", Prefix: "\u180E", Enabled: true},
	{Name: "Style 2", Prefix: "\u200B", Enabled: false},
	{Name: "Style 3", Prefix: "\u200C", Enabled: false},
}

// Defaults returns a fresh copy of the first-run settings.
func Defaults() Settings {
	toggles := make([]ToggleDefinition, len(defaultToggles))
	copy(toggles, defaultToggles)
	return Settings{
		Toggles: toggles,
		General: General{
			AllowMultiple:   false,
			NotifyMe:        true,
			SettingsVersion: CurrentVersion,
		},
	}
}

// DefaultToggle returns the built-in definition for styleID, used when new
// toggle slots are created and when a prefix is restored.
func DefaultToggle(styleID int) ToggleDefinition {
	if styleID >= 1 && styleID <= len(defaultToggles) {
		return defaultToggles[styleID-1]
	}
	return ToggleDefinition{
		Name:    fmt.Sprintf("Style %d", styleID),
		Prefix:  fmt.Sprintf("[%d] ", styleID),
		Enabled: false,
	}
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := Settings{General: s.General}
	out.Toggles = make([]ToggleDefinition, len(s.Toggles))
	copy(out.Toggles, s.Toggles)
	return out
}

// Toggle returns the definition for a 1-based styleID.
func (s Settings) Toggle(styleID int) (ToggleDefinition, bool) {
	if styleID < 1 || styleID > len(s.Toggles) {
		return ToggleDefinition{}, false
	}
	return s.Toggles[styleID-1], true
}

// EnabledCount counts toggles that are configured as available.
func (s Settings) EnabledCount() int {
	n := 0
	for _, t := range s.Toggles {
		if t.Enabled {
			n++
		}
	}
	return n
}

// Validate checks user-editable fields.
func (s Settings) Validate() error {
	if len(s.Toggles) == 0 {
		return fmt.Errorf("toggles: at least one toggle is required")
	}
	for i, t := range s.Toggles {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("toggles[%d]: %w", i+1, err)
		}
	}
	return nil
}

func (t ToggleDefinition) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("name must not be empty")
	}
	if t.Prefix == "" {
		return fmt.Errorf("prefix must not be empty")
	}
	return nil
}

// IsDefaultPrefix reports whether the toggle still uses its built-in prefix.
// The built-in prefixes are invisible characters, which confuses users.
func IsDefaultPrefix(styleID int, prefix string) bool {
	return DefaultToggle(styleID).Prefix == prefix
}

// Selector returns the userChrome.css selector matching a toggle's prefix.
// With multiple toggles active the preface is a concatenation, so the
// selector must match a substring.
func Selector(prefix string, allowMultiple bool) string {
	compare := "="
	if allowMultiple {
		compare = "*="
	}
	return fmt.Sprintf(`:root[titlepreface%s"%s"]`, compare, prefix)
}
