package mcp

import "github.com/1broseidon/wintoggle/internal/ipc"

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	WindowID uint32 `json:"window_id"`
	Label    string `json:"label"`
	Popup    bool   `json:"popup"`
	Preface  string `json:"preface"`
	Tracked  int    `json:"tracked_windows"`
}

// ListTogglesInput is the input for the list_toggles tool.
type ListTogglesInput struct {
	WindowID uint32 `json:"window_id,omitempty" jsonschema:"X11 window id (default: the focused window)"`
}

// ListTogglesOutput is the output for the list_toggles tool.
type ListTogglesOutput struct {
	WindowID      uint32           `json:"window_id"`
	AllowMultiple bool             `json:"allow_multiple"`
	NotifyMe      bool             `json:"notify_me"`
	Toggles       []ipc.ToggleInfo `json:"toggles"`
}

// ToggleStyleInput is the input for the toggle_style tool.
type ToggleStyleInput struct {
	StyleID  int    `json:"style_id" jsonschema:"1-based toggle number; 0 turns every toggle off"`
	WindowID uint32 `json:"window_id,omitempty" jsonschema:"X11 window id (default: the focused window)"`
	State    *bool  `json:"state,omitempty" jsonschema:"Force the toggle on (true) or off (false) instead of flipping it"`
}

// ToggleStyleOutput is the output for the toggle_style tool.
type ToggleStyleOutput struct {
	Applied bool   `json:"applied"`
	Message string `json:"message,omitempty"`
	Preface string `json:"preface"`
	Label   string `json:"label"`
}

// SetGeneralInput is the input for the set_general tool.
type SetGeneralInput struct {
	AllowMultiple *bool `json:"allow_multiple,omitempty" jsonschema:"Allow more than one toggle to be active per window"`
	NotifyMe      *bool `json:"notify_me,omitempty" jsonschema:"Show a desktop notification when a toggle changes"`
}

// SetGeneralOutput is the output for the set_general tool.
type SetGeneralOutput struct {
	AllowMultiple bool `json:"allow_multiple"`
	NotifyMe      bool `json:"notify_me"`
}

// PressButtonInput is the input for the press_button tool.
type PressButtonInput struct{}

// PressButtonOutput is the output for the press_button tool.
type PressButtonOutput struct {
	Popup   bool   `json:"popup"`
	Applied bool   `json:"applied"`
	Message string `json:"message,omitempty"`
}
