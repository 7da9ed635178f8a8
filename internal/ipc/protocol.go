package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/wintoggle/internal/daemon"
	"github.com/1broseidon/wintoggle/internal/settings"
	"github.com/1broseidon/wintoggle/internal/toggle"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload      CommandType = "RELOAD"
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandListToggles CommandType = "LIST_TOGGLES"
	CommandToggle      CommandType = "TOGGLE"
	CommandClick       CommandType = "CLICK"
	CommandPopup       CommandType = "POPUP"
	CommandSetGeneral  CommandType = "SET_GENERAL"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	View          daemon.View `json:"view"`
	TrackedCount  int         `json:"tracked_windows"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	DaemonRunning bool        `json:"daemon_running"`
}

// ToggleInfo describes one defined toggle and its state on a window.
type ToggleInfo struct {
	StyleID int    `json:"style_id"`
	Name    string `json:"name"`
	Prefix  string `json:"prefix"`
	Enabled bool   `json:"enabled"`
	Active  bool   `json:"active"`
}

// TogglesData represents the data returned by LIST_TOGGLES
type TogglesData struct {
	WindowID uint32           `json:"window_id"`
	Toggles  []ToggleInfo     `json:"toggles"`
	General  settings.General `json:"general"`
}

// TogglePayload names a command id such as "toggle-style-2". WindowID
// defaults to the focused window; State forces the toggle on or off.
type TogglePayload struct {
	Command  string `json:"command"`
	WindowID uint32 `json:"window_id,omitempty"`
	State    *bool  `json:"state,omitempty"`
}

type ToggleData struct {
	Applied bool          `json:"applied"`
	Change  toggle.Change `json:"change"`
	View    daemon.View   `json:"view"`
}

// GeneralPayload updates the general options. Nil fields keep their value.
type GeneralPayload struct {
	AllowMultiple *bool `json:"allow_multiple,omitempty"`
	NotifyMe      *bool `json:"notify_me,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
