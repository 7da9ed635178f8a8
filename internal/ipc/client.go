package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/wintoggle/internal/daemon"
	"github.com/1broseidon/wintoggle/internal/runtimepath"
	"github.com/1broseidon/wintoggle/internal/settings"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(command CommandType, payload interface{}) (*Response, error) {
	req := &Request{Command: command}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", command, err)
		}
		req.Payload = data
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func decode[T any](resp *Response, what string) (*T, error) {
	var out T
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s data: %w", what, err)
	}
	return &out, nil
}

// Reload asks the daemon to re-read settings and config.
func (c *Client) Reload() error {
	_, err := c.sendRequest(CommandReload, nil)
	return err
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(CommandGetStatus, nil)
	if err != nil {
		return nil, err
	}
	return decode[StatusData](resp, "status")
}

// ListToggles lists every defined toggle with its state on windowID (0 for
// the focused window).
func (c *Client) ListToggles(windowID uint32) (*TogglesData, error) {
	resp, err := c.sendRequest(CommandListToggles, TogglePayload{WindowID: windowID})
	if err != nil {
		return nil, err
	}
	return decode[TogglesData](resp, "toggles")
}

// Toggle runs a command id such as "toggle-style-1" or "toggle-style".
func (c *Client) Toggle(command string, windowID uint32, state *bool) (*ToggleData, error) {
	resp, err := c.sendRequest(CommandToggle, TogglePayload{
		Command:  command,
		WindowID: windowID,
		State:    state,
	})
	if err != nil {
		return nil, err
	}
	return decode[ToggleData](resp, "toggle")
}

// Click presses the toggle button for the focused window.
func (c *Client) Click() (*daemon.ClickResult, error) {
	resp, err := c.sendRequest(CommandClick, nil)
	if err != nil {
		return nil, err
	}
	return decode[daemon.ClickResult](resp, "click")
}

// Popup opens the toggle popup for the focused window.
func (c *Client) Popup() error {
	_, err := c.sendRequest(CommandPopup, nil)
	return err
}

// SetGeneral updates the general options; nil leaves a value unchanged.
func (c *Client) SetGeneral(allowMultiple, notifyMe *bool) (*settings.General, error) {
	resp, err := c.sendRequest(CommandSetGeneral, GeneralPayload{
		AllowMultiple: allowMultiple,
		NotifyMe:      notifyMe,
	})
	if err != nil {
		return nil, err
	}
	return decode[settings.General](resp, "general")
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
