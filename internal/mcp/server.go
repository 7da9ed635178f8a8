// Package mcp exposes the running daemon's toggles as MCP tools.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/wintoggle/internal/daemon"
	"github.com/1broseidon/wintoggle/internal/ipc"
	"github.com/1broseidon/wintoggle/internal/settings"
)

const (
	ServerName    = "wintoggle"
	ServerVersion = "0.1.0"
)

// Daemon is the IPC surface the tools call. *ipc.Client implements it.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	ListToggles(windowID uint32) (*ipc.TogglesData, error)
	Toggle(command string, windowID uint32, state *bool) (*ipc.ToggleData, error)
	Click() (*daemon.ClickResult, error)
	SetGeneral(allowMultiple, notifyMe *bool) (*settings.General, error)
}

var _ Daemon = (*ipc.Client)(nil)

// Server is the MCP server for the toggle daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates an MCP server that forwards to d.
func NewServer(d Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{daemon: d, logger: logger}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the toggle button state for the focused window: its label, whether clicking opens a popup, and the title preface currently shown.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_toggles",
		Description: "List every defined style toggle with its name, title prefix, whether it is enabled, and whether it is active on a window.",
	}, s.handleListToggles)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_style",
		Description: "Flip a style toggle on a window, or force it with state. style_id 0 clears every toggle. Disabled or unknown toggles are ignored and reported as not applied.",
	}, s.handleToggleStyle)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_general",
		Description: "Change the general options: whether several toggles may be active at once and whether changes are announced with a notification.",
	}, s.handleSetGeneral)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "press_button",
		Description: "Press the toggle button for the focused window. With one enabled toggle it flips that toggle; with several it opens the selection popup on the user's screen.",
	}, s.handlePressButton)
}
