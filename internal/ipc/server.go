package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/wintoggle/internal/daemon"
	"github.com/1broseidon/wintoggle/internal/platform"
	"github.com/1broseidon/wintoggle/internal/runtimepath"
	"github.com/1broseidon/wintoggle/internal/settings"
	"github.com/1broseidon/wintoggle/internal/state"
	"github.com/1broseidon/wintoggle/internal/toggle"
)

// Service is the part of the daemon the IPC server drives.
type Service interface {
	Settings() settings.Settings
	Table() *state.Table
	ResolveWindow() (platform.WindowID, error)
	ViewFor(windowID platform.WindowID) daemon.View
	CurrentView() daemon.View
	ApplyCommand(ctx context.Context, commandID string, explicit *bool) (toggle.Change, bool, error)
	Apply(ctx context.Context, windowID platform.WindowID, req toggle.Request) (toggle.Change, bool, error)
	Click(ctx context.Context) (daemon.ClickResult, error)
	ShowPopup(ctx context.Context, windowID platform.WindowID) error
	SetGeneral(ctx context.Context, allowMultiple, notifyMe bool) error
	Reload(ctx context.Context) error
}

var _ Service = (*daemon.Service)(nil)

const connTimeout = 10 * time.Second

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	listener   net.Listener
	svc        Service
	logger     *slog.Logger
	startTime  time.Time
	reloadChan chan<- struct{}

	ctx          context.Context
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server. After RELOAD succeeds a signal is sent
// on reloadChan (if not nil) so the daemon can re-read its own config.
func NewServer(svc Service, reloadChan chan<- struct{}, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		svc:        svc,
		logger:     logger,
		startTime:  time.Now(),
		reloadChan: reloadChan,
		ctx:        context.Background(),
	}, nil
}

// SocketPath returns where the server listens.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections. ctx is passed to the requests
// the server runs; cancelling it does not stop the listener, Stop does.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener
	s.ctx = ctx

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(connTimeout))

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send IPC response", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("IPC request", "command", req.Command)

	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListToggles:
		return s.handleListToggles(req.Payload)
	case CommandToggle:
		return s.handleToggle(req.Payload)
	case CommandClick:
		return s.handleClick()
	case CommandPopup:
		return s.handlePopup()
	case CommandSetGeneral:
		return s.handleSetGeneral(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload() *Response {
	if err := s.svc.Reload(s.ctx); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload settings: %v", err))
	}

	if s.reloadChan != nil {
		select {
		case s.reloadChan <- struct{}{}:
		default:
		}
	}

	s.logger.Info("settings reloaded over IPC")
	return ok(nil)
}

func (s *Server) handleGetStatus() *Response {
	return ok(StatusData{
		View:          s.svc.CurrentView(),
		TrackedCount:  s.svc.Table().Len(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	})
}

func (s *Server) handleListToggles(payload json.RawMessage) *Response {
	var req TogglePayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid list payload: %v", err))
		}
	}

	windowID := platform.WindowID(req.WindowID)
	if windowID == platform.NoWindow {
		// Listing works without a focused window; rows then read as inactive.
		windowID, _ = s.svc.ResolveWindow()
	}

	current := s.svc.Settings()
	row, _ := s.svc.Table().Row(windowID)
	data := TogglesData{
		WindowID: uint32(windowID),
		Toggles:  make([]ToggleInfo, 0, len(current.Toggles)),
		General:  current.General,
	}
	for i, def := range current.Toggles {
		data.Toggles = append(data.Toggles, ToggleInfo{
			StyleID: i + 1,
			Name:    def.Name,
			Prefix:  def.Prefix,
			Enabled: def.Enabled,
			Active:  i < len(row) && row[i],
		})
	}
	return ok(data)
}

func (s *Server) handleToggle(payload json.RawMessage) *Response {
	var req TogglePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid toggle payload: %v", err))
	}
	if req.Command == "" {
		return NewErrorResponse("command is required")
	}

	windowID := platform.WindowID(req.WindowID)
	if windowID == platform.NoWindow {
		resolved, err := s.svc.ResolveWindow()
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		windowID = resolved
	}

	change, applied, err := s.svc.Apply(s.ctx, windowID, toggle.ParseCommand(req.Command, req.State))
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to toggle: %v", err))
	}
	return ok(ToggleData{Applied: applied, Change: change, View: s.svc.ViewFor(windowID)})
}

func (s *Server) handleClick() *Response {
	res, err := s.svc.Click(s.ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to click: %v", err))
	}
	return ok(res)
}

func (s *Server) handlePopup() *Response {
	windowID, err := s.svc.ResolveWindow()
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	// The popup blocks until the user picks; answer the client right away.
	go func() {
		if err := s.svc.ShowPopup(context.WithoutCancel(s.ctx), windowID); err != nil {
			s.logger.Warn("popup failed", "error", err)
		}
	}()
	return ok(nil)
}

func (s *Server) handleSetGeneral(payload json.RawMessage) *Response {
	var req GeneralPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid general payload: %v", err))
	}

	general := s.svc.Settings().General
	if req.AllowMultiple != nil {
		general.AllowMultiple = *req.AllowMultiple
	}
	if req.NotifyMe != nil {
		general.NotifyMe = *req.NotifyMe
	}
	if err := s.svc.SetGeneral(s.ctx, general.AllowMultiple, general.NotifyMe); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to save general settings: %v", err))
	}
	return ok(s.svc.Settings().General)
}

func ok(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
