//go:build linux

package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/wintoggle/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend implements WindowManager and StatusPublisher on an EWMH
// window manager.
type LinuxBackend struct {
	conn   *x11.Connection
	logger *slog.Logger

	mu      sync.Mutex
	clients map[xproto.Window]bool
	events  WindowEvents
}

var (
	_ WindowManager   = (*LinuxBackend)(nil)
	_ StatusPublisher = (*LinuxBackend)(nil)
)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection, logger *slog.Logger) *LinuxBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinuxBackend{conn: conn, logger: logger, clients: make(map[xproto.Window]bool)}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay(logger *slog.Logger) (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn, logger), nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// Quit stops EventLoop.
func (b *LinuxBackend) Quit() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// Watch starts delivering window events. Clients that already exist are
// watched for title changes but not reported as created; they get their
// state on first focus. The active window is reported right away.
func (b *LinuxBackend) Watch(events WindowEvents) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}

	clients, err := conn.ClientList()
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.events = events
	for _, win := range clients {
		if conn.IsNormalWindow(win) {
			b.track(win)
		}
	}
	b.mu.Unlock()

	if err := conn.WatchRoot(x11.RootHandlers{
		ClientList:   b.clientListChanged,
		ActiveWindow: b.activeWindowChanged,
	}); err != nil {
		return fmt.Errorf("watch root window: %w", err)
	}

	if active, err := conn.GetActiveWindow(); err == nil && active != 0 {
		events.FocusChanged(WindowID(active))
	}
	return nil
}

// track starts watching a client's title. Callers hold b.mu.
func (b *LinuxBackend) track(win xproto.Window) {
	b.clients[win] = true
	id := WindowID(win)
	err := b.conn.WatchTitle(win, func() {
		if ev := b.currentEvents(); ev != nil {
			ev.TitleChanged(id)
		}
	})
	if err != nil {
		b.logger.Debug("watch title failed", "window_id", id, "error", err)
	}
}

func (b *LinuxBackend) currentEvents() WindowEvents {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.events
}

// clientListChanged diffs the new _NET_CLIENT_LIST against the known clients.
func (b *LinuxBackend) clientListChanged(clients []xproto.Window) {
	live := make(map[xproto.Window]bool, len(clients))
	for _, win := range clients {
		live[win] = true
	}

	var created, destroyed []xproto.Window
	b.mu.Lock()
	for _, win := range clients {
		if !b.clients[win] && b.conn.IsNormalWindow(win) {
			b.track(win)
			created = append(created, win)
		}
	}
	for win := range b.clients {
		if !live[win] {
			delete(b.clients, win)
			b.conn.Unwatch(win)
			destroyed = append(destroyed, win)
		}
	}
	events := b.events
	b.mu.Unlock()

	if events == nil {
		return
	}
	for _, win := range destroyed {
		events.WindowDestroyed(WindowID(win))
	}
	for _, win := range created {
		events.WindowCreated(b.describe(win))
	}
}

func (b *LinuxBackend) activeWindowChanged(active xproto.Window) {
	if ev := b.currentEvents(); ev != nil {
		ev.FocusChanged(WindowID(active))
	}
}

// SetTitlePreface sets the text shown before the window's title.
func (b *LinuxBackend) SetTitlePreface(windowID WindowID, preface string) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	if err := conn.SetTitlePreface(xproto.Window(windowID), preface); err != nil {
		if errors.Is(err, x11.ErrBadWindow) {
			return fmt.Errorf("%w: %v", ErrStaleWindow, err)
		}
		return err
	}
	return nil
}

// Window returns metadata for a window.
func (b *LinuxBackend) Window(windowID WindowID) (Window, error) {
	conn, err := b.connection()
	if err != nil {
		return Window{}, err
	}
	if !conn.Exists(xproto.Window(windowID)) {
		return Window{}, fmt.Errorf("window %d: %w", windowID, ErrStaleWindow)
	}
	return b.describe(xproto.Window(windowID)), nil
}

// CurrentWindow returns the focused window. ID is NoWindow when nothing has focus.
func (b *LinuxBackend) CurrentWindow() (Window, error) {
	conn, err := b.connection()
	if err != nil {
		return Window{}, err
	}
	active, err := conn.GetActiveWindow()
	if err != nil {
		return Window{}, err
	}
	if active == 0 {
		return Window{}, nil
	}
	return b.describe(active), nil
}

// ListWindows returns the normal windows in the client list.
func (b *LinuxBackend) ListWindows() ([]Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	clients, err := conn.ClientList()
	if err != nil {
		return nil, err
	}

	windows := make([]Window, 0, len(clients))
	for _, win := range clients {
		if !conn.IsNormalWindow(win) {
			continue
		}
		windows = append(windows, b.describe(win))
	}
	sort.Slice(windows, func(i, j int) bool {
		return windows[i].ID < windows[j].ID
	})
	return windows, nil
}

// PublishStatus writes the button state to root window properties.
func (b *LinuxBackend) PublishStatus(label string, popup bool) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.SetStatus(label, popup)
}

func (b *LinuxBackend) describe(win xproto.Window) Window {
	return Window{
		ID:    WindowID(win),
		PID:   b.conn.WindowPID(win),
		AppID: b.conn.WindowClass(win),
		Title: b.conn.WindowTitle(win),
	}
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}
