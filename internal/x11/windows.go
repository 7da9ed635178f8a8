package x11

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
)

// PrefaceProperty carries the raw title preface of a window so window
// manager rules and status bars can match on it without parsing titles.
const PrefaceProperty = "_WINTOGGLE_TITLE_PREFACE"

// ErrBadWindow wraps X errors caused by a window that no longer exists.
var ErrBadWindow = errors.New("bad window")

// ClientList returns the windows managed by the window manager.
func (c *Connection) ClientList() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}
	return clients, nil
}

// GetActiveWindow returns the focused client, or 0 when none is.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL", "_NET_WM_WINDOW_TYPE_DIALOG":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return false
		}
	}

	// If no specific type is set, assume it's normal
	return len(types) == 0
}

// WindowTitle returns the application's own title: _NET_WM_NAME, falling back
// to WM_NAME.
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	if title, err := ewmh.WmNameGet(c.XUtil, windowID); err == nil && strings.TrimSpace(title) != "" {
		return title
	}
	if title, err := icccm.WmNameGet(c.XUtil, windowID); err == nil {
		return title
	}
	return ""
}

// WindowClass returns the WM_CLASS class of a window.
func (c *Connection) WindowClass(windowID xproto.Window) string {
	class, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(class.Class)
}

// WindowPID returns _NET_WM_PID, or 0 when unset.
func (c *Connection) WindowPID(windowID xproto.Window) int {
	pid, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0
	}
	return int(pid)
}

// Exists reports whether the window is still alive.
func (c *Connection) Exists(windowID xproto.Window) bool {
	_, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	return err == nil
}

// SetTitlePreface shows preface in front of the window's title through
// _NET_WM_VISIBLE_NAME and records it in PrefaceProperty. An empty preface
// removes both, restoring the plain title.
func (c *Connection) SetTitlePreface(windowID xproto.Window, preface string) error {
	if preface == "" {
		if err := c.deleteProperty(windowID, "_NET_WM_VISIBLE_NAME"); err != nil {
			return err
		}
		return c.deleteProperty(windowID, PrefaceProperty)
	}

	if err := xprop.ChangeProp(c.XUtil, windowID, 8, PrefaceProperty, "UTF8_STRING", []byte(preface)); err != nil {
		return c.windowErr(windowID, err)
	}
	if err := ewmh.WmVisibleNameSet(c.XUtil, windowID, preface+c.WindowTitle(windowID)); err != nil {
		return c.windowErr(windowID, err)
	}
	return nil
}

func (c *Connection) deleteProperty(windowID xproto.Window, name string) error {
	atom, err := c.Atom(name)
	if err != nil {
		return err
	}
	if err := xproto.DeletePropertyChecked(c.XUtil.Conn(), windowID, atom).Check(); err != nil {
		return c.windowErr(windowID, err)
	}
	return nil
}

// windowErr marks errors on destroyed windows with ErrBadWindow.
func (c *Connection) windowErr(windowID xproto.Window, err error) error {
	var badWindow xproto.WindowError
	if errors.As(err, &badWindow) || !c.Exists(windowID) {
		return fmt.Errorf("window 0x%x: %w", windowID, ErrBadWindow)
	}
	return fmt.Errorf("window 0x%x: %w", windowID, err)
}
