package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// RootHandlers receives changes of the root window's EWMH properties.
type RootHandlers struct {
	ClientList   func(clients []xproto.Window)
	ActiveWindow func(active xproto.Window)
}

// WatchRoot subscribes to property changes on the root window. Handlers run
// on the event loop goroutine.
func (c *Connection) WatchRoot(h RootHandlers) error {
	if err := xwindow.New(c.XUtil, c.Root).Listen(xproto.EventMaskPropertyChange); err != nil {
		return err
	}

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		switch c.AtomName(ev.Atom) {
		case "_NET_CLIENT_LIST":
			if h.ClientList == nil {
				return
			}
			clients, err := c.ClientList()
			if err != nil {
				return
			}
			h.ClientList(clients)
		case "_NET_ACTIVE_WINDOW":
			if h.ActiveWindow == nil {
				return
			}
			active, err := c.GetActiveWindow()
			if err != nil {
				active = 0
			}
			h.ActiveWindow(active)
		}
	}).Connect(c.XUtil, c.Root)
	return nil
}

// WatchTitle calls fn whenever the window's own title changes.
func (c *Connection) WatchTitle(windowID xproto.Window, fn func()) error {
	if err := xwindow.New(c.XUtil, windowID).Listen(xproto.EventMaskPropertyChange); err != nil {
		return err
	}
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		switch c.AtomName(ev.Atom) {
		case "_NET_WM_NAME", "WM_NAME":
			fn()
		}
	}).Connect(c.XUtil, windowID)
	return nil
}

// Unwatch drops every event handler attached to a window.
func (c *Connection) Unwatch(windowID xproto.Window) {
	xevent.Detach(c.XUtil, windowID)
}
