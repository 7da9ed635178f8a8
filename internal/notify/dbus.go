package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod = notifyDest + ".Notify"
)

// DBus sends notifications through the freedesktop notification service on
// the session bus.
type DBus struct {
	conn      *dbus.Conn
	appName   string
	timeoutMS int32

	mu       sync.Mutex
	replaces map[string]uint32
}

// NewDBus connects to the session bus. A timeout of 0 lets the server decide.
func NewDBus(appName string, timeoutMS int) (*DBus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	if appName == "" {
		appName = "wintoggle"
	}
	if timeoutMS <= 0 {
		timeoutMS = -1
	}
	return &DBus{
		conn:      conn,
		appName:   appName,
		timeoutMS: int32(timeoutMS),
		replaces:  make(map[string]uint32),
	}, nil
}

func (d *DBus) Notify(ctx context.Context, id string, n Notification) error {
	d.mu.Lock()
	replaces := d.replaces[id]
	d.mu.Unlock()

	obj := d.conn.Object(notifyDest, notifyPath)
	call := obj.CallWithContext(ctx, notifyMethod, 0,
		d.appName,
		replaces,
		"",
		n.Title,
		n.Message,
		[]string{},
		map[string]dbus.Variant{},
		d.timeoutMS,
	)
	if call.Err != nil {
		return fmt.Errorf("notify: %w", call.Err)
	}

	var serverID uint32
	if err := call.Store(&serverID); err != nil {
		return fmt.Errorf("notify: read id: %w", err)
	}

	d.mu.Lock()
	d.replaces[id] = serverID
	d.mu.Unlock()
	return nil
}

func (d *DBus) Close() error {
	return d.conn.Close()
}
