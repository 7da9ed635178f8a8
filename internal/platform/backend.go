package platform

import "errors"

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// NoWindow is reported by focus changes when nothing is focused.
const NoWindow WindowID = 0

// ErrStaleWindow is returned when a window vanished between lookup and use.
var ErrStaleWindow = errors.New("window no longer exists")

// Window contains metadata for a top-level window.
type Window struct {
	ID    WindowID
	PID   int
	AppID string
	Title string
}

// WindowManager abstracts the window-system calls the toggle core makes.
type WindowManager interface {
	// SetTitlePreface sets the text shown before a window's own title. An
	// empty preface clears it.
	SetTitlePreface(windowID WindowID, preface string) error
	Window(windowID WindowID) (Window, error)
	CurrentWindow() (Window, error)
	ListWindows() ([]Window, error)
}

// WindowEvents receives window lifecycle notifications.
type WindowEvents interface {
	WindowCreated(w Window)
	WindowDestroyed(windowID WindowID)
	FocusChanged(windowID WindowID)
	// TitleChanged fires when an application rewrites its own title, which
	// drops any preface the window manager was showing.
	TitleChanged(windowID WindowID)
}

// StatusPublisher exposes the button state to panels and status bars.
type StatusPublisher interface {
	PublishStatus(label string, popup bool) error
}
