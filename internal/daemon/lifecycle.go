package daemon

import (
	"context"

	"github.com/1broseidon/wintoggle/internal/platform"
)

// lifecycle applies window manager events to the service.
type lifecycle struct {
	ctx context.Context
	svc *Service
}

// Events returns the handlers the window backend calls. ctx bounds the
// storage and window-manager work those handlers do.
func (s *Service) Events(ctx context.Context) platform.WindowEvents {
	return &lifecycle{ctx: ctx, svc: s}
}

// WindowCreated gives a new window a row copied from the last focused window,
// so new windows open in the style the user was just using. A window that
// was focused before its create event keeps the row it already has.
func (l *lifecycle) WindowCreated(w platform.Window) {
	if w.ID == platform.NoWindow {
		return
	}
	defer l.handlePanic("window created")

	s := l.svc
	if s.table.Has(w.ID) {
		s.logger.Debug("window created after focus, keeping row", "window_id", w.ID)
		return
	}
	row, cloned := s.table.Create(w.ID)
	s.logger.Debug("window created", "window_id", w.ID, "app_id", w.AppID, "active", row.ActiveCount(), "cloned", cloned)

	s.persistTable(l.ctx)
	s.titles.Sync(l.ctx, w.ID)
}

func (l *lifecycle) WindowDestroyed(windowID platform.WindowID) {
	defer l.handlePanic("window destroyed")

	s := l.svc
	if !s.table.Remove(windowID) {
		return
	}
	s.logger.Debug("window destroyed", "window_id", windowID)
	s.persistTable(l.ctx)
}

// FocusChanged records the focused window. Windows that existed before the
// daemon started get an all-inactive row on first focus.
func (l *lifecycle) FocusChanged(windowID platform.WindowID) {
	if windowID == platform.NoWindow {
		return
	}
	defer l.handlePanic("focus changed")

	s := l.svc
	if s.table.EnsureDefault(windowID) {
		s.persistTable(l.ctx)
		s.titles.Sync(l.ctx, windowID)
	}
	s.table.SetCurrent(windowID)
	s.publishStatus(l.ctx)
}

// TitleChanged re-applies the preface after the application renamed its
// window.
func (l *lifecycle) TitleChanged(windowID platform.WindowID) {
	defer l.handlePanic("title changed")

	s := l.svc
	if s.table.Has(windowID) {
		s.titles.Sync(l.ctx, windowID)
	}
}

func (l *lifecycle) handlePanic(event string) {
	if err := recover(); err != nil {
		l.svc.logger.Error("window event handler panic recovered", "event", event, "error", err)
	}
}
