// Package title keeps each window's title preface in line with its toggles.
package title

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/1broseidon/wintoggle/internal/platform"
	"github.com/1broseidon/wintoggle/internal/settings"
	"github.com/1broseidon/wintoggle/internal/state"
)

// Compose builds the preface for row: the prefixes of active toggles in
// definition order. When only one toggle may be active it stops at the first.
func Compose(s settings.Settings, row state.Row) string {
	var b strings.Builder
	for i, def := range s.Toggles {
		if i >= len(row) {
			break
		}
		if !row[i] {
			continue
		}
		b.WriteString(def.Prefix)
		if !s.General.AllowMultiple {
			break
		}
	}
	return b.String()
}

// SettingsFunc returns the settings currently in effect.
type SettingsFunc func() settings.Settings

// Synchronizer pushes composed prefaces to the window manager.
type Synchronizer struct {
	wm       platform.WindowManager
	table    *state.Table
	settings SettingsFunc
	logger   *slog.Logger
}

func NewSynchronizer(wm platform.WindowManager, table *state.Table, current SettingsFunc, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{wm: wm, table: table, settings: current, logger: logger}
}

// Sync sets the preface of windowID from its current row. A window without a
// row gets an empty preface. Failures from the window manager are logged and
// dropped: the window may have closed in the meantime.
func (s *Synchronizer) Sync(ctx context.Context, windowID platform.WindowID) string {
	if windowID == platform.NoWindow {
		return ""
	}
	row, _ := s.table.Row(windowID)
	preface := Compose(s.settings(), row)

	if err := s.wm.SetTitlePreface(windowID, preface); err != nil {
		level := slog.LevelWarn
		if errors.Is(err, platform.ErrStaleWindow) {
			level = slog.LevelDebug
		}
		s.logger.Log(ctx, level, "set title preface failed", "window", windowID, "error", err)
	}
	return preface
}

// SyncAll re-applies the preface of every tracked window.
func (s *Synchronizer) SyncAll(ctx context.Context) {
	for _, id := range s.table.IDs() {
		if ctx.Err() != nil {
			return
		}
		s.Sync(ctx, id)
	}
}
