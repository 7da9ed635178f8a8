// Package daemon ties window events, toggle requests, title prefaces, button
// status and notifications together.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/wintoggle/internal/notify"
	"github.com/1broseidon/wintoggle/internal/palette"
	"github.com/1broseidon/wintoggle/internal/platform"
	"github.com/1broseidon/wintoggle/internal/settings"
	"github.com/1broseidon/wintoggle/internal/state"
	"github.com/1broseidon/wintoggle/internal/status"
	"github.com/1broseidon/wintoggle/internal/storage"
	"github.com/1broseidon/wintoggle/internal/title"
	"github.com/1broseidon/wintoggle/internal/toggle"
)

// KeyWindowState is the store key of the persisted per-window table.
const KeyWindowState = "per_window_toggles"

// ErrNoWindow is returned when a request has no window to act on.
var ErrNoWindow = errors.New("no focused window")

var errNoop = errors.New("toggle request has no effect")

// notifyTimeout bounds a notification so a stuck notification server cannot
// stall window event handling.
var notifyTimeout = 2 * time.Second

// Popup lets the user pick from the enabled toggles.
type Popup interface {
	Choose(ctx context.Context, items []status.Item, general settings.General) (palette.Choice, error)
}

// Options configures a Service. Store, WindowManager and Notifier are required.
type Options struct {
	Store         storage.Store
	WindowManager platform.WindowManager
	Notifier      notify.Notifier
	Publisher     platform.StatusPublisher
	Popup         Popup

	// PersistWindowState keeps the per-window table in the store so toggles
	// survive a daemon restart.
	PersistWindowState bool
	Logger             *slog.Logger
}

// Service owns the settings in effect and the per-window state table.
type Service struct {
	store     storage.Store
	wm        platform.WindowManager
	notifier  notify.Notifier
	publisher platform.StatusPublisher
	popup     Popup
	persist   bool
	logger    *slog.Logger

	mu       sync.RWMutex
	settings settings.Settings

	table  *state.Table
	titles *title.Synchronizer
}

// New loads settings (initializing or migrating them) and, when enabled, the
// persisted window table.
func New(ctx context.Context, opts Options) (*Service, settings.LoadResult, error) {
	if opts.Store == nil || opts.WindowManager == nil || opts.Notifier == nil {
		return nil, settings.LoadResult{}, fmt.Errorf("daemon: store, window manager and notifier are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	current, res, err := settings.Load(ctx, opts.Store)
	if err != nil {
		return nil, settings.LoadResult{}, err
	}
	if res.Reset != "" {
		logger.Warn("stored settings replaced with defaults", "reason", res.Reset)
	}
	if res.Migrated {
		logger.Info("settings migrated", "from", res.FromVersion, "to", settings.CurrentVersion)
	}

	s := &Service{
		store:     opts.Store,
		wm:        opts.WindowManager,
		notifier:  opts.Notifier,
		publisher: opts.Publisher,
		popup:     opts.Popup,
		persist:   opts.PersistWindowState,
		logger:    logger,
		settings:  current,
		table:     state.NewTable(len(current.Toggles)),
	}
	s.titles = title.NewSynchronizer(s.wm, s.table, s.Settings, logger)

	if s.persist {
		if err := s.restore(ctx); err != nil {
			return nil, settings.LoadResult{}, err
		}
	}
	return s, res, nil
}

// Settings returns a copy of the settings in effect.
func (s *Service) Settings() settings.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

// Table exposes the per-window state.
func (s *Service) Table() *state.Table {
	return s.table
}

func (s *Service) restore(ctx context.Context) error {
	blobs, err := s.store.Get(ctx, KeyWindowState)
	if err != nil {
		return fmt.Errorf("read window state: %w", err)
	}
	raw, ok := blobs[KeyWindowState]
	if !ok {
		return nil
	}
	snap, err := state.DecodeSnapshot(raw)
	if err != nil {
		s.logger.Warn("ignoring unreadable window state", "error", err)
		return nil
	}
	s.table.Restore(snap)
	s.logger.Debug("window state restored", "windows", s.table.Len())
	return nil
}

func (s *Service) saveSnapshot(ctx context.Context, snap state.Snapshot) error {
	if !s.persist {
		return nil
	}
	data, err := snap.Encode()
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, map[string]json.RawMessage{KeyWindowState: data}); err != nil {
		return fmt.Errorf("write window state: %w", err)
	}
	return nil
}

// persistTable writes the current table. Used after lifecycle changes where
// a failed write only costs the state of one window on restart.
func (s *Service) persistTable(ctx context.Context) {
	if err := s.saveSnapshot(ctx, s.table.Snapshot()); err != nil {
		s.logger.Warn("persist window state failed", "error", err)
	}
}

// ResolveWindow returns the window that hotkey and button actions target:
// the last focused window, or the window manager's active window when no
// focus change has been seen yet.
func (s *Service) ResolveWindow() (platform.WindowID, error) {
	if id, ok := s.table.Current(); ok {
		return id, nil
	}
	w, err := s.wm.CurrentWindow()
	if err != nil {
		return platform.NoWindow, fmt.Errorf("%w: %v", ErrNoWindow, err)
	}
	if w.ID == platform.NoWindow {
		return platform.NoWindow, ErrNoWindow
	}
	return w.ID, nil
}

// ApplyCommand parses a command id and applies it to the focused window.
func (s *Service) ApplyCommand(ctx context.Context, commandID string, explicit *bool) (toggle.Change, bool, error) {
	id, err := s.ResolveWindow()
	if err != nil {
		return toggle.Change{}, false, err
	}
	return s.Apply(ctx, id, toggle.ParseCommand(commandID, explicit))
}

// Apply runs req against windowID's row. It reports false when the request
// named a missing or disabled toggle; nothing is changed or shown then.
//
// On success the new row is persisted and committed together, then the title
// is synced, the button status republished and, if enabled, a notification
// shown.
func (s *Service) Apply(ctx context.Context, windowID platform.WindowID, req toggle.Request) (toggle.Change, bool, error) {
	if windowID == platform.NoWindow {
		return toggle.Change{}, false, ErrNoWindow
	}
	if !s.table.Has(windowID) {
		if _, err := s.wm.Window(windowID); err != nil {
			return toggle.Change{}, false, fmt.Errorf("window %d: %w", windowID, platform.ErrStaleWindow)
		}
		s.table.EnsureDefault(windowID)
	}

	current := s.Settings()
	var change toggle.Change
	_, err := s.table.UpdatePersisted(windowID, func(row state.Row) (state.Row, error) {
		next, ch, ok := toggle.Apply(current, row, req)
		if !ok {
			return nil, errNoop
		}
		change = ch
		return next, nil
	}, func(snap state.Snapshot) error {
		return s.saveSnapshot(ctx, snap)
	})
	if errors.Is(err, errNoop) {
		s.logger.Debug("toggle ignored", "window_id", windowID, "request", req.String())
		return toggle.Change{}, false, nil
	}
	if err != nil {
		return toggle.Change{}, false, fmt.Errorf("apply %s: %w", req, err)
	}

	s.logger.Info("toggled", "window_id", windowID, "style_id", change.StyleID, "name", change.Name, "state", change.State())

	s.titles.Sync(ctx, windowID)
	s.publishStatus(ctx)
	if current.General.NotifyMe {
		s.notify(ctx, change)
	}
	return change, true, nil
}

func (s *Service) notify(ctx context.Context, change toggle.Change) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	n := notify.Notification{Title: notify.Title, Message: change.Message()}
	if err := s.notifier.Notify(ctx, change.NotificationID(), n); err != nil {
		s.logger.Warn("notification failed", "error", err)
	}
}

// View is the button state of one window.
type View struct {
	WindowID platform.WindowID `json:"window_id"`
	Status   status.Status     `json:"status"`
	Items    []status.Item     `json:"items"`
	Preface  string            `json:"preface"`
	General  settings.General  `json:"general"`
}

// ViewFor describes windowID. A window without a row reads as all inactive.
func (s *Service) ViewFor(windowID platform.WindowID) View {
	current := s.Settings()
	row, _ := s.table.Row(windowID)
	return View{
		WindowID: windowID,
		Status:   status.Compute(current, row),
		Items:    status.Items(current, row),
		Preface:  title.Compose(current, row),
		General:  current.General,
	}
}

// CurrentView describes the focused window.
func (s *Service) CurrentView() View {
	id, _ := s.table.Current()
	return s.ViewFor(id)
}

func (s *Service) publishStatus(ctx context.Context) status.Status {
	st := s.CurrentView().Status
	if s.publisher == nil {
		return st
	}
	if err := s.publisher.PublishStatus(st.Label, st.Popup); err != nil {
		s.logger.Log(ctx, slog.LevelWarn, "publish status failed", "error", err)
	}
	return st
}

// ClickResult reports what the button did.
type ClickResult struct {
	Popup   bool          `json:"popup"`
	Applied bool          `json:"applied"`
	Change  toggle.Change `json:"change"`
}

// Click is the single-click affordance: with fewer than two toggles enabled
// it flips the lone toggle, otherwise it opens the popup in the background.
func (s *Service) Click(ctx context.Context) (ClickResult, error) {
	id, err := s.ResolveWindow()
	if err != nil {
		return ClickResult{}, err
	}

	st := s.ViewFor(id).Status
	if st.Popup {
		if s.popup == nil {
			return ClickResult{Popup: true}, fmt.Errorf("no popup backend available")
		}
		go func() {
			if err := s.ShowPopup(context.WithoutCancel(ctx), id); err != nil {
				s.logger.Warn("popup failed", "error", err)
			}
		}()
		return ClickResult{Popup: true}, nil
	}

	change, ok, err := s.Apply(ctx, id, toggle.Toggle(st.StyleID))
	return ClickResult{Applied: ok, Change: change}, err
}

// ShowPopup lists the toggles of windowID and applies the choice. It blocks
// until the popup closes.
func (s *Service) ShowPopup(ctx context.Context, windowID platform.WindowID) error {
	if s.popup == nil {
		return fmt.Errorf("no popup backend available")
	}
	view := s.ViewFor(windowID)
	choice, err := s.popup.Choose(ctx, view.Items, view.General)
	if errors.Is(err, palette.ErrCancelled) {
		return nil
	}
	if err != nil {
		return err
	}

	if choice.AllowMultiple != nil || choice.NotifyMe != nil {
		general := view.General
		if choice.AllowMultiple != nil {
			general.AllowMultiple = *choice.AllowMultiple
		}
		if choice.NotifyMe != nil {
			general.NotifyMe = *choice.NotifyMe
		}
		return s.SetGeneral(ctx, general.AllowMultiple, general.NotifyMe)
	}

	_, _, err = s.Apply(ctx, windowID, toggle.ParseCommand(choice.Command, choice.State))
	return err
}

// SetGeneral saves the general options and reloads.
func (s *Service) SetGeneral(ctx context.Context, allowMultiple, notifyMe bool) error {
	if _, err := settings.SaveGeneral(ctx, s.store, allowMultiple, notifyMe); err != nil {
		return err
	}
	return s.Reload(ctx)
}

// Reload re-reads settings after they were edited elsewhere. Rows follow the
// new toggle count; when only one toggle may be active, rows keep just the
// first active toggle, which is what their titles already show.
func (s *Service) Reload(ctx context.Context) error {
	next, res, err := settings.Load(ctx, s.store)
	if err != nil {
		return err
	}
	if res.Reset != "" {
		s.logger.Warn("stored settings replaced with defaults", "reason", res.Reset)
	}

	s.mu.Lock()
	s.settings = next
	s.mu.Unlock()

	s.table.Resize(len(next.Toggles))
	if !next.General.AllowMultiple {
		for _, id := range s.table.IDs() {
			_, err := s.table.Update(id, func(row state.Row) (state.Row, error) {
				return keepFirstActive(row), nil
			})
			if err != nil {
				s.logger.Debug("normalize row failed", "window_id", id, "error", err)
			}
		}
	}
	s.persistTable(ctx)

	s.titles.SyncAll(ctx)
	s.publishStatus(ctx)
	s.logger.Info("settings reloaded", "toggles", len(next.Toggles), "enabled", next.EnabledCount())
	return nil
}

func keepFirstActive(row state.Row) state.Row {
	seen := false
	for i, v := range row {
		if v && seen {
			row[i] = false
		}
		seen = seen || v
	}
	return row
}

// Start brings titles and the button in line with the restored state.
func (s *Service) Start(ctx context.Context) {
	s.titles.SyncAll(ctx)
	s.publishStatus(ctx)
}
