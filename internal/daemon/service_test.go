package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/wintoggle/internal/notify"
	"github.com/1broseidon/wintoggle/internal/palette"
	"github.com/1broseidon/wintoggle/internal/platform"
	"github.com/1broseidon/wintoggle/internal/settings"
	"github.com/1broseidon/wintoggle/internal/state"
	"github.com/1broseidon/wintoggle/internal/status"
	"github.com/1broseidon/wintoggle/internal/storage"
	"github.com/1broseidon/wintoggle/internal/toggle"
)

type fakeWM struct {
	mu       sync.Mutex
	windows  map[platform.WindowID]bool
	active   platform.WindowID
	prefaces map[platform.WindowID]string
	calls    []string
}

func newFakeWM(ids ...platform.WindowID) *fakeWM {
	wm := &fakeWM{windows: make(map[platform.WindowID]bool), prefaces: make(map[platform.WindowID]string)}
	for _, id := range ids {
		wm.windows[id] = true
	}
	return wm
}

func (f *fakeWM) SetTitlePreface(id platform.WindowID, preface string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "title")
	if !f.windows[id] {
		return platform.ErrStaleWindow
	}
	f.prefaces[id] = preface
	return nil
}

func (f *fakeWM) Window(id platform.WindowID) (platform.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.windows[id] {
		return platform.Window{}, platform.ErrStaleWindow
	}
	return platform.Window{ID: id}, nil
}

func (f *fakeWM) CurrentWindow() (platform.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return platform.Window{ID: f.active}, nil
}

func (f *fakeWM) ListWindows() ([]platform.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []platform.Window
	for id := range f.windows {
		out = append(out, platform.Window{ID: id})
	}
	return out, nil
}

func (f *fakeWM) preface(id platform.WindowID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefaces[id]
}

type sent struct {
	id string
	n  notify.Notification
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sent
}

func (f *fakeNotifier) Notify(_ context.Context, id string, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{id: id, n: n})
	return nil
}

type fakePublisher struct {
	label string
	popup bool
	count int
}

func (f *fakePublisher) PublishStatus(label string, popup bool) error {
	f.label, f.popup = label, popup
	f.count++
	return nil
}

type fakePopup struct {
	choice palette.Choice
	err    error
	seen   []status.Item
}

func (f *fakePopup) Choose(_ context.Context, items []status.Item, _ settings.General) (palette.Choice, error) {
	f.seen = items
	return f.choice, f.err
}

// failOnSet fails writes of the window table only.
type failOnSet struct {
	storage.Store
	fail bool
}

func (f *failOnSet) Set(ctx context.Context, items map[string]json.RawMessage) error {
	if _, ok := items[KeyWindowState]; ok && f.fail {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, items)
}

type harness struct {
	svc       *Service
	store     storage.Store
	wm        *fakeWM
	notifier  *fakeNotifier
	publisher *fakePublisher
	popup     *fakePopup
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newHarness(t *testing.T, s settings.Settings, store storage.Store) *harness {
	t.Helper()
	ctx := context.Background()
	if store == nil {
		store = storage.NewMemory()
	}
	if err := settings.Save(ctx, store, s); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	h := &harness{
		store:     store,
		wm:        newFakeWM(1, 2, 3),
		notifier:  &fakeNotifier{},
		publisher: &fakePublisher{},
		popup:     &fakePopup{},
	}
	svc, _, err := New(ctx, Options{
		Store:              store,
		WindowManager:      h.wm,
		Notifier:           h.notifier,
		Publisher:          h.publisher,
		Popup:              h.popup,
		PersistWindowState: true,
		Logger:             quietLogger(),
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	h.svc = svc
	return h
}

func prefixedSettings(enabled int, allowMultiple bool) settings.Settings {
	s := settings.Defaults()
	for i := range s.Toggles {
		s.Toggles[i].Prefix = string(rune('A' + i))
		s.Toggles[i].Enabled = i < enabled
	}
	s.General.AllowMultiple = allowMultiple
	return s
}

func TestApply_SideEffects(t *testing.T) {
	h := newHarness(t, prefixedSettings(1, false), nil)
	ctx := context.Background()
	h.svc.Events(ctx).FocusChanged(1)

	change, ok, err := h.svc.ApplyCommand(ctx, "toggle-style-1", nil)
	if err != nil || !ok {
		t.Fatalf("ApplyCommand() = %v, %v", ok, err)
	}
	if change.Message() != "Turned userchrome style on" {
		t.Fatalf("change = %+v", change)
	}
	if got := h.wm.preface(1); got != "A" {
		t.Fatalf("preface = %q, want A", got)
	}
	if h.publisher.label != "Turn userchrome style off" || h.publisher.popup {
		t.Fatalf("published %q popup=%v", h.publisher.label, h.publisher.popup)
	}
	if len(h.notifier.sent) != 1 || h.notifier.sent[0].id != "toggle-1" || h.notifier.sent[0].n.Title != notify.Title {
		t.Fatalf("notifications = %+v", h.notifier.sent)
	}

	blobs, _ := h.store.Get(ctx, KeyWindowState)
	snap, err := state.DecodeSnapshot(blobs[KeyWindowState])
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(snap.PerWindow[1], state.Row{true, false, false}) || snap.Current != 1 {
		t.Fatalf("persisted snapshot = %+v", snap)
	}
}

func TestApply_NoopForDisabledToggle(t *testing.T) {
	h := newHarness(t, prefixedSettings(1, false), nil)
	ctx := context.Background()
	h.svc.Events(ctx).FocusChanged(1)
	before := h.publisher.count

	_, ok, err := h.svc.ApplyCommand(ctx, "toggle-7", nil)
	if err != nil || ok {
		t.Fatalf("ApplyCommand(toggle-7) = %v, %v", ok, err)
	}
	if len(h.notifier.sent) != 0 || h.publisher.count != before {
		t.Fatal("no-op request produced side effects")
	}
}

func TestApply_NotifyMeOff(t *testing.T) {
	s := prefixedSettings(1, false)
	s.General.NotifyMe = false
	h := newHarness(t, s, nil)

	if _, _, err := h.svc.Apply(context.Background(), 2, toggle.Toggle(1)); err != nil {
		t.Fatal(err)
	}
	if len(h.notifier.sent) != 0 {
		t.Fatalf("notified with notifyMe off: %+v", h.notifier.sent)
	}
}

func TestApply_PersistFailureLeavesStateUntouched(t *testing.T) {
	store := &failOnSet{Store: storage.NewMemory()}
	h := newHarness(t, prefixedSettings(1, false), store)
	ctx := context.Background()
	h.svc.Events(ctx).FocusChanged(1)

	store.fail = true
	if _, _, err := h.svc.Apply(ctx, 1, toggle.Toggle(1)); err == nil {
		t.Fatal("expected persist error")
	}
	if row, _ := h.svc.Table().Row(1); row.ActiveCount() != 0 {
		t.Fatalf("row committed despite failure: %v", row)
	}
	if h.wm.preface(1) != "" || len(h.notifier.sent) != 0 {
		t.Fatal("side effects ran after a failed persist")
	}
}

func TestApply_WindowManagerErrorsAreSwallowed(t *testing.T) {
	h := newHarness(t, prefixedSettings(1, false), nil)
	ctx := context.Background()
	h.svc.Events(ctx).FocusChanged(1)

	// Window 1 closes before its destroy event is handled.
	h.wm.mu.Lock()
	delete(h.wm.windows, 1)
	h.wm.mu.Unlock()

	if _, ok, err := h.svc.Apply(ctx, 1, toggle.Toggle(1)); err != nil || !ok {
		t.Fatalf("Apply() = %v, %v", ok, err)
	}
}

func TestApply_UnknownWindowRejected(t *testing.T) {
	h := newHarness(t, prefixedSettings(1, false), nil)

	// Window 9 is not known to the window manager.
	_, ok, err := h.svc.Apply(context.Background(), 9, toggle.Toggle(1))
	if !errors.Is(err, platform.ErrStaleWindow) || ok {
		t.Fatalf("Apply() = %v, %v, want ErrStaleWindow", ok, err)
	}
	if h.svc.Table().Has(9) {
		t.Fatal("row created for a window that does not exist")
	}
	if len(h.notifier.sent) != 0 {
		t.Fatal("notified for a rejected request")
	}
}

func TestApply_UntrackedLiveWindowStartsInactive(t *testing.T) {
	h := newHarness(t, prefixedSettings(3, true), nil)
	ctx := context.Background()
	h.svc.Events(ctx).FocusChanged(1)
	h.svc.Apply(ctx, 1, toggle.Toggle(1))

	if _, ok, err := h.svc.Apply(ctx, 2, toggle.Toggle(3)); err != nil || !ok {
		t.Fatalf("Apply() = %v, %v", ok, err)
	}
	if row, _ := h.svc.Table().Row(2); !reflect.DeepEqual(row, state.Row{false, false, true}) {
		t.Fatalf("row = %v, want only toggle 3 active", row)
	}
}

// blockingNotifier waits until its context ends, like a hung notification
// server.
type blockingNotifier struct {
	deadline bool
}

func (b *blockingNotifier) Notify(ctx context.Context, _ string, _ notify.Notification) error {
	_, b.deadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func TestApply_NotificationIsBounded(t *testing.T) {
	old := notifyTimeout
	notifyTimeout = 10 * time.Millisecond
	t.Cleanup(func() { notifyTimeout = old })

	h := newHarness(t, prefixedSettings(1, false), nil)
	blocking := &blockingNotifier{}
	h.svc.notifier = blocking
	ctx := context.Background()
	h.svc.Events(ctx).FocusChanged(1)

	done := make(chan struct{})
	go func() {
		h.svc.Apply(ctx, 1, toggle.Toggle(1))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Apply blocked on the notifier")
	}
	if !blocking.deadline {
		t.Fatal("notification context had no deadline")
	}
	if h.wm.preface(1) != "A" {
		t.Fatalf("preface = %q", h.wm.preface(1))
	}
}

func TestApplyCommand_NoWindow(t *testing.T) {
	h := newHarness(t, prefixedSettings(1, false), nil)
	if _, _, err := h.svc.ApplyCommand(context.Background(), "toggle-style-1", nil); !errors.Is(err, ErrNoWindow) {
		t.Fatalf("err = %v, want ErrNoWindow", err)
	}

	h.wm.active = 3
	if _, ok, err := h.svc.ApplyCommand(context.Background(), "toggle-style-1", nil); err != nil || !ok {
		t.Fatalf("fallback to active window failed: %v %v", ok, err)
	}
}

func TestLifecycle_NewWindowClonesFocused(t *testing.T) {
	h := newHarness(t, prefixedSettings(3, true), nil)
	ctx := context.Background()
	events := h.svc.Events(ctx)

	events.WindowCreated(platform.Window{ID: 1})
	events.FocusChanged(1)
	h.svc.Apply(ctx, 1, toggle.Toggle(1))
	h.svc.Apply(ctx, 1, toggle.Toggle(3))

	events.WindowCreated(platform.Window{ID: 2})
	if row, _ := h.svc.Table().Row(2); !reflect.DeepEqual(row, state.Row{true, false, true}) {
		t.Fatalf("new window row = %v", row)
	}
	if h.wm.preface(2) != "AC" {
		t.Fatalf("new window preface = %q", h.wm.preface(2))
	}

	events.WindowDestroyed(1)
	events.WindowDestroyed(2)
	events.WindowCreated(platform.Window{ID: 3})
	if row, _ := h.svc.Table().Row(3); row.ActiveCount() != 0 {
		t.Fatalf("window after all closed = %v", row)
	}
}

func TestLifecycle_FocusWithoutRowStartsInactive(t *testing.T) {
	h := newHarness(t, prefixedSettings(3, true), nil)
	ctx := context.Background()
	events := h.svc.Events(ctx)

	events.WindowCreated(platform.Window{ID: 1})
	events.FocusChanged(1)
	h.svc.Apply(ctx, 1, toggle.Toggle(1))

	// Window 2 existed before the daemon started: no create event.
	events.FocusChanged(2)
	row, ok := h.svc.Table().Row(2)
	if !ok || !reflect.DeepEqual(row, state.Row{false, false, false}) {
		t.Fatalf("row(2) = %v, %v, want all inactive", row, ok)
	}
	if h.wm.preface(2) != "" {
		t.Fatalf("preface(2) = %q, want empty", h.wm.preface(2))
	}
	if view := h.svc.CurrentView(); view.WindowID != 2 {
		t.Fatalf("current view window = %d, want 2", view.WindowID)
	}
	if row, _ := h.svc.Table().Row(1); !row[0] {
		t.Fatalf("row(1) changed: %v", row)
	}
}

func TestLifecycle_CreateAfterFocusKeepsRow(t *testing.T) {
	h := newHarness(t, prefixedSettings(3, true), nil)
	ctx := context.Background()
	events := h.svc.Events(ctx)

	events.WindowCreated(platform.Window{ID: 1})
	events.FocusChanged(1)
	h.svc.Apply(ctx, 1, toggle.Toggle(1))

	// _NET_ACTIVE_WINDOW for window 2 arrives before _NET_CLIENT_LIST.
	events.FocusChanged(2)
	h.svc.Apply(ctx, 2, toggle.Toggle(2))
	events.WindowCreated(platform.Window{ID: 2})

	if row, _ := h.svc.Table().Row(2); !reflect.DeepEqual(row, state.Row{false, true, false}) {
		t.Fatalf("row(2) = %v, want the toggle made before the create event", row)
	}
	if h.wm.preface(2) != "B" {
		t.Fatalf("preface(2) = %q", h.wm.preface(2))
	}
}

func TestLifecycle_TitleChangedResyncs(t *testing.T) {
	h := newHarness(t, prefixedSettings(1, false), nil)
	ctx := context.Background()
	events := h.svc.Events(ctx)
	events.FocusChanged(1)
	h.svc.Apply(ctx, 1, toggle.Toggle(1))

	h.wm.mu.Lock()
	h.wm.prefaces[1] = ""
	h.wm.mu.Unlock()

	events.TitleChanged(1)
	if h.wm.preface(1) != "A" {
		t.Fatalf("preface not restored: %q", h.wm.preface(1))
	}
}

func TestClick(t *testing.T) {
	h := newHarness(t, prefixedSettings(1, false), nil)
	ctx := context.Background()
	h.svc.Events(ctx).FocusChanged(2)

	res, err := h.svc.Click(ctx)
	if err != nil || !res.Applied || res.Popup || !res.Change.Active {
		t.Fatalf("Click() = %+v, %v", res, err)
	}
}

func TestClick_OpensPopupWithTwoEnabled(t *testing.T) {
	h := newHarness(t, prefixedSettings(2, false), nil)
	ctx := context.Background()
	h.svc.Events(ctx).FocusChanged(2)
	if h.publisher.label != status.PopupLabel || !h.publisher.popup {
		t.Fatalf("published %q popup=%v", h.publisher.label, h.publisher.popup)
	}

	h.popup.err = palette.ErrCancelled
	res, err := h.svc.Click(ctx)
	if err != nil || !res.Popup || res.Applied {
		t.Fatalf("Click() = %+v, %v", res, err)
	}
}

func TestShowPopup_AppliesChoice(t *testing.T) {
	h := newHarness(t, prefixedSettings(3, false), nil)
	ctx := context.Background()
	on := true
	h.popup.choice = palette.Choice{Command: "select-2", State: &on}

	if err := h.svc.ShowPopup(ctx, 1); err != nil {
		t.Fatalf("ShowPopup() error: %v", err)
	}
	if row, _ := h.svc.Table().Row(1); !reflect.DeepEqual(row, state.Row{false, true, false}) {
		t.Fatalf("row = %v", row)
	}
	if len(h.popup.seen) != 3 {
		t.Fatalf("popup listed %d items", len(h.popup.seen))
	}

	h.popup.choice = palette.Choice{Command: "select-none"}
	h.svc.ShowPopup(ctx, 1)
	if row, _ := h.svc.Table().Row(1); row.ActiveCount() != 0 {
		t.Fatalf("select-none left %v", row)
	}
	if last := h.notifier.sent[len(h.notifier.sent)-1]; last.id != "toggle-all" || last.n.Message != "Turned all styles off" {
		t.Fatalf("last notification = %+v", last)
	}
}

func TestShowPopup_GeneralChoiceReloads(t *testing.T) {
	h := newHarness(t, prefixedSettings(3, true), nil)
	ctx := context.Background()
	h.svc.Apply(ctx, 1, toggle.Toggle(2))
	h.svc.Apply(ctx, 1, toggle.Toggle(3))

	off := false
	h.popup.choice = palette.Choice{AllowMultiple: &off}
	if err := h.svc.ShowPopup(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if h.svc.Settings().General.AllowMultiple {
		t.Fatal("allowMultiple not saved")
	}
	if row, _ := h.svc.Table().Row(1); !reflect.DeepEqual(row, state.Row{false, true, false}) {
		t.Fatalf("row not normalized: %v", row)
	}
	if h.wm.preface(1) != "B" {
		t.Fatalf("preface = %q", h.wm.preface(1))
	}
}

func TestReload_ResizesRows(t *testing.T) {
	h := newHarness(t, prefixedSettings(1, false), nil)
	ctx := context.Background()
	h.svc.Apply(ctx, 1, toggle.Toggle(1))

	if _, _, err := settings.AddToggle(ctx, h.store, settings.DefaultToggle(4)); err != nil {
		t.Fatal(err)
	}
	if err := h.svc.Reload(ctx); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if row, _ := h.svc.Table().Row(1); !reflect.DeepEqual(row, state.Row{true, false, false, false}) {
		t.Fatalf("row = %v", row)
	}
}

func TestNew_RestoresWindowState(t *testing.T) {
	store := storage.NewMemory()
	h := newHarness(t, prefixedSettings(1, false), store)
	ctx := context.Background()
	h.svc.Events(ctx).FocusChanged(2)
	h.svc.Apply(ctx, 2, toggle.Toggle(1))

	restarted, _, err := New(ctx, Options{
		Store:              store,
		WindowManager:      h.wm,
		Notifier:           h.notifier,
		PersistWindowState: true,
		Logger:             quietLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if row, _ := restarted.Table().Row(2); !row[0] {
		t.Fatalf("restored row = %v", row)
	}
	if id, _ := restarted.Table().Current(); id != 2 {
		t.Fatalf("restored current = %d", id)
	}
}

func TestReconciler(t *testing.T) {
	h := newHarness(t, prefixedSettings(1, false), nil)
	ctx := context.Background()
	events := h.svc.Events(ctx)
	events.WindowCreated(platform.Window{ID: 1})
	events.WindowCreated(platform.Window{ID: 2})
	events.FocusChanged(1)

	h.wm.mu.Lock()
	delete(h.wm.windows, 1)
	h.wm.windows[4] = true
	h.wm.active = 4
	h.wm.mu.Unlock()

	r := NewReconciler(ReconcilerConfig{Interval: time.Second, Logger: quietLogger()}, h.svc, events)
	r.ReconcileNow()

	if h.svc.Table().Has(1) {
		t.Fatal("vanished window kept its row")
	}
	if !h.svc.Table().Has(4) {
		t.Fatal("focused window got no row")
	}
	if id, _ := h.svc.Table().Current(); id != 4 {
		t.Fatalf("current = %d, want 4", id)
	}
}

func TestReconciler_RunStopsOnCancel(t *testing.T) {
	h := newHarness(t, prefixedSettings(1, false), nil)
	r := NewReconciler(ReconcilerConfig{Interval: time.Millisecond, Logger: quietLogger()}, h.svc, h.svc.Events(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}
