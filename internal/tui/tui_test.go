package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/wintoggle/internal/daemon"
	"github.com/1broseidon/wintoggle/internal/ipc"
	"github.com/1broseidon/wintoggle/internal/settings"
	"github.com/1broseidon/wintoggle/internal/status"
	"github.com/1broseidon/wintoggle/internal/toggle"
)

type fakeDaemon struct {
	down     bool
	toggled  []string
	windows  []uint32
	general  settings.General
	reloaded bool
}

func (f *fakeDaemon) GetStatus() (*ipc.StatusData, error) {
	if f.down {
		return nil, errors.New("failed to connect to daemon")
	}
	return &ipc.StatusData{View: daemon.View{WindowID: 5, Status: status.Status{Label: status.PopupLabel, Popup: true}}}, nil
}

func (f *fakeDaemon) ListToggles(windowID uint32) (*ipc.TogglesData, error) {
	return &ipc.TogglesData{
		WindowID: 5,
		General:  f.general,
		Toggles: []ipc.ToggleInfo{
			{StyleID: 1, Name: "dark", Prefix: "D", Enabled: true, Active: true},
			{StyleID: 2, Name: "compact", Prefix: "C", Enabled: true},
			{StyleID: 3, Name: "Style 3", Prefix: "\u200C"},
		},
	}, nil
}

func (f *fakeDaemon) Toggle(command string, windowID uint32, state *bool) (*ipc.ToggleData, error) {
	f.toggled = append(f.toggled, command)
	f.windows = append(f.windows, windowID)
	return &ipc.ToggleData{Applied: true, Change: toggle.Change{StyleID: 2, Name: "compact", Active: true}}, nil
}

func (f *fakeDaemon) SetGeneral(allowMultiple, notifyMe *bool) (*settings.General, error) {
	if allowMultiple != nil {
		f.general.AllowMultiple = *allowMultiple
	}
	if notifyMe != nil {
		f.general.NotifyMe = *notifyMe
	}
	g := f.general
	return &g, nil
}

func (f *fakeDaemon) Reload() error {
	f.reloaded = true
	return nil
}

func loaded(t *testing.T, d *fakeDaemon) model {
	t.Helper()
	m := newModel(d)
	next, _ := m.Update(m.refresh()())
	return next.(model)
}

// press sends key and runs the command it returns, feeding the result back.
func press(t *testing.T, m model, key tea.KeyMsg) model {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(model)
	if cmd == nil {
		return m
	}
	if msg := cmd(); msg != nil {
		next, _ = m.Update(msg)
		m = next.(model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_ShowsToggles(t *testing.T) {
	m := loaded(t, &fakeDaemon{})
	out := m.View()

	for _, want := range []string{"daemon connected", "window:0x5", "[x] 1", "compact", "(disabled)", status.PopupLabel} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestView_DaemonDown(t *testing.T) {
	m := loaded(t, &fakeDaemon{down: true})
	if out := m.View(); !strings.Contains(out, "daemon not running") {
		t.Fatalf("view = %s", out)
	}
}

func TestKeys_Toggle(t *testing.T) {
	d := &fakeDaemon{}
	m := loaded(t, d)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.selected != 1 {
		t.Fatalf("selected = %d", m.selected)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m = press(t, m, runes("3"))
	m = press(t, m, runes("c"))

	want := []string{"toggle-style-2", "toggle-style-3", "toggle-style"}
	if strings.Join(d.toggled, ",") != strings.Join(want, ",") {
		t.Fatalf("toggled = %v, want %v", d.toggled, want)
	}
	if m.note != "Turned compact on" {
		t.Fatalf("note = %q", m.note)
	}
}

func TestKeys_SelectionStaysInRange(t *testing.T) {
	m := loaded(t, &fakeDaemon{})
	for i := 0; i < 5; i++ {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.selected != 2 {
		t.Fatalf("selected = %d, want 2", m.selected)
	}
	for i := 0; i < 5; i++ {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	}
	if m.selected != 0 {
		t.Fatalf("selected = %d, want 0", m.selected)
	}
}

func TestKeys_PinWindow(t *testing.T) {
	d := &fakeDaemon{}
	m := loaded(t, d)

	m = press(t, m, runes("p"))
	if m.pinned != 5 {
		t.Fatalf("pinned = %d", m.pinned)
	}
	m = press(t, m, runes("1"))
	if d.windows[0] != 5 {
		t.Fatalf("toggle sent to window %d, want 5", d.windows[0])
	}
	m = press(t, m, runes("p"))
	if m.pinned != 0 {
		t.Fatalf("pinned = %d after unpin", m.pinned)
	}
}

func TestKeys_GeneralAndReload(t *testing.T) {
	d := &fakeDaemon{general: settings.General{NotifyMe: true}}
	m := loaded(t, d)

	m = press(t, m, runes("m"))
	if !d.general.AllowMultiple {
		t.Fatal("allow multiple not flipped")
	}
	m = press(t, m, runes("n"))
	if d.general.NotifyMe {
		t.Fatal("notify not flipped")
	}
	press(t, m, runes("r"))
	if !d.reloaded {
		t.Fatal("reload not sent")
	}
}

func TestKeys_Quit(t *testing.T) {
	m := loaded(t, &fakeDaemon{})
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
