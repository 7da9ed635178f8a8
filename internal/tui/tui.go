// Package tui is a live terminal panel for the focused window's toggles.
package tui

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/wintoggle/internal/ipc"
	"github.com/1broseidon/wintoggle/internal/settings"
)

const refreshInterval = time.Second

// Daemon is the IPC surface the panel uses. *ipc.Client implements it.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	ListToggles(windowID uint32) (*ipc.TogglesData, error)
	Toggle(command string, windowID uint32, state *bool) (*ipc.ToggleData, error)
	SetGeneral(allowMultiple, notifyMe *bool) (*settings.General, error)
	Reload() error
}

var _ Daemon = (*ipc.Client)(nil)

// Run shows the panel until the user quits.
func Run(d Daemon) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	_, err := tea.NewProgram(newModel(d), tea.WithAltScreen()).Run()
	return err
}

type refreshMsg struct {
	status  *ipc.StatusData
	toggles *ipc.TogglesData
	err     error
}

type tickMsg time.Time

type actionMsg struct {
	note string
	err  error
}

// model is the root bubbletea model.
type model struct {
	daemon Daemon

	status  *ipc.StatusData
	toggles *ipc.TogglesData
	err     error
	note    string

	// Window the panel is pinned to; 0 follows focus.
	pinned   uint32
	selected int

	width  int
	height int
}

func newModel(d Daemon) model {
	return model{daemon: d}
}

func (m model) refresh() tea.Cmd {
	d, pinned := m.daemon, m.pinned
	return func() tea.Msg {
		st, err := d.GetStatus()
		if err != nil {
			return refreshMsg{err: err}
		}
		list, err := d.ListToggles(pinned)
		return refreshMsg{status: st, toggles: list, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tick())
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refresh(), tick())

	case refreshMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
			m.toggles = msg.toggles
			if n := m.toggleCount(); m.selected >= n && n > 0 {
				m.selected = n - 1
			}
		}
		return m, nil

	case actionMsg:
		m.note = msg.note
		if msg.err != nil {
			m.note = "error: " + msg.err.Error()
		}
		return m, m.refresh()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < m.toggleCount()-1 {
			m.selected++
		}
	case " ", "enter":
		if m.toggleCount() > 0 {
			return m, m.toggle(fmt.Sprintf("toggle-style-%d", m.selected+1))
		}
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return m, m.toggle("toggle-style-" + key)
	case "c":
		return m, m.toggle("toggle-style")
	case "p":
		// Pin to the window shown now, or follow focus again.
		if m.pinned != 0 {
			m.pinned = 0
			m.note = "following focus"
		} else if m.toggles != nil && m.toggles.WindowID != 0 {
			m.pinned = m.toggles.WindowID
			m.note = fmt.Sprintf("pinned to 0x%x", m.pinned)
		}
		return m, m.refresh()
	case "m":
		return m, m.setGeneral(true)
	case "n":
		return m, m.setGeneral(false)
	case "r":
		d := m.daemon
		return m, func() tea.Msg {
			return actionMsg{note: "reloaded", err: d.Reload()}
		}
	}
	return m, nil
}

func (m model) toggleCount() int {
	if m.toggles == nil {
		return 0
	}
	return len(m.toggles.Toggles)
}

func (m model) toggle(command string) tea.Cmd {
	d, pinned := m.daemon, m.pinned
	return func() tea.Msg {
		res, err := d.Toggle(command, pinned, nil)
		if err != nil {
			return actionMsg{err: err}
		}
		if !res.Applied {
			return actionMsg{note: "toggle is disabled or does not exist"}
		}
		return actionMsg{note: res.Change.Message()}
	}
}

// setGeneral flips allow-multiple (multiple=true) or notify-me.
func (m model) setGeneral(multiple bool) tea.Cmd {
	if m.toggles == nil {
		return nil
	}
	d, general := m.daemon, m.toggles.General
	return func() tea.Msg {
		var g *settings.General
		var err error
		if multiple {
			v := !general.AllowMultiple
			g, err = d.SetGeneral(&v, nil)
		} else {
			v := !general.NotifyMe
			g, err = d.SetGeneral(nil, &v)
		}
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{note: fmt.Sprintf("allow multiple: %t, notify: %t", g.AllowMultiple, g.NotifyMe)}
	}
}
