package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	labelStyle    = lipgloss.NewStyle().Bold(true).MarginBottom(1)
)

// View implements tea.Model.
func (m model) View() string {
	width := m.width
	if width == 0 {
		width = 80
	}

	var body strings.Builder
	switch {
	case m.err != nil:
		body.WriteString(errorStyle.Render(m.err.Error()))
		body.WriteString("\n")
	case m.toggles == nil:
		body.WriteString("loading...\n")
	default:
		if m.status != nil {
			body.WriteString(labelStyle.Render("button: " + m.status.View.Status.Label))
			body.WriteString("\n")
		}
		for i, t := range m.toggles.Toggles {
			body.WriteString(m.renderToggle(i, t.Name, t.Prefix, t.Enabled, t.Active))
			body.WriteString("\n")
		}
	}
	if m.note != "" {
		body.WriteString("\n" + m.note + "\n")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatusBar(width),
		body.String(),
		renderHelpBar(width),
	)
}

func (m model) renderToggle(i int, name, prefix string, enabled, active bool) string {
	box := "[ ]"
	if active {
		box = "[x]"
	}
	line := fmt.Sprintf("%s %d  %-24s %s", box, i+1, name, strconv.QuoteToASCII(prefix))

	switch {
	case i == m.selected:
		return selectedStyle.Render(line)
	case !enabled:
		return disabledStyle.Render(line + " (disabled)")
	case active:
		return activeStyle.Render(line)
	}
	return line
}

// renderStatusBar renders the top status line with daemon and window info.
func (m model) renderStatusBar(width int) string {
	var status string
	if m.err == nil && m.toggles != nil {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		parts := []string{dot + " daemon connected", fmt.Sprintf("window:0x%x", m.toggles.WindowID)}
		if m.pinned != 0 {
			parts = append(parts, "pinned")
		}
		parts = append(parts, fmt.Sprintf("multiple:%t", m.toggles.General.AllowMultiple))
		parts = append(parts, fmt.Sprintf("notify:%t", m.toggles.General.NotifyMe))
		status = strings.Join(parts, "  ")
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		status = dot + " daemon not running"
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(status)
}

// renderHelpBar renders the bottom help/keybinding bar.
func renderHelpBar(width int) string {
	help := "↑/↓ space: toggle  1-9: toggle N  c: clear  p: pin window  m/n: multiple/notify  r: reload  q: quit"
	style := lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	return style.Render(help)
}
