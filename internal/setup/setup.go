// Package setup edits the toggle catalog and general options interactively.
package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/1broseidon/wintoggle/internal/settings"
)

// ErrNotTerminal is returned when stdin or stdout is not a terminal.
var ErrNotTerminal = errors.New("setup needs an interactive terminal")

type toggleFields struct {
	name    string
	prefix  string
	enabled bool
}

// formValues holds the strings and flags bound to the form fields.
type formValues struct {
	toggles       []toggleFields
	allowMultiple bool
	notifyMe      bool
	addToggle     bool
}

func newFormValues(s settings.Settings) *formValues {
	v := &formValues{
		toggles:       make([]toggleFields, len(s.Toggles)),
		allowMultiple: s.General.AllowMultiple,
		notifyMe:      s.General.NotifyMe,
	}
	for i, def := range s.Toggles {
		v.toggles[i] = toggleFields{name: def.Name, prefix: def.Prefix, enabled: def.Enabled}
	}
	return v
}

// apply returns current with the edited values. A requested extra toggle
// starts from its built-in definition, enabled.
func (v *formValues) apply(current settings.Settings) settings.Settings {
	out := current.Clone()
	for i, f := range v.toggles {
		out.Toggles[i].Name = strings.TrimSpace(f.name)
		out.Toggles[i].Prefix = f.prefix
		out.Toggles[i].Enabled = f.enabled
		out.Toggles[i].LegacyState = nil
	}
	if v.addToggle {
		def := settings.DefaultToggle(len(out.Toggles) + 1)
		def.Enabled = true
		out.Toggles = append(out.Toggles, def)
	}
	out.General.AllowMultiple = v.allowMultiple
	out.General.NotifyMe = v.notifyMe
	return out
}

func validateName(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("name must not be empty")
	}
	return nil
}

func validatePrefix(s string) error {
	if s == "" {
		return fmt.Errorf("prefix must not be empty")
	}
	return nil
}

func buildForm(v *formValues) *huh.Form {
	groups := make([]*huh.Group, 0, len(v.toggles)+1)
	for i := range v.toggles {
		styleID := i + 1
		f := &v.toggles[i]

		prefixHelp := "Text shown before the window title while the toggle is on"
		if settings.IsDefaultPrefix(styleID, f.prefix) {
			prefixHelp = fmt.Sprintf("Built-in invisible prefix %s; replace it with visible text if you like", strconv.QuoteToASCII(f.prefix))
		}

		groups = append(groups, huh.NewGroup(
			huh.NewInput().
				Key(fmt.Sprintf("name_%d", styleID)).
				Title(fmt.Sprintf("Toggle %d: Name", styleID)).
				Description("Shown in the popup and in notifications").
				Validate(validateName).
				Value(&f.name),
			huh.NewInput().
				Key(fmt.Sprintf("prefix_%d", styleID)).
				Title(fmt.Sprintf("Toggle %d: Prefix", styleID)).
				Description(prefixHelp).
				Validate(validatePrefix).
				Value(&f.prefix),
			huh.NewConfirm().
				Key(fmt.Sprintf("enabled_%d", styleID)).
				Title(fmt.Sprintf("Toggle %d: Enabled", styleID)).
				Value(&f.enabled),
		))
	}

	groups = append(groups, huh.NewGroup(
		huh.NewConfirm().
			Key("allow_multiple").
			Title("Allow multiple toggles per window").
			Description("When off, turning one toggle on turns the others off").
			Value(&v.allowMultiple),
		huh.NewConfirm().
			Key("notify_me").
			Title("Notify on change").
			Value(&v.notifyMe),
		huh.NewConfirm().
			Key("add_toggle").
			Title("Add another toggle").
			Value(&v.addToggle),
	))

	return huh.NewForm(groups...).WithShowHelp(true).WithShowErrors(true)
}

// Run shows the settings form and returns the edited settings. The caller
// persists them.
func Run(ctx context.Context, current settings.Settings) (settings.Settings, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return settings.Settings{}, ErrNotTerminal
	}

	values := newFormValues(current)
	if err := buildForm(values).RunWithContext(ctx); err != nil {
		return settings.Settings{}, err
	}

	next := values.apply(current)
	if err := next.Validate(); err != nil {
		return settings.Settings{}, err
	}
	return next, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("8"))
)

// Summary renders the catalog as a table. active marks toggles that are on
// for some window; it may be nil.
func Summary(s settings.Settings, active []bool) string {
	rows := make([][]string, 0, len(s.Toggles))
	for i, def := range s.Toggles {
		enabled := "no"
		if def.Enabled {
			enabled = "yes"
		}
		row := []string{strconv.Itoa(i + 1), def.Name, strconv.QuoteToASCII(def.Prefix), enabled}
		if active != nil {
			state := "off"
			if i < len(active) && active[i] {
				state = "on"
			}
			row = append(row, state)
		}
		rows = append(rows, row)
	}

	headers := []string{"ID", "NAME", "PREFIX", "ENABLED"}
	if active != nil {
		headers = append(headers, "ACTIVE")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(s.Toggles) && !s.Toggles[row].Enabled {
				return dimStyle
			}
			return cellStyle
		})

	general := fmt.Sprintf("allow multiple: %t  notify: %t  settings version: %g",
		s.General.AllowMultiple, s.General.NotifyMe, s.General.SettingsVersion)
	return t.String() + "\n" + general
}
