package palette

import (
	"context"
	"fmt"
	"strings"

	"github.com/1broseidon/wintoggle/internal/settings"
	"github.com/1broseidon/wintoggle/internal/status"
)

const (
	actionAllowMultiple = "general:allow-multiple"
	actionNotify        = "general:notify"
	noneCommand         = "select-none"
)

// Choice is what the user picked in the toggle popup. Exactly one of Command
// or a general option is set.
type Choice struct {
	// Command is a toggle command id such as "select-2" or "select-none".
	Command string
	State   *bool

	AllowMultiple *bool
	NotifyMe      *bool
}

// TogglePopup lists the enabled toggles of a window, plus a settings submenu
// for the general options.
type TogglePopup struct {
	backend Backend
}

func NewTogglePopup(backend Backend) *TogglePopup {
	return &TogglePopup{backend: backend}
}

// Choose shows the popup and returns the user's choice.
func (p *TogglePopup) Choose(ctx context.Context, items []status.Item, general settings.General) (Choice, error) {
	menu := NewMenu(p.backend, "wintoggle", ToggleMenu(items, general))
	if !general.AllowMultiple {
		menu.SetMessage("Only one style can be active")
	}
	action, err := menu.Show(ctx)
	if err != nil {
		return Choice{}, err
	}
	return ParseAction(action, general)
}

// ToggleMenu builds the popup rows. With a single active style allowed the
// list behaves like radio buttons and offers "None"; otherwise each row is a
// checkbox.
func ToggleMenu(items []status.Item, general settings.General) []MenuItem {
	menu := make([]MenuItem, 0, len(items)+2)
	for _, item := range items {
		mark := "[ ]"
		if !general.AllowMultiple {
			mark = "( )"
		}
		if item.Active {
			mark = strings.NewReplacer(" ", "x").Replace(mark)
		}

		next := !item.Active
		if !general.AllowMultiple {
			next = true
		}
		menu = append(menu, MenuItem{
			Label:    fmt.Sprintf("%s %s", mark, item.Name),
			Action:   fmt.Sprintf("select-%d:%s", item.StyleID, onOff(next)),
			IsActive: item.Active,
		})
	}
	if !general.AllowMultiple {
		menu = append(menu, MenuItem{Label: "( ) None", Action: noneCommand, Icon: "edit-clear"})
	}

	menu = append(menu, MenuItem{
		Label: "Settings",
		Icon:  "preferences-system",
		Submenu: []MenuItem{
			{
				Label:  fmt.Sprintf("Allow multiple styles: %s", onOff(general.AllowMultiple)),
				Action: actionAllowMultiple,
			},
			{
				Label:  fmt.Sprintf("Notifications: %s", onOff(general.NotifyMe)),
				Action: actionNotify,
			},
		},
	})
	return menu
}

// ParseAction converts a popup action back into a Choice.
func ParseAction(action string, general settings.General) (Choice, error) {
	switch action {
	case actionAllowMultiple:
		v := !general.AllowMultiple
		return Choice{AllowMultiple: &v}, nil
	case actionNotify:
		v := !general.NotifyMe
		return Choice{NotifyMe: &v}, nil
	case noneCommand:
		return Choice{Command: noneCommand}, nil
	}

	command, state, ok := strings.Cut(action, ":")
	if !ok || !strings.HasPrefix(command, "select-") {
		return Choice{}, fmt.Errorf("palette: unknown toggle action %q", action)
	}
	var on bool
	switch state {
	case "on":
		on = true
	case "off":
	default:
		return Choice{}, fmt.Errorf("palette: unknown toggle state %q", state)
	}
	return Choice{Command: command, State: &on}, nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
