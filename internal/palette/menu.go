package palette

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	backAction    = "__back__"
	submenuPrefix = "__submenu__:"
)

// MenuItem is a row that either returns an action or opens a submenu.
type MenuItem struct {
	Label    string
	Action   string
	Icon     string
	Meta     string
	IsHeader bool
	IsActive bool
	Submenu  []MenuItem
}

func (m MenuItem) IsParent() bool {
	return len(m.Submenu) > 0
}

// Menu navigates nested MenuItems with a Backend.
type Menu struct {
	backend Backend
	prompt  string
	message string
	root    []MenuItem
}

func NewMenu(backend Backend, prompt string, items []MenuItem) *Menu {
	return &Menu{backend: backend, prompt: prompt, root: items}
}

// SetMessage sets the text shown in the message bar, where supported.
func (m *Menu) SetMessage(msg string) {
	m.message = msg
}

// Show returns the action of the chosen leaf. Cancelling at the top level
// returns ErrCancelled; inside a submenu it goes back one level.
func (m *Menu) Show(ctx context.Context) (string, error) {
	return m.showLevel(ctx, m.root, nil)
}

func (m *Menu) showLevel(ctx context.Context, items []MenuItem, breadcrumb []string) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("menu: no items to show")
	}

	prompt := m.prompt
	if len(breadcrumb) > 0 {
		prompt = breadcrumb[len(breadcrumb)-1]
	}

	for {
		rows := make([]Item, 0, len(items)+1)
		if len(breadcrumb) > 0 {
			rows = append(rows, Item{Label: "← Back", Action: backAction, Icon: "go-previous"})
		}
		for i, item := range items {
			row := Item{
				Label:    item.Label,
				Action:   item.Action,
				Icon:     item.Icon,
				Meta:     item.Meta,
				IsHeader: item.IsHeader,
				IsActive: item.IsActive,
			}
			if item.IsParent() {
				row.Label += " →"
				row.Action = submenuPrefix + strconv.Itoa(i)
			}
			rows = append(rows, row)
		}

		chosen, err := m.backend.Show(ctx, prompt, rows, m.message)
		if err != nil {
			return "", err
		}

		switch {
		case chosen.IsHeader, strings.TrimSpace(chosen.Action) == "":
			// Backends without non-selectable rows let headers through.
			continue
		case chosen.Action == backAction:
			return "", ErrCancelled
		case strings.HasPrefix(chosen.Action, submenuPrefix):
			idx, err := strconv.Atoi(strings.TrimPrefix(chosen.Action, submenuPrefix))
			if err != nil || idx < 0 || idx >= len(items) || !items[idx].IsParent() {
				continue
			}
			action, err := m.showLevel(ctx, items[idx].Submenu, append(breadcrumb, items[idx].Label))
			if errors.Is(err, ErrCancelled) {
				continue
			}
			return action, err
		default:
			return chosen.Action, nil
		}
	}
}
