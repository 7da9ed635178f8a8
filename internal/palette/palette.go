// Package palette shows launcher-style menus (rofi, fuzzel, wofi, dmenu) and
// builds the toggle popup on top of them.
package palette

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCancelled is returned when the user closes the palette without choosing.
var ErrCancelled = errors.New("palette cancelled")

// Item is one row of a palette.
type Item struct {
	Label    string
	Action   string // returned on selection
	Icon     string
	Meta     string // hidden search keywords
	IsHeader bool   // non-selectable section header
	IsActive bool   // highlighted as currently on
}

// Capabilities describes what a backend can render.
type Capabilities struct {
	Icons         bool
	Markup        bool
	NonSelectable bool
	IndexOutput   bool // selection comes back as a row index
	MessageBar    bool
	RowStates     bool
}

// Backend shows a palette and returns the chosen row.
type Backend interface {
	Show(ctx context.Context, prompt string, items []Item, message string) (Item, error)
	Capabilities() Capabilities
}

var backendOrder = []string{"rofi", "fuzzel", "wofi", "dmenu"}

// DetectBackend returns the first palette program found in PATH.
func DetectBackend() (string, error) {
	for _, name := range backendOrder {
		if _, err := exec.LookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no palette backend found in PATH (looked for: %s)", strings.Join(backendOrder, ", "))
}

// NewBackend creates a backend by name: auto, rofi, fuzzel, wofi or dmenu.
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		detected, err := DetectBackend()
		if err != nil {
			return nil, err
		}
		name = detected
	}

	var b *dmenuBackend
	switch name {
	case "rofi":
		b = newRofi()
	case "fuzzel":
		b = newFuzzel()
	case "wofi":
		b = newWofi()
	case "dmenu":
		b = newDmenu()
	default:
		return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, %s)", name, strings.Join(backendOrder, ", "))
	}
	if _, err := exec.LookPath(b.command); err != nil {
		return nil, fmt.Errorf("palette backend %q not found in PATH", b.command)
	}
	return b, nil
}
