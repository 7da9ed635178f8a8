// Package hotkeys grabs global key sequences and turns them into toggle
// commands.
package hotkeys

import (
	"sort"
)

// ButtonCommand is dispatched by the button hotkey.
const ButtonCommand = "button"

// ClearCommand has no style number, so it clears every toggle.
const ClearCommand = "toggle-style"

// Build returns the bindings for a configuration: the button, the clear key
// and one key per toggle command. Empty sequences are skipped. The result is
// sorted by command.
func Build(button, clear string, commands map[string]string) []Binding {
	var out []Binding
	if button != "" {
		out = append(out, Binding{Sequence: button, Command: ButtonCommand})
	}
	if clear != "" {
		out = append(out, Binding{Sequence: clear, Command: ClearCommand})
	}
	for command, seq := range commands {
		if seq == "" {
			continue
		}
		out = append(out, Binding{Sequence: seq, Command: command})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Command < out[j].Command
	})
	return out
}
