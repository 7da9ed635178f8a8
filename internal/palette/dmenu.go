package palette

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

type backendKind int

const (
	kindRofi backendKind = iota
	kindFuzzel
	kindWofi
	kindDmenu
)

// dmenuBackend drives any program that reads rows on stdin and prints the
// choice on stdout.
type dmenuBackend struct {
	command string
	kind    backendKind
	caps    Capabilities
}

func newRofi() *dmenuBackend {
	return &dmenuBackend{
		command: "rofi",
		kind:    kindRofi,
		caps: Capabilities{
			Icons:         true,
			Markup:        true,
			NonSelectable: true,
			IndexOutput:   true,
			MessageBar:    true,
			RowStates:     true,
		},
	}
}

func newFuzzel() *dmenuBackend {
	return &dmenuBackend{
		command: "fuzzel",
		kind:    kindFuzzel,
		caps:    Capabilities{Icons: true, IndexOutput: true},
	}
}

func newWofi() *dmenuBackend {
	return &dmenuBackend{
		command: "wofi",
		kind:    kindWofi,
		caps:    Capabilities{Icons: true, Markup: true},
	}
}

func newDmenu() *dmenuBackend {
	return &dmenuBackend{command: "dmenu", kind: kindDmenu}
}

func (b *dmenuBackend) Capabilities() Capabilities {
	return b.caps
}

func (b *dmenuBackend) Show(ctx context.Context, prompt string, items []Item, message string) (Item, error) {
	if len(items) == 0 {
		return Item{}, fmt.Errorf("palette: no items to show")
	}

	rows := make([]Item, len(items))
	copy(rows, items)

	input, active := b.formatInput(rows)
	cmd := exec.CommandContext(ctx, b.command, b.buildArgs(prompt, message, active)...)
	cmd.Stdin = strings.NewReader(input)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	selection := strings.TrimSpace(string(out))
	if err != nil {
		if selection == "" && isCancelExit(err) {
			return Item{}, ErrCancelled
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Item{}, fmt.Errorf("%s failed: %s", b.command, msg)
		}
		return Item{}, fmt.Errorf("%s failed: %w", b.command, err)
	}
	if selection == "" {
		return Item{}, ErrCancelled
	}
	return b.parseSelection(selection, rows)
}

func (b *dmenuBackend) buildArgs(prompt, message string, active []int) []string {
	var args []string

	switch b.kind {
	case kindRofi:
		args = []string{"-dmenu", "-i", "-format", "i", "-no-custom"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		args = append(args, "-markup-rows", "-show-icons")
		if len(active) > 0 {
			args = append(args, "-a", formatIndices(active), "-selected-row", strconv.Itoa(active[0]))
		}
		if message != "" {
			args = append(args, "-mesg", message)
		}
	case kindFuzzel:
		args = []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case kindWofi:
		args = []string{"--dmenu", "--allow-markup"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case kindDmenu:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}
	return args
}

// formatInput renders rows, one per line, and returns the indexes of active
// rows. Text-matching backends get duplicate labels numbered so a selection
// maps back to exactly one row.
func (b *dmenuBackend) formatInput(items []Item) (string, []int) {
	if !b.caps.IndexOutput {
		seen := make(map[string]int)
		for i := range items {
			key := sanitizeLabel(items[i].Label)
			if items[i].IsHeader || key == "" {
				continue
			}
			if n := seen[key]; n > 0 {
				items[i].Label = fmt.Sprintf("%s (%d)", key, n+1)
			}
			seen[key]++
		}
	}

	lines := make([]string, 0, len(items))
	var active []int
	for i, item := range items {
		lines = append(lines, b.formatItem(item))
		if item.IsActive && !item.IsHeader && b.caps.RowStates {
			active = append(active, i)
		}
	}
	return strings.Join(lines, "\n"), active
}

func (b *dmenuBackend) formatItem(item Item) string {
	display := sanitizeLabel(item.Label)
	if b.caps.Markup {
		display = html.EscapeString(display)
		if item.IsHeader {
			display = "<b>" + display + "</b>"
		}
	}
	if b.kind != kindRofi {
		return display
	}

	// rofi row properties: one NUL, then key\x1fvalue pairs.
	var attrs []string
	if item.IsHeader {
		attrs = append(attrs, "nonselectable", "true")
	}
	if item.Icon != "" {
		attrs = append(attrs, "icon", sanitizeRofiField(item.Icon))
	}
	if item.Meta != "" {
		attrs = append(attrs, "meta", sanitizeRofiField(item.Meta))
	}
	if len(attrs) == 0 {
		return display
	}
	return display + "\x00" + strings.Join(attrs, "\x1f")
}

func (b *dmenuBackend) parseSelection(selection string, items []Item) (Item, error) {
	if b.caps.IndexOutput {
		if idx, err := strconv.Atoi(selection); err == nil {
			if idx < 0 || idx >= len(items) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return items[idx], nil
		}
	}
	for _, item := range items {
		if sanitizeLabel(item.Label) == selection {
			return item, nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", selection)
}

func sanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, "\r", " ")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.TrimSpace(label)
}

func sanitizeRofiField(value string) string {
	value = strings.ReplaceAll(value, "\x00", " ")
	value = strings.ReplaceAll(value, "\x1f", " ")
	return sanitizeLabel(value)
}

func formatIndices(indices []int) string {
	parts := make([]string, 0, len(indices))
	for _, i := range indices {
		parts = append(parts, strconv.Itoa(i))
	}
	return strings.Join(parts, ",")
}

func isCancelExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	// 1 is "no selection", 130 is Ctrl+C.
	switch exitErr.ExitCode() {
	case 1, 130:
		return true
	default:
		return false
	}
}
