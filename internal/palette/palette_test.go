package palette

import (
	"context"
	"strings"
	"testing"

	"github.com/1broseidon/wintoggle/internal/settings"
	"github.com/1broseidon/wintoggle/internal/status"
)

func TestRofiFormatItem_UsesSingleNullSeparator(t *testing.T) {
	b := newRofi()

	out := b.formatItem(Item{Label: "Header", IsHeader: true, Icon: "folder", Meta: "meta"})

	if got := strings.Count(out, "\x00"); got != 1 {
		t.Fatalf("expected exactly 1 NUL separator, got %d (%q)", got, out)
	}
	if !strings.Contains(out, "<b>Header</b>") {
		t.Fatalf("expected bold header, got %q", out)
	}
	if !strings.Contains(out, "\x00nonselectable\x1ftrue") {
		t.Fatalf("expected nonselectable property, got %q", out)
	}
	if !strings.Contains(out, "icon\x1ffolder") || !strings.Contains(out, "meta\x1fmeta") {
		t.Fatalf("expected icon/meta attributes, got %q", out)
	}
}

func TestRofiFormatItem_EscapesMarkup(t *testing.T) {
	out := newRofi().formatItem(Item{Label: "<dark> & light"})
	if !strings.HasPrefix(out, "&lt;dark&gt; &amp; light") {
		t.Fatalf("label not escaped: %q", out)
	}
}

func TestRofiBuildArgs(t *testing.T) {
	b := newRofi()
	_, active := b.formatInput([]Item{{Label: "a"}, {Label: "b", IsActive: true}})
	args := b.buildArgs("prompt", "message", active)

	for _, pair := range [][2]string{{"-format", "i"}, {"-a", "1"}, {"-selected-row", "1"}, {"-mesg", "message"}} {
		if !containsArgs(args, pair[0], pair[1]) {
			t.Fatalf("expected %s %s in args, got %v", pair[0], pair[1], args)
		}
	}
}

func TestParseSelection(t *testing.T) {
	items := []Item{{Label: "a", Action: "a"}, {Label: "b", Action: "b"}}

	got, err := newFuzzel().parseSelection("1", items)
	if err != nil || got.Action != "b" {
		t.Fatalf("index selection = %+v, %v", got, err)
	}
	got, err = newDmenu().parseSelection("a", items)
	if err != nil || got.Action != "a" {
		t.Fatalf("label selection = %+v, %v", got, err)
	}
	if _, err := newRofi().parseSelection("7", items); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestFormatInput_DisambiguatesDuplicateLabels(t *testing.T) {
	b := newDmenu()
	items := []Item{{Label: "Dup", Action: "a"}, {Label: "Dup", Action: "b"}}

	b.formatInput(items)
	if items[0].Label != "Dup" || items[1].Label != "Dup (2)" {
		t.Fatalf("labels = %q, %q", items[0].Label, items[1].Label)
	}
}

func TestMenu_IgnoresHeaderSelection(t *testing.T) {
	m := NewMenu(&fakeBackend{picks: []string{"Header", "Do"}}, "test", []MenuItem{
		{Label: "Header", IsHeader: true},
		{Label: "Do", Action: "do"},
	})

	action, err := m.Show(context.Background())
	if err != nil || action != "do" {
		t.Fatalf("Show() = %q, %v", action, err)
	}
}

func TestMenu_BackReturnsToParent(t *testing.T) {
	m := NewMenu(&fakeBackend{picks: []string{"More →", "← Back", "Top"}}, "test", []MenuItem{
		{Label: "Top", Action: "top"},
		{Label: "More", Submenu: []MenuItem{{Label: "Deep", Action: "deep"}}},
	})

	action, err := m.Show(context.Background())
	if err != nil || action != "top" {
		t.Fatalf("Show() = %q, %v", action, err)
	}
}

func TestTogglePopup_Radio(t *testing.T) {
	items := []status.Item{
		{StyleID: 1, Name: "Dark", Active: true},
		{StyleID: 3, Name: "Compact"},
	}
	general := settings.General{}

	popup := NewTogglePopup(&fakeBackend{picks: []string{"( ) Compact"}})
	choice, err := popup.Choose(context.Background(), items, general)
	if err != nil {
		t.Fatalf("Choose() error: %v", err)
	}
	if choice.Command != "select-3" || choice.State == nil || !*choice.State {
		t.Fatalf("choice = %+v", choice)
	}

	popup = NewTogglePopup(&fakeBackend{picks: []string{"( ) None"}})
	choice, _ = popup.Choose(context.Background(), items, general)
	if choice.Command != "select-none" || choice.State != nil {
		t.Fatalf("none choice = %+v", choice)
	}
}

func TestTogglePopup_CheckboxFlips(t *testing.T) {
	items := []status.Item{{StyleID: 2, Name: "Dark", Active: true}}

	menu := ToggleMenu(items, settings.General{AllowMultiple: true})
	if menu[0].Label != "[x] Dark" || menu[0].Action != "select-2:off" {
		t.Fatalf("row = %+v", menu[0])
	}
	for _, row := range menu {
		if row.Action == noneCommand {
			t.Fatal("checkbox mode should not offer None")
		}
	}
}

func TestTogglePopup_SettingsSubmenu(t *testing.T) {
	popup := NewTogglePopup(&fakeBackend{picks: []string{"Settings →", "Notifications: on"}})
	choice, err := popup.Choose(context.Background(), nil, settings.General{NotifyMe: true})
	if err != nil {
		t.Fatalf("Choose() error: %v", err)
	}
	if choice.NotifyMe == nil || *choice.NotifyMe || choice.Command != "" {
		t.Fatalf("choice = %+v", choice)
	}
}

func TestParseAction_Rejects(t *testing.T) {
	for _, action := range []string{"noop", "select-1:maybe", "toggle-1:on"} {
		if _, err := ParseAction(action, settings.General{}); err == nil {
			t.Fatalf("ParseAction(%q) should fail", action)
		}
	}
}

// fakeBackend picks rows by label, one pick per Show call.
type fakeBackend struct {
	picks []string
	i     int
}

func (f *fakeBackend) Show(_ context.Context, _ string, items []Item, _ string) (Item, error) {
	if f.i >= len(f.picks) {
		return Item{}, ErrCancelled
	}
	pick := f.picks[f.i]
	f.i++
	for _, item := range items {
		if item.Label == pick {
			return item, nil
		}
	}
	return Item{}, ErrCancelled
}

func (f *fakeBackend) Capabilities() Capabilities {
	return Capabilities{}
}

func containsArgs(args []string, a, b string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == a && args[i+1] == b {
			return true
		}
	}
	return false
}
