package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if len(cfg.Hotkeys) != 3 {
		t.Fatalf("expected 3 default toggle hotkeys, got %d", len(cfg.Hotkeys))
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.ButtonHotkey != "Mod4-Mod1-t" || len(res.Files) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.LogLevel != "info" || !res.Config.PersistWindowState {
		t.Fatalf("expected defaults, got %+v", res.Config)
	}
}

func TestLoadFromPath_Overrides(t *testing.T) {
	data := strings.Join([]string{
		"log_level: debug",
		"database: memory",
		"palette_backend: rofi",
		"hotkeys:",
		"  toggle-style-3: \"\"",
		"  toggle-style-4: Mod4-Mod1-4",
		"notifications:",
		"  backend: log",
		"reconcile_interval_seconds: 0",
		"",
	}, "\n")
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.LogLevel != "debug" || cfg.DatabasePath() != MemoryDatabase || cfg.PaletteBackend != "rofi" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if _, ok := cfg.Hotkeys["toggle-style-3"]; ok {
		t.Fatalf("empty hotkey should unbind the command")
	}
	if cfg.Hotkeys["toggle-style-4"] != "Mod4-Mod1-4" || cfg.Hotkeys["toggle-style-1"] != "Mod4-Mod1-1" {
		t.Fatalf("hotkeys = %v", cfg.Hotkeys)
	}
	if cfg.Notifications.Backend != "log" || cfg.Notifications.AppName != "wintoggle" {
		t.Fatalf("notifications = %+v", cfg.Notifications)
	}

	if src := res.Explain("log_level"); src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("log_level source = %+v", src)
	}
	if src := res.Explain("button_hotkey"); src.Kind != SourceDefault {
		t.Fatalf("button_hotkey source = %+v", src)
	}
}

func TestLoadFromPath_RejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "gap_size: 4\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestLoadFromPath_ValidationErrorHasSource(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# header\nlog_level: loud\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "log_level" || verr.Source.Line != 2 {
		t.Fatalf("unexpected validation error: %+v", verr)
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Fatalf("error should carry the line: %v", err)
	}
}

func TestValidate_DuplicateKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClearHotkey = cfg.ButtonHotkey

	err := cfg.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path != "clear_hotkey" {
		t.Fatalf("expected clear_hotkey conflict, got %v", err)
	}
}

func TestValidate_BadCommand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hotkeys["Toggle Style"] = "Mod4-x"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected invalid command error")
	}
}

func TestLoadFromPath_Includes(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "keys.yaml", "button_hotkey: Mod4-b\nlog_level: warning\n")
	path := writeConfig(t, dir, "config.yaml", "include: keys.yaml\nlog_level: error\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.ButtonHotkey != "Mod4-b" || res.Config.LogLevel != "error" {
		t.Fatalf("include merge wrong: %+v", res.Config)
	}
	if len(res.Files) != 2 {
		t.Fatalf("files = %v", res.Files)
	}
}

func TestLoadFromPath_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include: b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include: a.yaml\n")

	_, err := LoadFromPath(filepath.Join(dir, "a.yaml"))
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.ButtonHotkey = "Mod4-F12"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.ButtonHotkey != "Mod4-F12" {
		t.Fatalf("button_hotkey = %q", res.Config.ButtonHotkey)
	}
}

func TestDatabasePath_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	cfg.Database = "~/toggles.db"
	if got := cfg.DatabasePath(); got != filepath.Join(home, "toggles.db") {
		t.Fatalf("DatabasePath() = %q", got)
	}
}

func TestWatcher_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "log_level: info\n")

	changed := make(chan struct{}, 1)
	w, err := NewWatcher(path, 10*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeConfig(t, dir, "other.yaml", "ignored: true\n")
	writeConfig(t, dir, "config.yaml", "log_level: debug\n")

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
