package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// MemoryDatabase keeps settings in memory only; they are lost on exit.
const MemoryDatabase = "memory"

// NotificationsConfig controls how toggle changes are announced.
type NotificationsConfig struct {
	Backend   string `yaml:"backend"`
	AppName   string `yaml:"app_name"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// Config is the effective daemon configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`
	Database string `yaml:"database"`

	// Display and XAuthority override the X server the daemon connects to.
	Display    string `yaml:"display,omitempty"`
	XAuthority string `yaml:"xauthority,omitempty"`

	ButtonHotkey string            `yaml:"button_hotkey"`
	ClearHotkey  string            `yaml:"clear_hotkey"`
	Hotkeys      map[string]string `yaml:"hotkeys"`

	PaletteBackend string              `yaml:"palette_backend"`
	Notifications  NotificationsConfig `yaml:"notifications"`

	ReconcileIntervalSeconds int  `yaml:"reconcile_interval_seconds"`
	PersistWindowState       bool `yaml:"persist_window_state"`
	WatchConfig              bool `yaml:"watch_config"`
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "wintoggle", "config.yaml"), nil
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.Getenv("HOME")
	}
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".local", "share", "wintoggle", "wintoggle.db")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		Database:     defaultDatabasePath(),
		ButtonHotkey: "Mod4-Mod1-t",
		ClearHotkey:  "Mod4-Mod1-0",
		Hotkeys: map[string]string{
			"toggle-style-1": "Mod4-Mod1-1",
			"toggle-style-2": "Mod4-Mod1-2",
			"toggle-style-3": "Mod4-Mod1-3",
		},
		PaletteBackend: "auto",
		Notifications: NotificationsConfig{
			Backend:   "auto",
			AppName:   "wintoggle",
			TimeoutMS: 3000,
		},
		ReconcileIntervalSeconds: 10,
		PersistWindowState:       true,
		WatchConfig:              true,
	}
}

// SlogLevel maps log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DatabasePath returns the database location with ~ expanded. It returns
// MemoryDatabase unchanged.
func (c *Config) DatabasePath() string {
	if c.Database == MemoryDatabase {
		return c.Database
	}
	path, err := expandHome(c.Database)
	if err != nil {
		return c.Database
	}
	return path
}

// HotkeyCommands returns the toggle hotkeys sorted by command.
func (c *Config) HotkeyCommands() []string {
	out := make([]string, 0, len(c.Hotkeys))
	for command := range c.Hotkeys {
		out = append(out, command)
	}
	sort.Strings(out)
	return out
}

var commandPattern = regexp.MustCompile(`^[a-z][a-z-]*[0-9]*$`)

func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if strings.TrimSpace(c.Database) == "" {
		return &ValidationError{Path: "database", Err: fmt.Errorf("database is required (use %q for no persistence)", MemoryDatabase)}
	}
	switch c.PaletteBackend {
	case "auto", "rofi", "fuzzel", "dmenu", "wofi":
	default:
		return &ValidationError{Path: "palette_backend", Err: fmt.Errorf("palette_backend must be one of: auto, rofi, fuzzel, dmenu, wofi")}
	}
	switch c.Notifications.Backend {
	case "auto", "dbus", "log":
	default:
		return &ValidationError{Path: "notifications.backend", Err: fmt.Errorf("backend must be one of: auto, dbus, log")}
	}
	if c.Notifications.TimeoutMS < 0 {
		return &ValidationError{Path: "notifications.timeout_ms", Err: fmt.Errorf("timeout_ms must be >= 0")}
	}
	if c.ReconcileIntervalSeconds < 0 {
		return &ValidationError{Path: "reconcile_interval_seconds", Err: fmt.Errorf("reconcile_interval_seconds must be >= 0")}
	}

	if c.Hotkeys == nil {
		return &ValidationError{Path: "hotkeys", Err: fmt.Errorf("hotkeys must not be null")}
	}
	owners := map[string]string{}
	claim := func(path, seq string) error {
		if seq == "" {
			return nil
		}
		if prev, ok := owners[seq]; ok {
			return &ValidationError{Path: path, Err: fmt.Errorf("key %q is already bound by %s", seq, prev)}
		}
		owners[seq] = path
		return nil
	}
	if err := claim("button_hotkey", c.ButtonHotkey); err != nil {
		return err
	}
	if err := claim("clear_hotkey", c.ClearHotkey); err != nil {
		return err
	}
	for _, command := range c.HotkeyCommands() {
		if !commandPattern.MatchString(command) {
			return &ValidationError{Path: "hotkeys." + command, Err: fmt.Errorf("command must look like toggle-style-N")}
		}
		if err := claim("hotkeys."+command, c.Hotkeys[command]); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the configuration to path.
//
// Note: this marshals the effective config and will not preserve comments or
// includes from the original YAML.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
