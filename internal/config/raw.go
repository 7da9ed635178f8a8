package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawNotifications struct {
	Backend   *string `yaml:"backend"`
	AppName   *string `yaml:"app_name"`
	TimeoutMS *int    `yaml:"timeout_ms"`
}

// RawConfig is one config file as written. Unset fields stay nil so files
// can be layered onto the defaults.
type RawConfig struct {
	Include                  IncludeList        `yaml:"include"`
	LogLevel                 *string            `yaml:"log_level"`
	Database                 *string            `yaml:"database"`
	Display                  *string            `yaml:"display"`
	XAuthority               *string            `yaml:"xauthority"`
	ButtonHotkey             *string            `yaml:"button_hotkey"`
	ClearHotkey              *string            `yaml:"clear_hotkey"`
	Hotkeys                  map[string]string  `yaml:"hotkeys"`
	PaletteBackend           *string            `yaml:"palette_backend"`
	Notifications            *RawNotifications  `yaml:"notifications"`
	ReconcileIntervalSeconds *int               `yaml:"reconcile_interval_seconds"`
	PersistWindowState       *bool              `yaml:"persist_window_state"`
	WatchConfig              *bool              `yaml:"watch_config"`
}

// merge layers overlay on top of c. Hotkey maps merge per command.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	out.Include = nil

	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.Database != nil {
		out.Database = overlay.Database
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.XAuthority != nil {
		out.XAuthority = overlay.XAuthority
	}
	if overlay.ButtonHotkey != nil {
		out.ButtonHotkey = overlay.ButtonHotkey
	}
	if overlay.ClearHotkey != nil {
		out.ClearHotkey = overlay.ClearHotkey
	}
	if overlay.Hotkeys != nil {
		merged := make(map[string]string, len(c.Hotkeys)+len(overlay.Hotkeys))
		for command, seq := range c.Hotkeys {
			merged[command] = seq
		}
		for command, seq := range overlay.Hotkeys {
			merged[command] = seq
		}
		out.Hotkeys = merged
	}
	if overlay.PaletteBackend != nil {
		out.PaletteBackend = overlay.PaletteBackend
	}
	if overlay.Notifications != nil {
		base := RawNotifications{}
		if c.Notifications != nil {
			base = *c.Notifications
		}
		merged := mergeRawNotifications(base, *overlay.Notifications)
		out.Notifications = &merged
	}
	if overlay.ReconcileIntervalSeconds != nil {
		out.ReconcileIntervalSeconds = overlay.ReconcileIntervalSeconds
	}
	if overlay.PersistWindowState != nil {
		out.PersistWindowState = overlay.PersistWindowState
	}
	if overlay.WatchConfig != nil {
		out.WatchConfig = overlay.WatchConfig
	}
	return out
}

func mergeRawNotifications(base RawNotifications, overlay RawNotifications) RawNotifications {
	out := base
	if overlay.Backend != nil {
		out.Backend = overlay.Backend
	}
	if overlay.AppName != nil {
		out.AppName = overlay.AppName
	}
	if overlay.TimeoutMS != nil {
		out.TimeoutMS = overlay.TimeoutMS
	}
	return out
}
