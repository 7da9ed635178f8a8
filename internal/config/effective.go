package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw on top of DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.Database != nil {
		cfg.Database = *raw.Database
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}
	if raw.ButtonHotkey != nil {
		cfg.ButtonHotkey = *raw.ButtonHotkey
	}
	if raw.ClearHotkey != nil {
		cfg.ClearHotkey = *raw.ClearHotkey
	}
	// A hotkeys map in a file extends the defaults; an empty string unbinds.
	for command, seq := range raw.Hotkeys {
		if seq == "" {
			delete(cfg.Hotkeys, command)
			continue
		}
		cfg.Hotkeys[command] = seq
	}
	if raw.PaletteBackend != nil {
		cfg.PaletteBackend = *raw.PaletteBackend
	}
	if n := raw.Notifications; n != nil {
		if n.Backend != nil {
			cfg.Notifications.Backend = *n.Backend
		}
		if n.AppName != nil {
			cfg.Notifications.AppName = *n.AppName
		}
		if n.TimeoutMS != nil {
			cfg.Notifications.TimeoutMS = *n.TimeoutMS
		}
	}
	if raw.ReconcileIntervalSeconds != nil {
		cfg.ReconcileIntervalSeconds = *raw.ReconcileIntervalSeconds
	}
	if raw.PersistWindowState != nil {
		cfg.PersistWindowState = *raw.PersistWindowState
	}
	if raw.WatchConfig != nil {
		cfg.WatchConfig = *raw.WatchConfig
	}

	return cfg, nil
}
