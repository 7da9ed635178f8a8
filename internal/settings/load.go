package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/1broseidon/wintoggle/internal/storage"
)

// LoadResult describes what Load had to do to produce usable settings.
type LoadResult struct {
	// FirstRun is set when defaults were written; callers should offer the
	// setup form.
	FirstRun bool
	// Reset explains why stored settings were replaced (empty when absent).
	Reset string
	// Migrated is set when stored settings were upgraded and rewritten.
	Migrated    bool
	FromVersion float64
}

// Load reads settings from store, initializing or migrating as needed.
// Storage failures are returned; unreadable blobs fall back to defaults.
func Load(ctx context.Context, store storage.Store) (Settings, LoadResult, error) {
	blobs, err := store.Get(ctx, KeyToggles, KeyGeneral)
	if err != nil {
		return Settings{}, LoadResult{}, fmt.Errorf("read settings: %w", err)
	}

	rawToggles, ok := blobs[KeyToggles]
	if !ok {
		return initialize(ctx, store, "")
	}

	var s Settings
	if err := json.Unmarshal(rawToggles, &s.Toggles); err != nil {
		return initialize(ctx, store, fmt.Sprintf("toggles are unreadable: %v", err))
	}
	if len(s.Toggles) == 0 {
		return initialize(ctx, store, "toggles are empty")
	}
	if rawGeneral, ok := blobs[KeyGeneral]; ok {
		if err := json.Unmarshal(rawGeneral, &s.General); err != nil {
			return initialize(ctx, store, fmt.Sprintf("general settings are unreadable: %v", err))
		}
	}

	res := LoadResult{FromVersion: s.General.SettingsVersion}
	migrated, changed := Migrate(s)
	if changed {
		if err := Save(ctx, store, migrated); err != nil {
			return Settings{}, LoadResult{}, err
		}
		res.Migrated = true
	}
	return migrated, res, nil
}

func initialize(ctx context.Context, store storage.Store, reason string) (Settings, LoadResult, error) {
	s := Defaults()
	if err := Save(ctx, store, s); err != nil {
		return Settings{}, LoadResult{}, err
	}
	return s, LoadResult{FirstRun: true, Reset: reason}, nil
}

// Save writes both settings blobs in one Set call.
func Save(ctx context.Context, store storage.Store, s Settings) error {
	toggles, err := json.Marshal(s.Toggles)
	if err != nil {
		return fmt.Errorf("encode toggles: %w", err)
	}
	general, err := json.Marshal(s.General)
	if err != nil {
		return fmt.Errorf("encode general settings: %w", err)
	}
	if err := store.Set(ctx, map[string]json.RawMessage{
		KeyToggles: toggles,
		KeyGeneral: general,
	}); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// SaveToggle replaces the definition at styleID.
func SaveToggle(ctx context.Context, store storage.Store, styleID int, def ToggleDefinition) (Settings, error) {
	if err := def.Validate(); err != nil {
		return Settings{}, err
	}
	s, _, err := Load(ctx, store)
	if err != nil {
		return Settings{}, err
	}
	if styleID < 1 || styleID > len(s.Toggles) {
		return Settings{}, fmt.Errorf("style %d does not exist (have %d)", styleID, len(s.Toggles))
	}
	def.LegacyState = nil
	s.Toggles[styleID-1] = def
	if err := Save(ctx, store, s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// AddToggle appends a definition and returns its styleID.
func AddToggle(ctx context.Context, store storage.Store, def ToggleDefinition) (Settings, int, error) {
	if err := def.Validate(); err != nil {
		return Settings{}, 0, err
	}
	s, _, err := Load(ctx, store)
	if err != nil {
		return Settings{}, 0, err
	}
	def.LegacyState = nil
	s.Toggles = append(s.Toggles, def)
	if err := Save(ctx, store, s); err != nil {
		return Settings{}, 0, err
	}
	return s, len(s.Toggles), nil
}

// SaveGeneral replaces the user-editable general options. The schema version
// is never taken from the caller.
func SaveGeneral(ctx context.Context, store storage.Store, allowMultiple, notifyMe bool) (Settings, error) {
	s, _, err := Load(ctx, store)
	if err != nil {
		return Settings{}, err
	}
	s.General.AllowMultiple = allowMultiple
	s.General.NotifyMe = notifyMe
	if err := Save(ctx, store, s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
