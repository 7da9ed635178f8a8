package settings

import (
	"reflect"
	"testing"
)

func boolPtr(v bool) *bool { return &v }

func legacyV1() Settings {
	return Settings{
		Toggles: []ToggleDefinition{
			{Name: "userchrome style", Prefix: "A", Enabled: true, LegacyState: boolPtr(true)},
			{Name: "Style 2", Prefix: "B", Enabled: false, LegacyState: boolPtr(false)},
		},
		General: General{AllowMultiple: true, SettingsVersion: 1},
	}
}

func TestMigrate_FromV1(t *testing.T) {
	in := legacyV1()
	out, changed := Migrate(in)
	if !changed {
		t.Fatalf("expected migration to report a change")
	}
	if out.General.SettingsVersion != CurrentVersion {
		t.Fatalf("settingsVersion = %v, want %v", out.General.SettingsVersion, CurrentVersion)
	}
	if !out.General.NotifyMe {
		t.Fatalf("expected notifyMe to default to true")
	}
	if !out.General.AllowMultiple {
		t.Fatalf("expected allowMultiple to be preserved")
	}
	if len(out.Toggles) != DefaultToggleCount {
		t.Fatalf("expected toggles padded to %d, got %d", DefaultToggleCount, len(out.Toggles))
	}
	for i, tg := range out.Toggles {
		if tg.LegacyState != nil {
			t.Fatalf("toggle %d still carries legacy state", i+1)
		}
	}
	if out.Toggles[0].Prefix != "A" || out.Toggles[2].Name != "Style 3" {
		t.Fatalf("unexpected toggles after migration: %+v", out.Toggles)
	}

	if in.Toggles[0].LegacyState == nil || len(in.Toggles) != 2 {
		t.Fatalf("Migrate modified its input")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	once, _ := Migrate(legacyV1())
	twice, changed := Migrate(once)
	if changed {
		t.Fatalf("second migration should be a no-op")
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("migrate(migrate(s)) != migrate(s):\n%+v\n%+v", once, twice)
	}
}

func TestMigrate_OnlyNewerStepsRun(t *testing.T) {
	s := Defaults()
	s.General.SettingsVersion = 1.1
	s.General.NotifyMe = false

	out, changed := Migrate(s)
	if !changed {
		t.Fatalf("expected 1.1 -> %v upgrade", CurrentVersion)
	}
	if out.General.NotifyMe {
		t.Fatalf("1.1 step re-ran and overwrote notifyMe")
	}
}

func TestMigrate_NeverDowngrades(t *testing.T) {
	s := Defaults()
	s.General.SettingsVersion = CurrentVersion + 1
	out, changed := Migrate(s)
	if changed {
		t.Fatalf("newer settings must be left alone")
	}
	if out.General.SettingsVersion < s.General.SettingsVersion {
		t.Fatalf("settingsVersion went backwards")
	}
}

func TestSteps_Ascending(t *testing.T) {
	for i := 1; i < len(Steps); i++ {
		if Steps[i].Version <= Steps[i-1].Version {
			t.Fatalf("step %q is not after %q", Steps[i].Name, Steps[i-1].Name)
		}
	}
	if last := Steps[len(Steps)-1].Version; last > CurrentVersion {
		t.Fatalf("step version %v exceeds CurrentVersion %v", last, CurrentVersion)
	}
}
