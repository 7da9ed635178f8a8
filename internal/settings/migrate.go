package settings

// CurrentVersion is the schema version written by this build.
const CurrentVersion = 1.2

// Step upgrades settings stored below Version.
type Step struct {
	Version float64
	Name    string
	Apply   func(*Settings)
}

// Steps run in ascending Version order.
var Steps = []Step{
	{
		Version: 1.1,
		Name:    "introduce notifyMe",
		Apply: func(s *Settings) {
			s.General.NotifyMe = true
		},
	},
	{
		Version: 1.2,
		Name:    "per-window state",
		Apply: func(s *Settings) {
			for i := range s.Toggles {
				s.Toggles[i].LegacyState = nil
			}
			for len(s.Toggles) < DefaultToggleCount {
				s.Toggles = append(s.Toggles, DefaultToggle(len(s.Toggles)+1))
			}
		},
	},
}

// Migrate applies every step newer than the stored version and stamps
// CurrentVersion. Settings already at or past CurrentVersion are returned
// unchanged. The input is not modified.
func Migrate(stored Settings) (Settings, bool) {
	if stored.General.SettingsVersion >= CurrentVersion {
		return stored, false
	}

	out := stored.Clone()
	for _, step := range Steps {
		if out.General.SettingsVersion < step.Version {
			step.Apply(&out)
		}
	}
	out.General.SettingsVersion = CurrentVersion
	return out, true
}
