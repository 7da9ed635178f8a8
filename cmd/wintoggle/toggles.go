package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/1broseidon/wintoggle/internal/config"
	"github.com/1broseidon/wintoggle/internal/ipc"
	"github.com/1broseidon/wintoggle/internal/settings"
	"github.com/1broseidon/wintoggle/internal/setup"
	"github.com/1broseidon/wintoggle/internal/storage"
)

// withSettingsStore opens the settings database the daemon uses. Settings
// kept in memory can only be changed through the running daemon.
func withSettingsStore(fn func(ctx context.Context, store storage.Store) error) error {
	res, err := loadConfig()
	if err != nil {
		return err
	}
	if res.Config.DatabasePath() == config.MemoryDatabase {
		return fmt.Errorf("database is %q; edit settings with the popup or 'wintoggle general' while the daemon runs", config.MemoryDatabase)
	}
	store, closeStore, err := openStore(res.Config)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(context.Background(), store)
}

// notifyDaemon asks a running daemon to pick up edited settings.
func notifyDaemon() {
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, "saved; the daemon will use the new settings when it starts")
	}
}

var togglesCmd = &cobra.Command{
	Use:   "toggles",
	Short: "List and edit the toggle catalog",
}

var togglesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List toggles and their state on the focused window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if data, err := ipc.NewClient().ListToggles(0); err == nil {
			if jsonFlag {
				return printJSON(os.Stdout, data)
			}
			s := settings.Settings{General: data.General}
			active := make([]bool, len(data.Toggles))
			for i, t := range data.Toggles {
				s.Toggles = append(s.Toggles, settings.ToggleDefinition{Name: t.Name, Prefix: t.Prefix, Enabled: t.Enabled})
				active[i] = t.Active
			}
			fmt.Println(setup.Summary(s, active))
			return nil
		}

		// Daemon not running: show the stored catalog.
		return withSettingsStore(func(ctx context.Context, store storage.Store) error {
			s, _, err := settings.Load(ctx, store)
			if err != nil {
				return err
			}
			if jsonFlag {
				return printJSON(os.Stdout, s)
			}
			fmt.Println(setup.Summary(s, nil))
			return nil
		})
	},
}

var (
	setName    string
	setPrefix  string
	setEnable  bool
	setDisable bool
)

var togglesSetCmd = &cobra.Command{
	Use:   "set <style-id>",
	Short: "Change a toggle's name, prefix or availability",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		styleID, err := parseStyleID(args[0])
		if err != nil {
			return err
		}
		enabled, err := explicitState(setEnable, setDisable)
		if err != nil {
			return err
		}
		err = withSettingsStore(func(ctx context.Context, store storage.Store) error {
			s, _, err := settings.Load(ctx, store)
			if err != nil {
				return err
			}
			def, ok := s.Toggle(styleID)
			if !ok {
				return fmt.Errorf("style %d does not exist (have %d)", styleID, len(s.Toggles))
			}
			if cmd.Flags().Changed("name") {
				def.Name = setName
			}
			if cmd.Flags().Changed("prefix") {
				def.Prefix = setPrefix
			}
			if enabled != nil {
				def.Enabled = *enabled
			}
			_, err = settings.SaveToggle(ctx, store, styleID, def)
			return err
		})
		if err != nil {
			return err
		}
		notifyDaemon()
		return nil
	},
}

var (
	addName     string
	addPrefix   string
	addDisabled bool
)

var togglesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a new toggle",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var styleID int
		err := withSettingsStore(func(ctx context.Context, store storage.Store) error {
			s, _, err := settings.Load(ctx, store)
			if err != nil {
				return err
			}
			def := settings.DefaultToggle(len(s.Toggles) + 1)
			if addName != "" {
				def.Name = addName
			}
			if addPrefix != "" {
				def.Prefix = addPrefix
			}
			def.Enabled = !addDisabled
			_, styleID, err = settings.AddToggle(ctx, store, def)
			return err
		})
		if err != nil {
			return err
		}
		fmt.Printf("added style %d\n", styleID)
		notifyDaemon()
		return nil
	},
}

var togglesResetPrefixCmd = &cobra.Command{
	Use:   "reset-prefix <style-id>",
	Short: "Restore a toggle's built-in prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		styleID, err := parseStyleID(args[0])
		if err != nil {
			return err
		}
		err = withSettingsStore(func(ctx context.Context, store storage.Store) error {
			s, _, err := settings.Load(ctx, store)
			if err != nil {
				return err
			}
			def, ok := s.Toggle(styleID)
			if !ok {
				return fmt.Errorf("style %d does not exist (have %d)", styleID, len(s.Toggles))
			}
			def.Prefix = settings.DefaultToggle(styleID).Prefix
			_, err = settings.SaveToggle(ctx, store, styleID, def)
			return err
		})
		if err != nil {
			return err
		}
		notifyDaemon()
		return nil
	},
}

var (
	generalAllowMultiple bool
	generalNotify        bool
)

var generalCmd = &cobra.Command{
	Use:   "general",
	Short: "Show or change the general options",
	Long: `Show or change the general options.

Examples:
  wintoggle general
  wintoggle general --allow-multiple=true
  wintoggle general --notify=false`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var allowMultiple, notifyMe *bool
		if cmd.Flags().Changed("allow-multiple") {
			allowMultiple = &generalAllowMultiple
		}
		if cmd.Flags().Changed("notify") {
			notifyMe = &generalNotify
		}

		general, err := updateGeneral(allowMultiple, notifyMe)
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(os.Stdout, general)
		}
		fmt.Printf("allow_multiple:   %t\n", general.AllowMultiple)
		fmt.Printf("notify_me:        %t\n", general.NotifyMe)
		fmt.Printf("settings_version: %g\n", general.SettingsVersion)
		return nil
	},
}

// updateGeneral goes through the daemon when it runs, so the change applies
// to open windows right away.
func updateGeneral(allowMultiple, notifyMe *bool) (settings.General, error) {
	client := ipc.NewClient()
	if allowMultiple == nil && notifyMe == nil {
		if data, err := client.ListToggles(0); err == nil {
			return data.General, nil
		}
	} else if general, err := client.SetGeneral(allowMultiple, notifyMe); err == nil {
		return *general, nil
	}

	var out settings.General
	err := withSettingsStore(func(ctx context.Context, store storage.Store) error {
		s, _, err := settings.Load(ctx, store)
		if err != nil {
			return err
		}
		if allowMultiple == nil && notifyMe == nil {
			out = s.General
			return nil
		}
		next := s.General
		if allowMultiple != nil {
			next.AllowMultiple = *allowMultiple
		}
		if notifyMe != nil {
			next.NotifyMe = *notifyMe
		}
		saved, err := settings.SaveGeneral(ctx, store, next.AllowMultiple, next.NotifyMe)
		out = saved.General
		return err
	})
	return out, err
}

var selectorCmd = &cobra.Command{
	Use:   "selector <style-id>",
	Short: "Print the userChrome.css selector matching a toggle",
	Long: `Print the userChrome.css selector matching a toggle.

Firefox exposes the title preface as the titlepreface attribute of the
root element. With multiple toggles allowed the preface may hold several
prefixes, so the selector matches a substring.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		styleID, err := parseStyleID(args[0])
		if err != nil {
			return err
		}
		s, err := currentSettings()
		if err != nil {
			return err
		}
		def, ok := s.Toggle(styleID)
		if !ok {
			return fmt.Errorf("style %d does not exist (have %d)", styleID, len(s.Toggles))
		}
		fmt.Println(settings.Selector(def.Prefix, s.General.AllowMultiple))
		if settings.IsDefaultPrefix(styleID, def.Prefix) {
			fmt.Fprintln(os.Stderr, "note: this toggle uses its built-in invisible prefix")
		}
		return nil
	},
}

func currentSettings() (settings.Settings, error) {
	if data, err := ipc.NewClient().ListToggles(0); err == nil {
		s := settings.Settings{General: data.General}
		for _, t := range data.Toggles {
			s.Toggles = append(s.Toggles, settings.ToggleDefinition{Name: t.Name, Prefix: t.Prefix, Enabled: t.Enabled})
		}
		return s, nil
	}
	var s settings.Settings
	err := withSettingsStore(func(ctx context.Context, store storage.Store) error {
		var err error
		s, _, err = settings.Load(ctx, store)
		return err
	})
	return s, err
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Edit toggles and general options in an interactive form",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var saved settings.Settings
		err := withSettingsStore(func(ctx context.Context, store storage.Store) error {
			current, _, err := settings.Load(ctx, store)
			if err != nil {
				return err
			}
			next, err := setup.Run(ctx, current)
			if err != nil {
				return err
			}
			saved = next
			return settings.Save(ctx, store, next)
		})
		if errors.Is(err, setup.ErrNotTerminal) {
			return fmt.Errorf("%w; use 'wintoggle toggles set' instead", err)
		}
		if err != nil {
			return err
		}
		fmt.Println(setup.Summary(saved, nil))
		notifyDaemon()
		return nil
	},
}

func init() {
	togglesSetCmd.Flags().StringVar(&setName, "name", "", "display name")
	togglesSetCmd.Flags().StringVar(&setPrefix, "prefix", "", "text shown before the window title")
	togglesSetCmd.Flags().BoolVar(&setEnable, "enable", false, "make the toggle available")
	togglesSetCmd.Flags().BoolVar(&setDisable, "disable", false, "hide the toggle")

	togglesAddCmd.Flags().StringVar(&addName, "name", "", "display name (default \"Style N\")")
	togglesAddCmd.Flags().StringVar(&addPrefix, "prefix", "", "text shown before the window title (default \"[N] \")")
	togglesAddCmd.Flags().BoolVar(&addDisabled, "disabled", false, "add the toggle disabled")

	generalCmd.Flags().BoolVar(&generalAllowMultiple, "allow-multiple", false, "allow several toggles per window")
	generalCmd.Flags().BoolVar(&generalNotify, "notify", true, "notify when a toggle changes")

	togglesCmd.AddCommand(togglesListCmd, togglesSetCmd, togglesAddCmd, togglesResetPrefixCmd)
	rootCmd.AddCommand(togglesCmd, generalCmd, selectorCmd, setupCmd)
}
