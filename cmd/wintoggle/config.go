package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/wintoggle/internal/config"
	"github.com/1broseidon/wintoggle/internal/hotkeys"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the daemon configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file and its includes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		if len(res.Files) == 0 {
			fmt.Printf("OK (no config file at %s; using defaults)\n", res.Path)
			return nil
		}
		fmt.Printf("OK (%s)\n", strings.Join(res.Files, ", "))
		return nil
	},
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(os.Stdout, res.Config)
		}
		data, err := yaml.Marshal(res.Config)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var configExplainCmd = &cobra.Command{
	Use:   "explain <yaml-path>",
	Short: "Show where a configuration value came from",
	Long: `Show where a configuration value came from.

Examples:
  wintoggle config explain button_hotkey
  wintoggle config explain hotkeys.toggle-style-2
  wintoggle config explain notifications.backend`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		src := res.Explain(args[0])
		if src.Kind == config.SourceDefault {
			fmt.Printf("%s: default\n", args[0])
			return nil
		}
		fmt.Printf("%s: %s:%d:%d\n", args[0], src.File, src.Line, src.Column)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

var hotkeysCmd = &cobra.Command{
	Use:   "hotkeys",
	Short: "List the configured hotkeys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := res.Config
		bindings := hotkeys.Build(cfg.ButtonHotkey, cfg.ClearHotkey, cfg.Hotkeys)
		if jsonFlag {
			return printJSON(os.Stdout, bindings)
		}
		for _, b := range bindings {
			fmt.Printf("%-24s %s\n", b.Sequence, b.Command)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd, configPrintCmd, configExplainCmd, configInitCmd)
	rootCmd.AddCommand(configCmd, hotkeysCmd)
}
