package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/1broseidon/wintoggle/internal/config"
)

var (
	jsonFlag   bool
	configFlag string
)

var rootCmd = &cobra.Command{
	Use:   "wintoggle",
	Short: "Per-window style toggles shown as a window title preface",
	Long: `wintoggle keeps a set of named style toggles for every X11 window.
The prefixes of a window's active toggles are shown before its title, so
themes and userChrome.css rules can match on them.

Run 'wintoggle daemon' inside your X session, then bind hotkeys or use
the toggle, click and popup commands.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "print machine-readable JSON")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default ~/.config/wintoggle/config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configPath() (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	return config.DefaultConfigPath()
}

func loadConfig() (*config.LoadResult, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return config.LoadFromPath(path)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// slogLevelFromConfig returns the configured level, or info when the config
// cannot be read.
func slogLevelFromConfig() slog.Level {
	res, err := loadConfig()
	if err != nil {
		return slog.LevelInfo
	}
	return res.Config.SlogLevel()
}
