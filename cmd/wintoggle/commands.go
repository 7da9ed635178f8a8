package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/1broseidon/wintoggle/internal/ipc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the toggle button state for the focused window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := ipc.NewClient().GetStatus()
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(os.Stdout, st)
		}
		fmt.Printf("window:          0x%x\n", st.View.WindowID)
		fmt.Printf("label:           %s\n", st.View.Status.Label)
		fmt.Printf("popup:           %t\n", st.View.Status.Popup)
		fmt.Printf("preface:         %s\n", strconv.QuoteToASCII(st.View.Preface))
		fmt.Printf("tracked_windows: %d\n", st.TrackedCount)
		fmt.Printf("uptime_seconds:  %d\n", st.UptimeSeconds)
		return nil
	},
}

var (
	toggleOn     bool
	toggleOff    bool
	toggleWindow string
)

var toggleCmd = &cobra.Command{
	Use:   "toggle <style-id>",
	Short: "Flip a style toggle on the focused window",
	Long: `Flip a style toggle on the focused window.

Style ids start at 1. Use --on or --off to set the toggle instead of
flipping it. Disabled toggles are left alone.

Examples:
  wintoggle toggle 1
  wintoggle toggle 2 --on --window 0x3a00007`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		styleID, err := parseStyleID(args[0])
		if err != nil {
			return err
		}
		state, err := explicitState(toggleOn, toggleOff)
		if err != nil {
			return err
		}
		return runToggle(fmt.Sprintf("toggle-style-%d", styleID), state)
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Turn every toggle off on the focused window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runToggle("toggle-style", nil)
	},
}

var clickCmd = &cobra.Command{
	Use:   "click",
	Short: "Press the toggle button: flip the only toggle or open the popup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		res, err := ipc.NewClient().Click()
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(os.Stdout, res)
		}
		switch {
		case res.Popup:
			fmt.Println("popup opened")
		case res.Applied:
			fmt.Println(res.Change.Message())
		default:
			fmt.Println("nothing to toggle")
		}
		return nil
	},
}

var popupCmd = &cobra.Command{
	Use:   "popup",
	Short: "Open the toggle popup for the focused window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return ipc.NewClient().Popup()
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Make the daemon re-read settings and config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return ipc.NewClient().Reload()
	},
}

func init() {
	toggleCmd.Flags().BoolVar(&toggleOn, "on", false, "turn the toggle on")
	toggleCmd.Flags().BoolVar(&toggleOff, "off", false, "turn the toggle off")
	toggleCmd.Flags().StringVar(&toggleWindow, "window", "", "X11 window id (default: focused window)")
	clearCmd.Flags().StringVar(&toggleWindow, "window", "", "X11 window id (default: focused window)")

	rootCmd.AddCommand(statusCmd, toggleCmd, clearCmd, clickCmd, popupCmd, reloadCmd)
}

func runToggle(command string, state *bool) error {
	windowID, err := parseWindowID(toggleWindow)
	if err != nil {
		return err
	}
	res, err := ipc.NewClient().Toggle(command, windowID, state)
	if err != nil {
		return err
	}
	if jsonFlag {
		return printJSON(os.Stdout, res)
	}
	if !res.Applied {
		fmt.Println("no change: toggle is disabled or does not exist")
		return nil
	}
	fmt.Println(res.Change.Message())
	return nil
}

func parseStyleID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid style id %q: expected a number starting at 1", s)
	}
	return id, nil
}

// parseWindowID accepts decimal or 0x-prefixed hex, as printed by xprop and
// wmctrl. Empty means the focused window.
func parseWindowID(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return uint32(id), nil
}

func explicitState(on, off bool) (*bool, error) {
	switch {
	case on && off:
		return nil, fmt.Errorf("--on and --off are mutually exclusive")
	case on:
		v := true
		return &v, nil
	case off:
		v := false
		return &v, nil
	}
	return nil, nil
}
