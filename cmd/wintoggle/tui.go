package main

import (
	"github.com/spf13/cobra"

	"github.com/1broseidon/wintoggle/internal/ipc"
	"github.com/1broseidon/wintoggle/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open a live panel of the focused window's toggles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return tui.Run(ipc.NewClient())
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
