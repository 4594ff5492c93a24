package cmd

import (
	"os"

	"github.com/meadowhq/mdwd/logx"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mdwd",
	Short: "Meadow funding-pool transaction proxy",
	Long:  "Daemon that submits Meadow funding-pool transactions to a registry node and tracks their lifecycle for the desktop UI.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		os.Exit(1)
	}
}
