package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/hurou927/xampp-tools/internal/ui"
)

// Version information (set at build time).
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	// No config is needed to print the version.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		ui.PrintTitle("xamppctl "+Version, "")
		ui.PrintKV("Git Commit", GitCommit)
		ui.PrintKV("Go Version", runtime.Version())
		ui.PrintKV("OS/Arch", runtime.GOOS+"/"+runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
