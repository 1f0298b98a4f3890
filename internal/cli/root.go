// Package cli provides the command-line interface for pagewatch.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var (
	configDir = ".pagewatch"
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "pagewatch",
	Short: "Monitor web pages for newsworthy changes",
	Long:  "pagewatch fetches monitored web sources, detects meaningful changes against stored snapshots, rates escalated content 1-5, and notifies via Slack, email, and local summary files.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("pagewatch %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", configDir, "config directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
