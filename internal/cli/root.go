// Package cli provides the cobra commands of gitx.
package cli

import (
	"github.com/spf13/cobra"

	"gitx.dev/gitx/internal/runtime"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version string) *cobra.Command {
	var opts runtime.Options

	rootCmd := &cobra.Command{
		Use:   "gitx",
		Short: "gitx keeps stacked pull requests in line with the local branch stack",
		Long: `gitx keeps stacked pull requests in line with the local branch stack.

Track branches on top of each other, sync them to open or retarget their
pull requests, and land merged ones to move the rest of the stack onto trunk.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Write debug output to stderr")
	rootCmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		newInitCmd(&opts),
		newTrackCmd(&opts),
		newUntrackCmd(&opts),
		newSyncCmd(&opts),
		newLandCmd(&opts),
		newStatusCmd(&opts),
	)

	return rootCmd
}
