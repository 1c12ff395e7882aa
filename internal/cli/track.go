package cli

import (
	"github.com/spf13/cobra"

	"gitx.dev/gitx/internal/actions"
	"gitx.dev/gitx/internal/runtime"
)

// newTrackCmd creates the track command
func newTrackCmd(opts *runtime.Options) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "track [branch]",
		Short: "Start tracking a branch on top of a parent",
		Long: `Start tracking the current (or provided) branch on top of a parent branch.
The parent must be trunk or a tracked branch and defaults to trunk. Tracking a
branch that is already tracked moves it onto the new parent.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(rt *runtime.Context) error {
				report, err := actions.TrackAction(rt, actions.TrackOptions{
					Branch: branchArg(args),
					Parent: parent,
				})
				return finish(rt, report, err)
			})
		},
	}

	cmd.Flags().StringVarP(&parent, "parent", "p", "", "The tracked branch's parent. Must be trunk or a tracked branch.")

	return cmd
}

// newUntrackCmd creates the untrack command
func newUntrackCmd(opts *runtime.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "untrack [branch]",
		Short: "Stop tracking a branch",
		Long: `Stop tracking the current (or provided) branch. Branches stacked on it move
onto its parent. The branch itself is left in the repository.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(rt *runtime.Context) error {
				report, err := actions.UntrackAction(rt, actions.UntrackOptions{Branch: branchArg(args)})
				return finish(rt, report, err)
			})
		},
	}
}
