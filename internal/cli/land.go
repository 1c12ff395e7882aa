package cli

import (
	"github.com/spf13/cobra"

	"gitx.dev/gitx/internal/actions/land"
	"gitx.dev/gitx/internal/runtime"
)

// newLandCmd creates the land command
func newLandCmd(opts *runtime.Options) *cobra.Command {
	var (
		dryRun bool
		noPull bool
	)

	cmd := &cobra.Command{
		Use:   "land",
		Short: "Remove merged branches and move the branches stacked on them",
		Long: `Fetch the state of every tracked pull request. Branches whose pull request was
merged are removed, and the branches stacked on them are rebased onto the next
surviving ancestor and retargeted. A branch that conflicts is left exactly as it
was, together with everything stacked on it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, func(rt *runtime.Context) error {
				report, err := land.Action(rt, land.Options{
					DryRun:    dryRun,
					PullTrunk: rt.Settings.PullTrunkOnLand && !noPull,
				})
				return finish(rt, report, err)
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List merged branches and planned moves without changing anything")
	cmd.Flags().BoolVar(&noPull, "no-pull", false, "Don't fast-forward trunk from the remote first")

	return cmd
}
