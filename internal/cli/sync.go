package cli

import (
	"github.com/spf13/cobra"

	"gitx.dev/gitx/internal/actions/sync"
	"gitx.dev/gitx/internal/runtime"
)

// newSyncCmd creates the sync command
func newSyncCmd(opts *runtime.Options) *cobra.Command {
	var (
		only     bool
		stack    bool
		all      bool
		dryRun   bool
		draft    bool
		noCreate bool
	)

	cmd := &cobra.Command{
		Use:   "sync [branch]",
		Short: "Push branches and bring their pull requests in line with the stack",
		Long: `Push the current (or provided) branch and its ancestors, opening a pull
request for each branch that has none and retargeting pull requests whose base
no longer matches the branch's parent. Pushes are guarded by a lease on the
commit last pushed, so remote changes made elsewhere are never overwritten.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selector := sync.SelectDownstack
			switch {
			case all:
				selector = sync.SelectAll
			case stack:
				selector = sync.SelectStack
			case only:
				selector = sync.SelectOnly
			}

			return run(cmd, opts, func(rt *runtime.Context) error {
				report, err := sync.Action(rt, sync.Options{
					Branch:   branchArg(args),
					Selector: selector,
					DryRun:   dryRun,
					NoCreate: noCreate,
					Draft:    draft,
				})
				return finish(rt, report, err)
			})
		},
	}

	cmd.Flags().BoolVar(&only, "only", false, "Only sync the branch itself")
	cmd.Flags().BoolVar(&stack, "stack", false, "Sync the branch with its ancestors and descendants")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Sync every tracked branch")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be done without pushing or calling GitHub")
	cmd.Flags().BoolVar(&draft, "draft", false, "Open new pull requests as drafts")
	cmd.Flags().BoolVar(&noCreate, "no-create", false, "Don't open pull requests for branches that have none")
	cmd.MarkFlagsMutuallyExclusive("only", "stack", "all")

	return cmd
}
