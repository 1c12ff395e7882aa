package cli

import (
	"github.com/spf13/cobra"

	"gitx.dev/gitx/internal/actions/status"
	"gitx.dev/gitx/internal/runtime"
)

// newStatusCmd creates the status command
func newStatusCmd(opts *runtime.Options) *cobra.Command {
	var fetch bool

	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"st"},
		Short:   "Show the stack and what each branch needs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, func(rt *runtime.Context) error {
				_, err := status.Action(rt, status.Options{FetchStates: fetch})
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&fetch, "fetch", false, "Fetch current pull request states from GitHub")

	return cmd
}
