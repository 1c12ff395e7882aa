package cli

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"gitx.dev/gitx/internal/config"
	gitxerrors "gitx.dev/gitx/internal/errors"
	"gitx.dev/gitx/internal/git"
	"gitx.dev/gitx/internal/output"
	"gitx.dev/gitx/internal/runtime"
)

// commonTrunkNames are tried in order when the remote HEAD is unknown
var commonTrunkNames = []string{"main", "master", "development", "develop"}

// InferTrunk attempts to infer the trunk branch name
func InferTrunk(repo *git.Repo, branchNames []string) string {
	if remoteBranch, err := repo.RemoteDefaultBranch(); err == nil && slices.Contains(branchNames, remoteBranch) {
		return remoteBranch
	}
	for _, name := range commonTrunkNames {
		if slices.Contains(branchNames, name) {
			return name
		}
	}
	return ""
}

func newInitCmd(opts *runtime.Options) *cobra.Command {
	var trunk, remote string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize gitx in the current repository",
		Long: `Initialize gitx in the current repository by choosing the trunk branch that
stacks are based on. Without --trunk, the remote's default branch or a commonly
named branch (main, master) is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output.ConfigureColors(opts.NoColor)
			splog := output.NewSplog()
			return initRepo(cmd.Context(), splog, trunk, remote)
		},
	}

	cmd.Flags().StringVar(&trunk, "trunk", "", "The name of your trunk branch")
	cmd.Flags().StringVar(&remote, "remote", "", "The remote to push to (default \"origin\")")

	return cmd
}

func initRepo(ctx context.Context, splog *output.Splog, trunk, remote string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	if remote == "" {
		remote = config.DefaultRemote
	}
	repo, err := git.Open(ctx, cwd, remote)
	if err != nil {
		return fmt.Errorf("not a git repository: %w", err)
	}

	branchNames, err := repo.ListBranches(ctx)
	if err != nil {
		return err
	}
	if len(branchNames) == 0 {
		return fmt.Errorf("no branches found in current repo; create your first commit and then re-run gitx init")
	}

	if trunk == "" {
		trunk = InferTrunk(repo, branchNames)
		if trunk == "" {
			return fmt.Errorf("could not infer trunk branch, pass in an existing branch name with --trunk")
		}
	}
	if !slices.Contains(branchNames, trunk) {
		return gitxerrors.NewBranchNotFoundError(trunk)
	}

	if config.IsInitialized(repo.Root()) {
		splog.Info("Reinitializing gitx...")
	}
	if err := config.SetTrunk(repo.Root(), trunk); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if remote != config.DefaultRemote {
		if err := config.SetRemote(repo.Root(), remote); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	splog.Info("Trunk set to %s.", output.ColorBranchName(trunk, false))
	splog.Tip("Track a branch with 'gitx track <branch> --parent %s'.", trunk)
	return nil
}
