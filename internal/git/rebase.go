package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gitx.dev/gitx/internal/engine"
)

// RebaseOnto replays the commits in oldBase..branch onto newBase and moves
// the branch to the result. The rebase runs on a detached HEAD so the branch
// ref only changes on success. On conflict the rebase is aborted, the
// conflicting paths are returned and the branch is left where it was.
func (r *Repo) RebaseOnto(ctx context.Context, branch, oldBase, newBase string) (engine.RebaseResult, error) {
	// Save current branch/detached HEAD
	currentBranch, err := r.CurrentBranch(ctx)
	var currentRev string
	if err != nil {
		currentBranch = ""
		currentRev, _ = r.runner.Run(ctx, "rev-parse", "HEAD")
	}
	// Cleanup must finish after an interrupt, or the worktree stays mid-rebase.
	cleanupCtx := context.WithoutCancel(ctx)
	restore := func() {
		if currentBranch != "" {
			_, _ = r.runner.Run(cleanupCtx, "checkout", "-q", currentBranch)
		} else if currentRev != "" {
			_, _ = r.runner.Run(cleanupCtx, "checkout", "-q", "--detach", currentRev)
		}
	}

	branchRev, err := r.HeadCommit(ctx, branch)
	if err != nil {
		return engine.RebaseResult{}, err
	}

	// git rebase --onto <newBase> <oldBase> <branchRev> leaves HEAD detached
	// at the rebased tip.
	if _, err := r.runner.Run(ctx, "rebase", "--onto", newBase, oldBase, branchRev); err != nil {
		if !r.rebaseInProgress() {
			restore()
			if ctx.Err() != nil {
				return engine.RebaseResult{}, fmt.Errorf("rebase of %s interrupted: %w", branch, ctx.Err())
			}
			return engine.RebaseResult{}, fmt.Errorf("failed to rebase %s onto %s: %w", branch, newBase, err)
		}
		files, listErr := r.runner.Lines(cleanupCtx, "diff", "--name-only", "--diff-filter=U")
		if _, abortErr := r.runner.Run(cleanupCtx, "rebase", "--abort"); abortErr != nil {
			return engine.RebaseResult{}, fmt.Errorf("failed to abort rebase of %s: %w", branch, abortErr)
		}
		restore()
		if listErr != nil {
			return engine.RebaseResult{}, fmt.Errorf("failed to list conflicts for %s: %w", branch, listErr)
		}
		if len(files) == 0 && ctx.Err() != nil {
			// killed before git reached a conflict
			return engine.RebaseResult{}, fmt.Errorf("rebase of %s interrupted: %w", branch, ctx.Err())
		}
		if len(files) == 0 {
			// Conflicts outside the index, such as a commit that became empty
			files = []string{"(unknown)"}
		}
		return engine.RebaseResult{Conflicts: files}, nil
	}

	newRev, err := r.runner.Run(ctx, "rev-parse", "HEAD")
	if err != nil {
		restore()
		return engine.RebaseResult{}, fmt.Errorf("failed to get new revision after rebase: %w", err)
	}

	if _, err := r.runner.Run(ctx, "update-ref", "refs/heads/"+branch, newRev, branchRev); err != nil {
		restore()
		return engine.RebaseResult{}, fmt.Errorf("failed to update branch reference %s: %w", branch, err)
	}

	restore()
	return engine.RebaseResult{NewHead: newRev}, nil
}

// rebaseInProgress checks for the rebase-merge and rebase-apply directories.
// This is more reliable than checking REBASE_HEAD which can persist after a
// rebase.
func (r *Repo) rebaseInProgress() bool {
	for _, dir := range []string{"rebase-merge", "rebase-apply"} {
		if _, err := os.Stat(filepath.Join(r.gitDir, dir)); err == nil {
			return true
		}
	}
	return false
}
