package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gitxerrors "gitx.dev/gitx/internal/errors"
)

// PushWithLease force-pushes branch only if the remote branch still points at
// expectedRemoteHead. An empty expectedRemoteHead requires the remote branch
// to be absent. A rejected lease is reported as a StaleRemoteError.
func (r *Repo) PushWithLease(ctx context.Context, branch, expectedRemoteHead string) error {
	ref := "refs/heads/" + branch
	args := []string{
		"push", "--porcelain",
		"--force-with-lease=" + ref + ":" + expectedRemoteHead,
		r.remote,
		ref + ":" + ref,
	}

	_, err := r.runner.Run(ctx, args...)
	if err == nil {
		return nil
	}

	var cmdErr *gitxerrors.GitCommandError
	if errors.As(err, &cmdErr) && isLeaseRejection(cmdErr.Stdout+cmdErr.Stderr) {
		return gitxerrors.NewStaleRemoteError(branch, expectedRemoteHead)
	}
	return fmt.Errorf("failed to push branch %s: %w", branch, err)
}

func isLeaseRejection(output string) bool {
	return strings.Contains(output, "stale info") ||
		strings.Contains(output, "[rejected]") ||
		strings.Contains(output, "already exists")
}

// RemoteHead returns the remote-tracking commit for branch, or "" if none
func (r *Repo) RemoteHead(ctx context.Context, branch string) (string, error) {
	rev, err := r.runner.Run(ctx, "rev-parse", "--verify", "--quiet", "refs/remotes/"+r.remote+"/"+branch)
	if err != nil {
		var cmdErr *gitxerrors.GitCommandError
		if errors.As(err, &cmdErr) && cmdErr.Stderr == "" {
			return "", nil
		}
		return "", err
	}
	return rev, nil
}

// FastForwardTrunk fetches trunk from the remote and fast-forwards the local
// branch to it. It refuses to move a trunk that has diverged.
func (r *Repo) FastForwardTrunk(ctx context.Context, trunk string) (bool, error) {
	if _, err := r.runner.Run(ctx, "fetch", "-q", r.remote, trunk); err != nil {
		return false, fmt.Errorf("failed to fetch %s: %w", trunk, err)
	}

	remoteRev, err := r.RemoteHead(ctx, trunk)
	if err != nil {
		return false, err
	}
	if remoteRev == "" {
		return false, fmt.Errorf("remote %s has no branch %s", r.remote, trunk)
	}
	localRev, err := r.HeadCommit(ctx, trunk)
	if err != nil {
		return false, err
	}
	if localRev == remoteRev {
		return false, nil
	}

	ok, err := r.IsAncestor(ctx, localRev, remoteRev)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("%s has diverged from %s/%s", trunk, r.remote, trunk)
	}

	current, _ := r.CurrentBranch(ctx)
	if current == trunk {
		if _, err := r.runner.Run(ctx, "merge", "-q", "--ff-only", remoteRev); err != nil {
			return false, fmt.Errorf("failed to fast-forward %s: %w", trunk, err)
		}
		return true, nil
	}
	if _, err := r.runner.Run(ctx, "update-ref", "refs/heads/"+trunk, remoteRev, localRev); err != nil {
		return false, fmt.Errorf("failed to fast-forward %s: %w", trunk, err)
	}
	return true, nil
}
