package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"gitx.dev/gitx/internal/engine"
	gitxerrors "gitx.dev/gitx/internal/errors"
)

// Repo is the VCS adapter for one local repository
type Repo struct {
	repo   *gogit.Repository
	root   string
	gitDir string
	remote string
	runner *CommandRunner
}

var _ engine.VCS = (*Repo)(nil)

// Open opens the repository containing path. Mutations push to remote.
func Open(ctx context.Context, path, remote string) (*Repo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := gogit.PlainOpenWithOptions(absPath, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	root := worktree.Filesystem.Root()

	runner := NewCommandRunner(root)
	gitDir, err := runner.Run(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return nil, fmt.Errorf("failed to locate git directory: %w", err)
	}

	return &Repo{
		repo:   repo,
		root:   root,
		gitDir: gitDir,
		remote: remote,
		runner: runner,
	}, nil
}

// Root returns the worktree root
func (r *Repo) Root() string {
	return r.root
}

// GitDir returns the absolute .git directory
func (r *Repo) GitDir() string {
	return r.gitDir
}

// Remote returns the remote name pushes go to
func (r *Repo) Remote() string {
	return r.remote
}

// SetRemote changes the remote pushes and trunk refreshes use
func (r *Repo) SetRemote(remote string) {
	r.remote = remote
}

// Runner returns the command runner bound to the worktree
func (r *Repo) Runner() *CommandRunner {
	return r.runner
}

// RemoteURL returns the first configured URL of the push remote
func (r *Repo) RemoteURL() (string, error) {
	remote, err := r.repo.Remote(r.remote)
	if err != nil {
		return "", fmt.Errorf("failed to get remote %s: %w", r.remote, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", r.remote)
	}
	return urls[0], nil
}

// ListBranches returns all local branch names, sorted
func (r *Repo) ListBranches(ctx context.Context) ([]string, error) {
	branches, err := r.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("failed to get branches: %w", err)
	}

	var names []string
	err = branches.ForEach(func(ref *plumbing.Reference) error {
		if ref.Name().IsBranch() {
			names = append(names, ref.Name().Short())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate branches: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

// HeadCommit returns the commit a local branch points at
func (r *Repo) HeadCommit(ctx context.Context, branch string) (string, error) {
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", gitxerrors.NewBranchNotFoundError(branch)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", branch, err)
	}
	return ref.Hash().String(), nil
}

// CurrentBranch returns the checked out branch
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", gitxerrors.ErrNotOnBranch
	}
	return head.Name().Short(), nil
}

// RemoteDefaultBranch returns the branch the remote's HEAD points at, as
// recorded by the last clone or 'git remote set-head'
func (r *Repo) RemoteDefaultBranch() (string, error) {
	ref, err := r.repo.Reference(plumbing.NewRemoteHEADReferenceName(r.remote), false)
	if err != nil {
		return "", fmt.Errorf("failed to read %s/HEAD: %w", r.remote, err)
	}
	if ref.Type() != plumbing.SymbolicReference {
		return "", fmt.Errorf("%s/HEAD is not a symbolic reference", r.remote)
	}
	return strings.TrimPrefix(ref.Target().Short(), r.remote+"/"), nil
}

// Checkout switches the worktree to branch
func (r *Repo) Checkout(ctx context.Context, branch string) error {
	if _, err := r.runner.Run(ctx, "checkout", "-q", branch); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", branch, err)
	}
	return nil
}

// IsClean reports whether the worktree has no staged or unstaged changes to
// tracked files
func (r *Repo) IsClean(ctx context.Context) (bool, error) {
	output, err := r.runner.Run(ctx, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	return output == "", nil
}

// CommitSubject returns the first line of the message of rev, which may be a
// branch name or a commit hash
func (r *Repo) CommitSubject(ctx context.Context, rev string) (string, error) {
	hash, err := r.resolve(rev)
	if err != nil {
		return "", err
	}
	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return "", fmt.Errorf("failed to read commit %s: %w", rev, err)
	}
	subject, _, _ := strings.Cut(strings.TrimSpace(commit.Message), "\n")
	return subject, nil
}

// DeleteBranch force-deletes a local branch
func (r *Repo) DeleteBranch(ctx context.Context, branch string) error {
	if _, err := r.runner.Run(ctx, "branch", "-D", branch); err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", branch, err)
	}
	return nil
}

func (r *Repo) resolve(rev string) (plumbing.Hash, error) {
	if ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(rev), true); err == nil {
		return ref.Hash(), nil
	}
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to resolve %s: %w", rev, err)
	}
	return *hash, nil
}
