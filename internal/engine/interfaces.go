package engine

import (
	"context"
)

// BranchSource is the read side of the VCS the graph is loaded from
type BranchSource interface {
	ListBranches(ctx context.Context) ([]string, error)
	HeadCommit(ctx context.Context, branch string) (string, error)
	MergeBase(ctx context.Context, a, b string) (string, error)
}

// VCS is the version-control collaborator consumed by the sync and land
// engines. Mutating calls run strictly sequentially.
type VCS interface {
	BranchSource

	CurrentBranch(ctx context.Context) (string, error)
	Checkout(ctx context.Context, branch string) error
	IsClean(ctx context.Context) (bool, error)
	CommitSubject(ctx context.Context, rev string) (string, error)

	// RebaseOnto replays oldBase..branch onto newBase. Conflicts are returned
	// in the result with the branch left untouched, not as an error.
	RebaseOnto(ctx context.Context, branch, oldBase, newBase string) (RebaseResult, error)

	// PushWithLease updates the remote branch only if it still points at
	// expectedRemoteHead ("" meaning absent). Rejection is a StaleRemoteError.
	PushWithLease(ctx context.Context, branch, expectedRemoteHead string) error

	DeleteBranch(ctx context.Context, branch string) error

	// FastForwardTrunk moves the local trunk to the remote trunk when that is
	// a fast-forward and reports whether it moved.
	FastForwardTrunk(ctx context.Context, trunk string) (bool, error)
}

// PRHost is the pull request hosting collaborator
type PRHost interface {
	CreatePR(ctx context.Context, opts CreatePROptions) (CreatedPR, error)
	UpdateBase(ctx context.Context, id int, base string) error
	GetState(ctx context.Context, id int) (PRState, error)
	// BatchGetStates fetches states with bounded parallelism. Per-id failures
	// are returned in the error map and do not fail the batch.
	BatchGetStates(ctx context.Context, ids []int) (map[int]PRState, map[int]error)
}
