package engine

import "time"

// NodeID is a stable arena index for a BranchNode within one Graph.
type NodeID int

// TrunkID is the parent of every root node.
const TrunkID NodeID = -1

// PRState is the remote state of a pull request
type PRState string

const (
	PRStateOpen   PRState = "open"
	PRStateMerged PRState = "merged"
	PRStateClosed PRState = "closed"
)

// ParsePRState normalizes host-specific spellings (OPEN, MERGED, ...)
func ParsePRState(s string) PRState {
	switch s {
	case "merged", "MERGED":
		return PRStateMerged
	case "closed", "CLOSED":
		return PRStateClosed
	default:
		return PRStateOpen
	}
}

// PullRequestRef links a branch to its remote pull request
type PullRequestRef struct {
	ID         int
	HeadBranch string
	BaseBranch string
	State      PRState
	URL        string
}

// BranchNode represents one tracked branch
type BranchNode struct {
	ID     NodeID
	Name   string
	Parent NodeID

	// BaseCommit is the merge-base with the parent's head, HeadCommit the
	// branch tip. Both are refreshed from the repository on load.
	BaseCommit string
	HeadCommit string

	// LastSyncedHeadCommit is the commit last pushed to the remote. It is the
	// lease for the next push and lives on the node because a branch can be
	// pushed before its pull request exists.
	LastSyncedHeadCommit string

	CreatedAt time.Time
	PR        *PullRequestRef

	children []NodeID
	retired  bool
}

// HasPR reports whether the node is linked to a pull request
func (n *BranchNode) HasPR() bool {
	return n.PR != nil && n.PR.ID != 0
}

// IsRetired reports whether the node was landed but is still the parent of
// branches that could not be moved off it
func (n *BranchNode) IsRetired() bool {
	return n.retired
}

// RebaseResult is the outcome of a VCS rebase
type RebaseResult struct {
	NewHead   string
	Conflicts []string
}

// Conflicted reports whether the rebase stopped on conflicts
func (r RebaseResult) Conflicted() bool {
	return len(r.Conflicts) > 0
}

// CreatePROptions contains options for creating a pull request
type CreatePROptions struct {
	Head  string
	Base  string
	Title string
	Body  string
	Draft bool
}

// CreatedPR is the host's answer to a create call
type CreatedPR struct {
	ID  int
	URL string
}
