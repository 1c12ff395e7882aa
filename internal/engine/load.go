package engine

import (
	"context"
	"fmt"

	gitxerrors "gitx.dev/gitx/internal/errors"
)

// LoadOptions controls reconciliation of stored metadata against the repository
type LoadOptions struct {
	// StrictParents turns a record whose parent is no longer tracked into a
	// ConsistencyError instead of re-parenting it to trunk.
	StrictParents bool
}

// Reparented describes a node moved to trunk because its parent vanished
type Reparented struct {
	Branch        string
	MissingParent string
}

// LoadReport lists what reconciliation changed. Both kinds are warnings.
type LoadReport struct {
	Orphaned   []string
	Reparented []Reparented
}

// Empty reports whether reconciliation changed nothing
func (r *LoadReport) Empty() bool {
	return len(r.Orphaned) == 0 && len(r.Reparented) == 0
}

// Load builds the graph for the store's trunk from stored records and live
// repository state. Records for missing branches are dropped as orphans,
// records with an untracked parent move to trunk, and merged records are
// retired. Only a cycle, or a missing parent under StrictParents, fails the
// load.
func Load(ctx context.Context, src BranchSource, store *Store, opts LoadOptions) (*Graph, *LoadReport, error) {
	doc, err := store.Read()
	if err != nil {
		return nil, nil, err
	}

	names, err := src.ListBranches(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list branches: %w", err)
	}
	exists := make(map[string]bool, len(names))
	for _, name := range names {
		exists[name] = true
	}

	trunk := store.Trunk()
	if !exists[trunk] {
		return nil, nil, fmt.Errorf("trunk %s: %w", trunk, gitxerrors.NewBranchNotFoundError(trunk))
	}

	g := NewGraph(trunk)
	report := &LoadReport{}

	// Nodes are added under trunk first so that parent links can be applied
	// in any record order, with SetParent catching cycles.
	var live []Record
	for _, rec := range doc.Branches {
		if rec.Name == "" || g.IsTrunk(rec.Name) {
			continue
		}
		if !exists[rec.Name] {
			report.Orphaned = append(report.Orphaned, rec.Name)
			continue
		}
		n, err := g.Add(rec.Name, trunk, rec.CreatedAt)
		if err != nil {
			return nil, nil, err
		}
		applyRecord(n, rec)
		// a merged branch only stays around as the base of unlanded children
		if n.HasPR() && n.PR.State == PRStateMerged {
			g.Retire(n)
		}
		live = append(live, rec)
	}

	var missing []string
	for _, rec := range live {
		if rec.Parent == "" || g.IsTrunk(rec.Parent) {
			continue
		}
		n := g.lookup(rec.Name)
		if g.lookup(rec.Parent) == nil {
			if opts.StrictParents {
				missing = append(missing, rec.Name)
				continue
			}
			report.Reparented = append(report.Reparented, Reparented{Branch: rec.Name, MissingParent: rec.Parent})
			continue
		}
		if err := g.SetParent(n, rec.Parent); err != nil {
			return nil, nil, err
		}
	}
	if len(missing) > 0 {
		return nil, nil, gitxerrors.NewConsistencyError("parent branch is no longer tracked", missing...)
	}

	if err := Refresh(ctx, src, g); err != nil {
		return nil, nil, err
	}
	return g, report, nil
}

// Refresh re-reads head and base commits for every node in the graph
func Refresh(ctx context.Context, src BranchSource, g *Graph) error {
	var refreshErr error
	walk(g, TrunkID, func(n *BranchNode) {
		if refreshErr != nil {
			return
		}
		refreshErr = RefreshNode(ctx, src, g, n)
	})
	return refreshErr
}

// RefreshNode re-reads n's head and its merge-base with the parent
func RefreshNode(ctx context.Context, src BranchSource, g *Graph, n *BranchNode) error {
	head, err := src.HeadCommit(ctx, n.Name)
	if err != nil {
		return fmt.Errorf("failed to resolve head of %s: %w", n.Name, err)
	}
	base, err := src.MergeBase(ctx, g.ParentName(n), n.Name)
	if err != nil {
		return fmt.Errorf("failed to compute merge base of %s: %w", n.Name, err)
	}
	n.HeadCommit = head
	n.BaseCommit = base
	return nil
}

func applyRecord(n *BranchNode, rec Record) {
	n.LastSyncedHeadCommit = rec.LastSyncedHeadCommit
	if rec.PRID == nil || *rec.PRID == 0 {
		return
	}
	pr := &PullRequestRef{
		ID:         *rec.PRID,
		HeadBranch: rec.Name,
		State:      PRStateOpen,
	}
	if rec.BaseBranch != nil {
		pr.BaseBranch = *rec.BaseBranch
	}
	if rec.PRState != nil {
		pr.State = ParsePRState(*rec.PRState)
	}
	if rec.PRURL != nil {
		pr.URL = *rec.PRURL
	}
	n.PR = pr
}
