// Package status reports where each tracked branch stands against its parent
// and its pull request without changing anything.
package status

import (
	"context"
	"strings"

	"gitx.dev/gitx/internal/engine"
	"gitx.dev/gitx/internal/output"
	"gitx.dev/gitx/internal/runtime"
)

// Options contains options for the status command
type Options struct {
	// FetchStates asks the PR host for current states. Fetched states are
	// shown but never stored.
	FetchStates bool
}

// Entry describes one tracked branch
type Entry struct {
	Branch  string
	Parent  string
	PRID    int
	PRState engine.PRState
	// NeedsSync is set when the head moved since the last push
	NeedsSync bool
	// BaseMismatch is set when the PR base is not the parent
	BaseMismatch bool
	// NeedsRestack is set when the branch no longer starts at its parent's head
	NeedsRestack bool
	// Retired branches were merged but are still the base of a conflicted child
	Retired bool
}

// Result is the status of every tracked branch in topological order
type Result struct {
	Trunk   string
	Current string
	Entries []Entry
	// Orphaned lists stored branches that no longer exist
	Orphaned []string
	// Reparented lists branches shown under trunk because their parent vanished
	Reparented []engine.Reparented

	graph *engine.Graph
}

// Entry returns the entry for branch, if tracked
func (r *Result) Entry(branch string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Branch == branch {
			return e, true
		}
	}
	return Entry{}, false
}

// Action performs the status operation. It takes no lock.
func Action(rt *runtime.Context, opts Options) (*Result, error) {
	g, loadReport, err := engine.Load(rt.Context, rt.VCS, rt.Store, engine.LoadOptions{
		StrictParents: rt.Settings.StrictParents,
	})
	if err != nil {
		return nil, err
	}

	var states map[int]engine.PRState
	if opts.FetchStates {
		if rt.Host == nil {
			rt.Splog.Warn("GitHub integration is disabled; showing recorded pull request states.")
		} else {
			states = fetchStates(rt, g)
		}
	}

	result, err := Collect(rt.Context, rt.VCS, g, states)
	if err != nil {
		return nil, err
	}
	result.Orphaned = loadReport.Orphaned
	result.Reparented = loadReport.Reparented
	Print(rt.Splog, result)
	return result, nil
}

func fetchStates(rt *runtime.Context, g *engine.Graph) map[int]engine.PRState {
	var ids []int
	for _, n := range engine.OrderWithRetired(g) {
		if n.HasPR() {
			ids = append(ids, n.PR.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	states, errs := rt.Host.BatchGetStates(rt.Context, ids)
	for id, err := range errs {
		rt.Splog.Warn("Could not fetch pull request #%d: %v", id, err)
	}
	return states
}

// Collect builds the status of g. states overrides recorded PR states.
func Collect(ctx context.Context, vcs engine.VCS, g *engine.Graph, states map[int]engine.PRState) (*Result, error) {
	result := &Result{Trunk: g.Trunk(), graph: g}
	if current, err := vcs.CurrentBranch(ctx); err == nil {
		result.Current = current
	}

	trunkHead, err := vcs.HeadCommit(ctx, g.Trunk())
	if err != nil {
		return nil, err
	}

	for _, n := range engine.OrderWithRetired(g) {
		parentHead := trunkHead
		if p := g.ParentNode(n); p != nil {
			parentHead = p.HeadCommit
		}

		e := Entry{
			Branch:       n.Name,
			Parent:       g.ParentName(n),
			NeedsSync:    n.HeadCommit != n.LastSyncedHeadCommit,
			NeedsRestack: n.BaseCommit != parentHead,
			Retired:      n.IsRetired(),
		}
		if n.HasPR() {
			e.PRID = n.PR.ID
			e.PRState = n.PR.State
			if state, ok := states[n.PR.ID]; ok {
				e.PRState = state
			}
			e.BaseMismatch = n.PR.BaseBranch != g.ExpectedBase(n)
		}
		result.Entries = append(result.Entries, e)
	}
	return result, nil
}

// Print renders the result as a tree rooted at trunk
func Print(splog *output.Splog, result *Result) {
	g := result.graph
	renderer := output.NewStackTreeRenderer(result.Current, result.Trunk, func(branchName string) []string {
		var children []*engine.BranchNode
		if g.IsTrunk(branchName) {
			children = g.RootsWithRetired()
		} else if n := g.NodeWithRetired(branchName); n != nil {
			children = g.ChildrenWithRetired(n)
		}
		names := make([]string, 0, len(children))
		for _, child := range children {
			names = append(names, child.Name)
		}
		return names
	})

	for _, e := range result.Entries {
		annotation := output.BranchAnnotation{
			PRState:      string(e.PRState),
			NeedsSync:    e.NeedsSync && !e.Retired,
			NeedsRestack: e.NeedsRestack && !e.Retired,
			BaseMismatch: e.BaseMismatch && !e.Retired,
		}
		if e.PRID != 0 {
			id := e.PRID
			annotation.PRNumber = &id
		} else {
			annotation.CustomLabel = "no pull request"
		}
		if e.Retired {
			annotation.CustomLabel = "kept as a base; run 'gitx land' after resolving its children"
		}
		renderer.SetAnnotation(e.Branch, annotation)
	}

	splog.Page(strings.Join(renderer.RenderStack(), "\n"))
	splog.Newline()

	for _, rp := range result.Reparented {
		splog.Warn("Parent %s of %s is no longer tracked; showing %s on %s.", rp.MissingParent, rp.Branch, rp.Branch, result.Trunk)
	}

	if len(result.Orphaned) > 0 {
		splog.Warn("Tracked branches that no longer exist:")
		splog.Page(strings.Join(renderer.RenderBranchList(result.Orphaned), "\n"))
		splog.Newline()
	}
}
