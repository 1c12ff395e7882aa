package land

import (
	"context"
	"fmt"

	"gitx.dev/gitx/internal/actions"
	"gitx.dev/gitx/internal/actions/sync"
	"gitx.dev/gitx/internal/engine"
	gitxerrors "gitx.dev/gitx/internal/errors"
	"gitx.dev/gitx/internal/output"
)

// Engine removes merged branches from the stack and cascades their children
// onto the next surviving ancestor.
type Engine struct {
	vcs   engine.VCS
	host  engine.PRHost
	splog *output.Splog
	save  func() error
	sync  *sync.Engine
}

// NewEngine creates a land engine. save is called after every landed node.
func NewEngine(vcs engine.VCS, host engine.PRHost, splog *output.Splog, save func() error) *Engine {
	if save == nil {
		save = func() error { return nil }
	}
	return &Engine{
		vcs:   vcs,
		host:  host,
		splog: splog,
		save:  save,
		sync:  sync.NewEngine(vcs, host, splog, save),
	}
}

// cascade tracks one run's state across landed nodes
type cascade struct {
	g      *engine.Graph
	report *actions.Report
	// changed nodes need their PR base or content synced afterwards
	changed map[string]bool
	// excluded subtrees are left exactly as they were
	excluded map[string]bool
	// landed nodes are removed in order; they are never rebased
	landed map[string]bool
	// current is the branch checked out
	current string
}

// Run lands every merged node of g
func (e *Engine) Run(ctx context.Context, g *engine.Graph, opts Options, report *actions.Report) error {
	merged, err := e.fetchStates(ctx, g, report)
	if err != nil {
		return err
	}
	// retired nodes were merged in an earlier run that could not finish them
	var landed []*engine.BranchNode
	for _, n := range engine.OrderWithRetired(g) {
		if merged[n.Name] || n.IsRetired() {
			landed = append(landed, n)
		}
	}
	if len(landed) == 0 {
		e.splog.Info("No merged pull requests to land.")
		return nil
	}

	if opts.DryRun {
		e.plan(g, landed, report)
		return nil
	}

	if opts.PullTrunk {
		moved, err := e.vcs.FastForwardTrunk(ctx, g.Trunk())
		switch {
		case err != nil:
			e.splog.Warn("Could not fast-forward %s: %v", g.Trunk(), err)
		case moved:
			e.splog.Info("Fast-forwarded %s.", output.ColorBranchName(g.Trunk(), false))
		}
	}

	c := &cascade{
		g:        g,
		report:   report,
		changed:  make(map[string]bool),
		excluded: make(map[string]bool),
		landed:   make(map[string]bool, len(landed)),
	}
	if current, err := e.vcs.CurrentBranch(ctx); err == nil {
		c.current = current
	}
	for _, n := range landed {
		c.landed[n.Name] = true
	}

	for _, n := range landed {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.excluded[n.Name] {
			report.Add(n.Name, actions.OutcomeSkipped, "merged, but an ancestor conflicted; run 'gitx land' again after resolving it")
			continue
		}
		if err := e.land(ctx, c, n); err != nil {
			return err
		}
		if err := e.save(); err != nil {
			return err
		}
	}

	return e.resync(ctx, c)
}

// fetchStates refreshes PR states of the live nodes before any mutation and
// returns the names of the merged ones.
func (e *Engine) fetchStates(ctx context.Context, g *engine.Graph, report *actions.Report) (map[string]bool, error) {
	var withPR []*engine.BranchNode
	var ids []int
	for _, n := range g.Nodes() {
		if n.HasPR() {
			withPR = append(withPR, n)
			ids = append(ids, n.PR.ID)
		}
	}
	merged := make(map[string]bool)
	if len(ids) == 0 {
		return merged, nil
	}

	states, errs := e.host.BatchGetStates(ctx, ids)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, n := range withPR {
		if err, ok := errs[n.PR.ID]; ok {
			report.AddError(n.Name, gitxerrors.NewAdapterError(n.Name, gitxerrors.StepGetState, err))
			continue
		}
		state, ok := states[n.PR.ID]
		if !ok {
			continue
		}
		n.PR.State = state
		switch state {
		case engine.PRStateMerged:
			merged[n.Name] = true
		case engine.PRStateClosed:
			report.Add(n.Name, actions.OutcomeClosed, "pull request #%d was closed without merging; left in place", n.PR.ID)
		}
	}
	return merged, nil
}

func (e *Engine) plan(g *engine.Graph, landed []*engine.BranchNode, report *actions.Report) {
	for _, n := range landed {
		parent := g.ParentName(n)
		var children []string
		for _, child := range g.ChildrenWithRetired(n) {
			children = append(children, child.Name)
		}
		detail := fmt.Sprintf("would remove #%d", n.PR.ID)
		if len(children) > 0 {
			detail += fmt.Sprintf(" and move %v onto %s", children, parent)
		}
		report.Add(n.Name, actions.OutcomePlanned, "%s", detail)
	}
}

// land splices and rebases the children of n, then removes n. n is kept as a
// hidden base when a child could not be moved off it.
func (e *Engine) land(ctx context.Context, c *cascade, n *engine.BranchNode) error {
	g := c.g
	newParent := g.ParentName(n)
	kept := false

	for _, child := range g.ChildrenWithRetired(n) {
		if c.landed[child.Name] {
			// removed right after; its own children are rebased then
			if err := g.SetParent(child, newParent); err != nil {
				return err
			}
			continue
		}
		ok, err := e.moveChild(ctx, c, child, n, newParent)
		if err != nil {
			return err
		}
		if !ok {
			kept = true
		}
	}

	if kept {
		g.Retire(n)
		c.report.Add(n.Name, actions.OutcomeLanded, "#%d merged; branch kept until its conflicted children are resolved", n.PR.ID)
		return nil
	}

	if err := e.deleteBranch(ctx, c, n.Name, newParent); err != nil {
		c.report.AddError(n.Name, err)
	}
	if err := g.Remove(n); err != nil {
		return err
	}
	c.report.Add(n.Name, actions.OutcomeLanded, "#%d merged; removed from the stack", n.PR.ID)
	return nil
}

// moveChild splices child from landed onto newParent and rebases it, then
// restacks its descendants. On conflict the splice is undone and the subtree
// is excluded. Only graph consistency errors are returned.
func (e *Engine) moveChild(ctx context.Context, c *cascade, child, landed *engine.BranchNode, newParent string) (bool, error) {
	g := c.g
	if err := g.SetParent(child, newParent); err != nil {
		return false, err
	}

	ok := e.rebase(ctx, c, child, newParent)
	if !ok {
		if err := g.SetParent(child, landed.Name); err != nil {
			return false, err
		}
		return false, nil
	}

	e.restack(ctx, c, child)
	return true, nil
}

// rebase replays n's unique commits onto parent's head. Failures are recorded
// and exclude n's subtree.
func (e *Engine) rebase(ctx context.Context, c *cascade, n *engine.BranchNode, parent string) bool {
	ontoHead, err := e.vcs.HeadCommit(ctx, parent)
	if err != nil {
		e.exclude(c, n, gitxerrors.NewAdapterError(n.Name, gitxerrors.StepHead, err))
		return false
	}

	result, err := e.vcs.RebaseOnto(ctx, n.Name, n.BaseCommit, parent)
	if err != nil {
		e.exclude(c, n, gitxerrors.NewAdapterError(n.Name, gitxerrors.StepRebase, err))
		return false
	}
	if result.Conflicted() {
		e.exclude(c, n, gitxerrors.NewLandConflict(n.Name, parent, result.Conflicts))
		return false
	}

	e.splog.Debug("rebased %s onto %s (%s)", n.Name, parent, ontoHead)
	n.HeadCommit = result.NewHead
	n.BaseCommit = ontoHead
	c.changed[n.Name] = true
	c.report.Add(n.Name, actions.OutcomeRestacked, "onto %s", parent)
	return true
}

// restack rebases the descendants of n onto their parents' new heads. A
// conflicting descendant keeps its parent and its subtree is excluded.
func (e *Engine) restack(ctx context.Context, c *cascade, n *engine.BranchNode) {
	for _, child := range c.g.Children(n) {
		if c.excluded[child.Name] || c.landed[child.Name] {
			continue
		}
		if e.rebase(ctx, c, child, n.Name) {
			e.restack(ctx, c, child)
		}
	}
}

func (e *Engine) exclude(c *cascade, n *engine.BranchNode, err error) {
	c.report.AddError(n.Name, err)
	c.excluded[n.Name] = true

	var visit func(*engine.BranchNode)
	visit = func(p *engine.BranchNode) {
		for _, d := range c.g.ChildrenWithRetired(p) {
			c.excluded[d.Name] = true
			if !d.IsRetired() {
				c.report.Add(d.Name, actions.OutcomeSkipped, "ancestor %s was not restacked", n.Name)
			}
			visit(d)
		}
	}
	visit(n)
}

// deleteBranch deletes a landed branch, moving the checkout off it first.
func (e *Engine) deleteBranch(ctx context.Context, c *cascade, name, fallback string) error {
	if c.current == name {
		if err := e.vcs.Checkout(ctx, fallback); err != nil {
			return gitxerrors.NewAdapterError(name, gitxerrors.StepCheckout, err)
		}
		c.current = fallback
		e.splog.Info("Checked out %s.", output.ColorBranchName(fallback, false))
	}
	if err := e.vcs.DeleteBranch(ctx, name); err != nil {
		return gitxerrors.NewAdapterError(name, gitxerrors.StepDelete, err)
	}
	return nil
}

// resync pushes corrected bases and rebased content for the surviving nodes
// the cascade touched.
func (e *Engine) resync(ctx context.Context, c *cascade) error {
	var names []string
	for _, n := range c.g.Nodes() {
		if c.excluded[n.Name] {
			continue
		}
		baseChanged := n.HasPR() && n.PR.BaseBranch != c.g.ExpectedBase(n)
		if c.changed[n.Name] || baseChanged {
			names = append(names, n.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}

	e.splog.Debug("syncing %v after the cascade", names)
	return e.sync.Run(ctx, c.g, engine.OrderSubset(c.g, names), sync.Options{NoCreate: true}, c.report)
}
