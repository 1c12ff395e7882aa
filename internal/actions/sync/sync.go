// Package sync brings remote branches and pull requests in line with the
// local stack.
package sync

import (
	"fmt"

	"gitx.dev/gitx/internal/actions"
	"gitx.dev/gitx/internal/engine"
	gitxerrors "gitx.dev/gitx/internal/errors"
	"gitx.dev/gitx/internal/runtime"
)

// Selector picks which nodes a sync covers
type Selector int

const (
	// SelectDownstack syncs the branch and its ancestors
	SelectDownstack Selector = iota
	// SelectOnly syncs just the branch
	SelectOnly
	// SelectStack syncs the branch with its ancestors and descendants
	SelectStack
	// SelectAll syncs every tracked branch
	SelectAll
)

func (s Selector) String() string {
	switch s {
	case SelectOnly:
		return "only"
	case SelectStack:
		return "stack"
	case SelectAll:
		return "all"
	default:
		return "downstack"
	}
}

// Options contains options for the sync command
type Options struct {
	// Branch defaults to the current branch
	Branch   string
	Selector Selector
	DryRun   bool
	// NoCreate leaves branches without a pull request alone unless they
	// were pushed before
	NoCreate bool
	Draft    bool
}

// Select returns the nodes a sync of branch covers, in topological order.
// Selecting from trunk covers every tracked branch.
func Select(g *engine.Graph, branch string, sel Selector) ([]*engine.BranchNode, error) {
	if sel == SelectAll || g.IsTrunk(branch) {
		return g.Nodes(), nil
	}

	n := g.Node(branch)
	if n == nil {
		return nil, fmt.Errorf("%s: %w", branch, gitxerrors.ErrNotTracked)
	}

	names := []string{n.Name}
	if sel == SelectDownstack || sel == SelectStack {
		for _, a := range g.Ancestors(n) {
			names = append(names, a.Name)
		}
	}
	if sel == SelectStack {
		for _, d := range g.Descendants(n) {
			names = append(names, d.Name)
		}
	}
	return engine.OrderSubset(g, names), nil
}

// Action performs the sync operation
func Action(rt *runtime.Context, opts Options) (*actions.Report, error) {
	branch := opts.Branch
	if branch == "" && opts.Selector != SelectAll {
		current, err := rt.VCS.CurrentBranch(rt.Context)
		if err != nil {
			return nil, fmt.Errorf("no branch given: %w", err)
		}
		branch = current
	}

	if rt.Host == nil {
		rt.Splog.Debug("GitHub integration disabled; pushing without pull requests")
	}

	return actions.WithSession(rt, func(s *actions.Session) error {
		nodes, err := Select(s.Graph, branch, opts.Selector)
		if err != nil {
			return err
		}
		rt.Splog.Debug("syncing %d branches (%s of %s)", len(nodes), opts.Selector, branch)

		if opts.DryRun {
			s.Discard()
		}
		return NewEngine(rt.VCS, rt.Host, rt.Splog, s.Save).Run(rt.Context, s.Graph, nodes, opts, s.Report)
	})
}
