package actions

import (
	"fmt"
	"time"

	"gitx.dev/gitx/internal/engine"
	gitxerrors "gitx.dev/gitx/internal/errors"
	"gitx.dev/gitx/internal/runtime"
)

// TrackOptions contains options for the track command
type TrackOptions struct {
	// Branch defaults to the current branch
	Branch string
	// Parent defaults to trunk
	Parent string
	// Now stamps the creation time. Defaults to time.Now.
	Now func() time.Time
}

// TrackAction starts tracking a branch on top of a parent, or moves an
// already tracked branch onto a new parent.
func TrackAction(rt *runtime.Context, opts TrackOptions) (*Report, error) {
	branch, err := resolveBranch(rt, opts.Branch)
	if err != nil {
		return nil, err
	}

	return WithSession(rt, func(s *Session) error {
		g := s.Graph
		if g.IsTrunk(branch) {
			return fmt.Errorf("cannot track %s: %w", branch, gitxerrors.ErrTrunkOperation)
		}
		if _, err := rt.VCS.HeadCommit(rt.Context, branch); err != nil {
			return err
		}

		parent := opts.Parent
		if parent == "" {
			parent = g.Trunk()
		}
		if !g.IsTrunk(parent) && g.Node(parent) == nil {
			return fmt.Errorf("parent %s must be the trunk or a tracked branch: %w", parent, gitxerrors.ErrNotTracked)
		}

		n := g.Node(branch)
		if n != nil {
			if err := g.SetParent(n, parent); err != nil {
				return err
			}
			s.Report.Add(branch, OutcomeTracked, "moved onto %s", parent)
		} else {
			now := time.Now
			if opts.Now != nil {
				now = opts.Now
			}
			n, err = g.Add(branch, parent, now())
			if err != nil {
				return err
			}
			s.Report.Add(branch, OutcomeTracked, "stacked on %s", parent)
		}

		if err := engine.RefreshNode(rt.Context, rt.VCS, g, n); err != nil {
			return err
		}
		if n.HasPR() && n.PR.BaseBranch != g.ExpectedBase(n) {
			rt.Splog.Tip("Run 'gitx sync %s' to retarget its pull request.", branch)
		}
		return nil
	})
}

// UntrackOptions contains options for the untrack command
type UntrackOptions struct {
	Branch string
}

// UntrackAction stops tracking a branch. Its children are spliced onto its
// parent; the branch itself is left in the repository.
func UntrackAction(rt *runtime.Context, opts UntrackOptions) (*Report, error) {
	branch, err := resolveBranch(rt, opts.Branch)
	if err != nil {
		return nil, err
	}

	return WithSession(rt, func(s *Session) error {
		g := s.Graph
		n := g.Node(branch)
		if n == nil {
			return fmt.Errorf("%s: %w", branch, gitxerrors.ErrNotTracked)
		}

		parent := g.ParentName(n)
		for _, child := range g.Children(n) {
			if err := g.SetParent(child, parent); err != nil {
				return err
			}
			s.Report.Add(child.Name, OutcomeTracked, "moved onto %s", parent)
		}
		for _, r := range g.Retired() {
			if r.Parent == n.ID {
				if err := g.SetParent(r, parent); err != nil {
					return err
				}
			}
		}
		if err := g.Remove(n); err != nil {
			return err
		}
		s.Report.Add(branch, OutcomeUntracked, "")
		return nil
	})
}

func resolveBranch(rt *runtime.Context, branch string) (string, error) {
	if branch != "" {
		return branch, nil
	}
	current, err := rt.VCS.CurrentBranch(rt.Context)
	if err != nil {
		return "", fmt.Errorf("no branch given: %w", err)
	}
	return current, nil
}
