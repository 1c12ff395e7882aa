// Package land removes merged branches from the stack and rebases the
// branches stacked on them onto the next surviving ancestor.
package land

import (
	"fmt"

	"gitx.dev/gitx/internal/actions"
	gitxerrors "gitx.dev/gitx/internal/errors"
	"gitx.dev/gitx/internal/runtime"
)

// Options contains options for the land command
type Options struct {
	DryRun bool
	// PullTrunk fast-forwards the local trunk from the remote before rebasing
	PullTrunk bool
}

// Action performs the land operation
func Action(rt *runtime.Context, opts Options) (*actions.Report, error) {
	if rt.Host == nil {
		return nil, fmt.Errorf("land needs GitHub integration to read pull request states; set GITHUB_TOKEN or run 'gh auth login'")
	}

	if !opts.DryRun {
		clean, err := rt.VCS.IsClean(rt.Context)
		if err != nil {
			return nil, err
		}
		if !clean {
			return nil, fmt.Errorf("commit or stash your changes before landing: %w", gitxerrors.ErrDirtyWorktree)
		}
	}

	return actions.WithSession(rt, func(s *actions.Session) error {
		if opts.DryRun {
			s.Discard()
		}
		return NewEngine(rt.VCS, rt.Host, rt.Splog, s.Save).Run(rt.Context, s.Graph, opts, s.Report)
	})
}
