package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gitx.dev/gitx/internal/actions"
	"gitx.dev/gitx/internal/engine"
	gitxerrors "gitx.dev/gitx/internal/errors"
	"gitx.dev/gitx/internal/output"
)

// Engine reconciles remote branches and pull requests with local commits,
// one node at a time in topological order.
type Engine struct {
	vcs   engine.VCS
	host  engine.PRHost
	splog *output.Splog
	save  func() error
}

// NewEngine creates a sync engine. A nil host pushes branches without
// managing pull requests. save is called after every completed step.
func NewEngine(vcs engine.VCS, host engine.PRHost, splog *output.Splog, save func() error) *Engine {
	if save == nil {
		save = func() error { return nil }
	}
	return &Engine{vcs: vcs, host: host, splog: splog, save: save}
}

// persistError aborts the run: later steps would diverge from the metadata.
type persistError struct {
	err error
}

func (e *persistError) Error() string { return e.err.Error() }
func (e *persistError) Unwrap() error { return e.err }

// Run syncs nodes, which must be in topological order. Node failures are
// recorded in report; only cancellation and persistence failures are returned.
func (e *Engine) Run(ctx context.Context, g *engine.Graph, nodes []*engine.BranchNode, opts Options, report *actions.Report) error {
	failed := make(map[engine.NodeID]string)

	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			report.Add(n.Name, actions.OutcomeSkipped, "cancelled")
			continue
		}

		if ancestor := failedAncestor(g, n, failed); ancestor != "" {
			failed[n.ID] = ancestor
			report.Add(n.Name, actions.OutcomeSkipped, "ancestor %s failed", ancestor)
			continue
		}

		err := e.syncNode(ctx, g, n, opts, report)
		if err == nil {
			continue
		}
		var pe *persistError
		if errors.As(err, &pe) {
			return pe.err
		}
		failed[n.ID] = n.Name
		report.AddError(n.Name, err)
		e.splog.Debug("sync of %s failed: %v", n.Name, err)
	}

	return ctx.Err()
}

func failedAncestor(g *engine.Graph, n *engine.BranchNode, failed map[engine.NodeID]string) string {
	for p := g.ParentNode(n); p != nil; p = g.ParentNode(p) {
		if _, ok := failed[p.ID]; ok {
			return p.Name
		}
	}
	return ""
}

func (e *Engine) syncNode(ctx context.Context, g *engine.Graph, n *engine.BranchNode, opts Options, report *actions.Report) error {
	if n.HasPR() && n.PR.State != engine.PRStateOpen {
		report.Add(n.Name, actions.OutcomeSkipped, "pull request %s is %s; run 'gitx land'", prLabel(n), n.PR.State)
		return nil
	}

	head, err := e.vcs.HeadCommit(ctx, n.Name)
	if err != nil {
		return gitxerrors.NewAdapterError(n.Name, gitxerrors.StepHead, err)
	}
	n.HeadCommit = head
	expected := g.ExpectedBase(n)

	managePR := e.host != nil && (n.HasPR() || !opts.NoCreate)
	needsPush := head != n.LastSyncedHeadCommit
	needsCreate := managePR && !n.HasPR()
	needsRetarget := managePR && n.HasPR() && n.PR.BaseBranch != expected

	if !needsPush && !needsCreate && !needsRetarget {
		report.Add(n.Name, actions.OutcomeSkipped, "up to date")
		return nil
	}
	if !n.HasPR() && opts.NoCreate && n.LastSyncedHeadCommit == "" {
		report.Add(n.Name, actions.OutcomeSkipped, "not pushed and has no pull request")
		return nil
	}

	if opts.DryRun {
		var steps []string
		if needsRetarget {
			steps = append(steps, fmt.Sprintf("retarget %s onto %s", prLabel(n), expected))
		}
		if needsPush {
			steps = append(steps, "push")
		}
		if needsCreate {
			steps = append(steps, fmt.Sprintf("open pull request onto %s", expected))
		}
		report.Add(n.Name, actions.OutcomePlanned, "%s", strings.Join(steps, ", "))
		return nil
	}

	var done []string

	// The base is corrected before new content reaches reviewers.
	if needsRetarget {
		if err := e.host.UpdateBase(ctx, n.PR.ID, expected); err != nil {
			return gitxerrors.NewAdapterError(n.Name, gitxerrors.StepUpdateBase, err)
		}
		e.splog.Debug("retargeted %s of %s from %s to %s", prLabel(n), n.Name, n.PR.BaseBranch, expected)
		n.PR.BaseBranch = expected
		if err := e.persist(); err != nil {
			return err
		}
		done = append(done, "base → "+expected)
	}

	// A pull request needs its head on the remote, so new branches are
	// pushed before creation.
	if needsPush {
		if err := e.vcs.PushWithLease(ctx, n.Name, n.LastSyncedHeadCommit); err != nil {
			var stale *gitxerrors.StaleRemoteError
			if errors.As(err, &stale) {
				return err
			}
			return gitxerrors.NewAdapterError(n.Name, gitxerrors.StepPush, err)
		}
		e.splog.Debug("pushed %s at %s", n.Name, head)
		n.LastSyncedHeadCommit = head
		if err := e.persist(); err != nil {
			return err
		}
		done = append(done, "pushed")
	}

	if needsCreate {
		title, body := e.describe(ctx, n)
		created, err := e.host.CreatePR(ctx, engine.CreatePROptions{
			Head:  n.Name,
			Base:  expected,
			Title: title,
			Body:  body,
			Draft: opts.Draft,
		})
		if err != nil {
			return gitxerrors.NewAdapterError(n.Name, gitxerrors.StepCreatePR, err)
		}
		n.PR = &engine.PullRequestRef{
			ID:         created.ID,
			HeadBranch: n.Name,
			BaseBranch: expected,
			State:      engine.PRStateOpen,
			URL:        created.URL,
		}
		if err := e.persist(); err != nil {
			return err
		}
		detail := fmt.Sprintf("%s onto %s", prLabel(n), expected)
		if created.URL != "" {
			detail += " " + created.URL
		}
		report.Add(n.Name, actions.OutcomeCreated, "%s", detail)
		return nil
	}

	report.Add(n.Name, actions.OutcomeSynced, "%s", strings.Join(done, ", "))
	return nil
}

// describe derives a PR title from the branch tip. The body is left empty.
func (e *Engine) describe(ctx context.Context, n *engine.BranchNode) (string, string) {
	subject, err := e.vcs.CommitSubject(ctx, n.Name)
	if err != nil || strings.TrimSpace(subject) == "" {
		return n.Name, ""
	}
	return subject, ""
}

func (e *Engine) persist() error {
	if err := e.save(); err != nil {
		return &persistError{err: err}
	}
	return nil
}

func prLabel(n *engine.BranchNode) string {
	if !n.HasPR() {
		return "(none)"
	}
	return fmt.Sprintf("#%d", n.PR.ID)
}
