package github

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/go-github/v62/github"
	"github.com/sourcegraph/conc/pool"

	"gitx.dev/gitx/internal/engine"
)

// CreatePR opens a pull request. It is not retried.
func (c *Client) CreatePR(ctx context.Context, opts engine.CreatePROptions) (engine.CreatedPR, error) {
	newPR := &github.NewPullRequest{
		Title: github.String(opts.Title),
		Head:  github.String(opts.Head),
		Base:  github.String(opts.Base),
		Draft: github.Bool(opts.Draft),
	}
	if opts.Body != "" {
		newPR.Body = github.String(opts.Body)
	}

	pr, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, newPR)
	if err != nil {
		return engine.CreatedPR{}, fmt.Errorf("failed to create pull request for %s: %w", opts.Head, err)
	}

	return engine.CreatedPR{ID: pr.GetNumber(), URL: pr.GetHTMLURL()}, nil
}

// UpdateBase retargets pull request id onto base
func (c *Client) UpdateBase(ctx context.Context, id int, base string) error {
	update := &github.PullRequest{
		Base: &github.PullRequestBranch{Ref: github.String(base)},
	}
	err := withRetry(ctx, func() error {
		_, _, err := c.gh.PullRequests.Edit(ctx, c.owner, c.repo, id, update)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update base of pull request #%d: %w", id, err)
	}
	return nil
}

// GetState reads the state of pull request id
func (c *Client) GetState(ctx context.Context, id int) (engine.PRState, error) {
	var pr *github.PullRequest
	err := withRetry(ctx, func() error {
		var err error
		pr, _, err = c.gh.PullRequests.Get(ctx, c.owner, c.repo, id)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to get pull request #%d: %w", id, err)
	}
	return stateOf(pr), nil
}

// BatchGetStates reads many states on a bounded worker pool
func (c *Client) BatchGetStates(ctx context.Context, ids []int) (map[int]engine.PRState, map[int]error) {
	states := make(map[int]engine.PRState, len(ids))
	errs := make(map[int]error)
	var mu sync.Mutex

	seen := make(map[int]bool, len(ids))
	p := pool.New().WithMaxGoroutines(c.concurrency)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		p.Go(func() {
			state, err := c.GetState(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[id] = err
				return
			}
			states[id] = state
		})
	}
	p.Wait()

	return states, errs
}

func stateOf(pr *github.PullRequest) engine.PRState {
	if pr.GetMerged() {
		return engine.PRStateMerged
	}
	return engine.ParsePRState(pr.GetState())
}
