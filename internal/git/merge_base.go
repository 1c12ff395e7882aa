package git

import (
	"context"
	"fmt"
)

// MergeBase returns the best common ancestor of two revisions
func (r *Repo) MergeBase(ctx context.Context, a, b string) (string, error) {
	hashA, err := r.resolve(a)
	if err != nil {
		return "", err
	}
	hashB, err := r.resolve(b)
	if err != nil {
		return "", err
	}
	if hashA == hashB {
		return hashA.String(), nil
	}

	commitA, err := r.repo.CommitObject(hashA)
	if err != nil {
		return "", fmt.Errorf("failed to get commit %s: %w", a, err)
	}
	commitB, err := r.repo.CommitObject(hashB)
	if err != nil {
		return "", fmt.Errorf("failed to get commit %s: %w", b, err)
	}

	bases, err := commitA.MergeBase(commitB)
	if err != nil {
		return "", fmt.Errorf("failed to find merge base: %w", err)
	}
	if len(bases) == 0 {
		return "", fmt.Errorf("no merge base between %s and %s", a, b)
	}
	return bases[0].Hash.String(), nil
}

// IsAncestor reports whether ancestor is reachable from descendant
func (r *Repo) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	hashA, err := r.resolve(ancestor)
	if err != nil {
		return false, err
	}
	hashD, err := r.resolve(descendant)
	if err != nil {
		return false, err
	}
	commitA, err := r.repo.CommitObject(hashA)
	if err != nil {
		return false, fmt.Errorf("failed to get commit %s: %w", ancestor, err)
	}
	commitD, err := r.repo.CommitObject(hashD)
	if err != nil {
		return false, fmt.Errorf("failed to get commit %s: %w", descendant, err)
	}
	return commitA.IsAncestor(commitD)
}
