package testhelpers

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gitx.dev/gitx/internal/engine"
	gitxerrors "gitx.dev/gitx/internal/errors"
)

type fakeCommit struct {
	id      string
	parent  string
	message string
}

// FakeVCS is an in-memory engine.VCS. Commits form a first-parent chain per
// branch, rebases replay commits with fresh ids, and every call is logged.
type FakeVCS struct {
	mu sync.Mutex

	commits  map[string]*fakeCommit
	branches map[string]string
	// Remote maps branch names to the commit the remote holds
	Remote  map[string]string
	current string
	nextID  int

	// Conflicts makes RebaseOnto of a branch report these files
	Conflicts map[string][]string
	// Errors makes the named call fail, keyed by "<op> <branch>"
	Errors map[string]error
	// Dirty makes IsClean report false
	Dirty bool

	calls []string
}

// NewFakeVCS creates a repository with a single root commit on trunk
func NewFakeVCS(trunk string) *FakeVCS {
	f := &FakeVCS{
		commits:   make(map[string]*fakeCommit),
		branches:  make(map[string]string),
		Remote:    make(map[string]string),
		Conflicts: make(map[string][]string),
		Errors:    make(map[string]error),
	}
	root := f.newCommit("", "initial commit")
	f.branches[trunk] = root
	f.current = trunk
	return f
}

func (f *FakeVCS) newCommit(parent, message string) string {
	f.nextID++
	id := fmt.Sprintf("c%d", f.nextID)
	f.commits[id] = &fakeCommit{id: id, parent: parent, message: message}
	return id
}

// CreateBranch creates name pointing at from's head
func (f *FakeVCS) CreateBranch(name, from string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	head := f.resolve(from)
	f.branches[name] = head
	return head
}

// Commit adds a commit on top of branch and returns its id
func (f *FakeVCS) Commit(branch, message string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.newCommit(f.branches[branch], message)
	f.branches[branch] = id
	return id
}

// SetRemote sets what the remote holds for branch without logging a call
func (f *FakeVCS) SetRemote(branch, commit string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Remote[branch] = commit
}

// Head returns a branch head without logging a call
func (f *FakeVCS) Head(branch string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.branches[branch]
}

// HasBranch reports whether the branch exists
func (f *FakeVCS) HasBranch(branch string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.branches[branch]
	return ok
}

// Messages returns commit messages from branch head back to the root
func (f *FakeVCS) Messages(branch string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for id := f.branches[branch]; id != ""; id = f.commits[id].parent {
		out = append(out, f.commits[id].message)
	}
	return out
}

// IsAncestor reports whether ancestor is reachable from descendant
func (f *FakeVCS) IsAncestor(ancestor, descendant string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reachable(f.resolve(descendant))[f.resolve(ancestor)]
}

// Calls returns the logged calls in order
func (f *FakeVCS) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallsWithPrefix returns logged calls starting with prefix
func (f *FakeVCS) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the call log
func (f *FakeVCS) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakeVCS) record(format string, args ...any) error {
	call := fmt.Sprintf(format, args...)
	f.calls = append(f.calls, call)
	op, branch, _ := strings.Cut(call, " ")
	if branch, _, _ = strings.Cut(branch, " "); branch != "" {
		if err, ok := f.Errors[op+" "+branch]; ok {
			return err
		}
	}
	return nil
}

func (f *FakeVCS) resolve(rev string) string {
	if head, ok := f.branches[rev]; ok {
		return head
	}
	return rev
}

func (f *FakeVCS) reachable(id string) map[string]bool {
	seen := make(map[string]bool)
	for ; id != ""; id = f.commits[id].parent {
		seen[id] = true
	}
	return seen
}

func (f *FakeVCS) ListBranches(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.branches))
	for name := range f.branches {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (f *FakeVCS) HeadCommit(ctx context.Context, branch string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	head, ok := f.branches[branch]
	if !ok {
		return "", gitxerrors.NewBranchNotFoundError(branch)
	}
	return head, nil
}

func (f *FakeVCS) MergeBase(ctx context.Context, a, b string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fromA := f.reachable(f.resolve(a))
	for id := f.resolve(b); id != ""; id = f.commits[id].parent {
		if fromA[id] {
			return id, nil
		}
	}
	return "", fmt.Errorf("no merge base between %s and %s", a, b)
}

func (f *FakeVCS) CurrentBranch(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

func (f *FakeVCS) Checkout(ctx context.Context, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("checkout %s", branch); err != nil {
		return err
	}
	if _, ok := f.branches[branch]; !ok {
		return gitxerrors.NewBranchNotFoundError(branch)
	}
	f.current = branch
	return nil
}

func (f *FakeVCS) IsClean(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.Dirty, nil
}

func (f *FakeVCS) CommitSubject(ctx context.Context, rev string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.commits[f.resolve(rev)]
	if !ok {
		return "", fmt.Errorf("unknown revision %s", rev)
	}
	subject, _, _ := strings.Cut(c.message, "\n")
	return subject, nil
}

func (f *FakeVCS) RebaseOnto(ctx context.Context, branch, oldBase, newBase string) (engine.RebaseResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("rebase %s onto %s", branch, newBase); err != nil {
		return engine.RebaseResult{}, err
	}
	head, ok := f.branches[branch]
	if !ok {
		return engine.RebaseResult{}, gitxerrors.NewBranchNotFoundError(branch)
	}
	if files, ok := f.Conflicts[branch]; ok {
		return engine.RebaseResult{Conflicts: slices.Clone(files)}, nil
	}

	oldBase = f.resolve(oldBase)
	var replay []*fakeCommit
	for id := head; id != oldBase; id = f.commits[id].parent {
		if id == "" {
			return engine.RebaseResult{}, fmt.Errorf("%s is not an ancestor of %s", oldBase, branch)
		}
		replay = append(replay, f.commits[id])
	}

	tip := f.resolve(newBase)
	for i := len(replay) - 1; i >= 0; i-- {
		tip = f.newCommit(tip, replay[i].message)
	}
	f.branches[branch] = tip
	return engine.RebaseResult{NewHead: tip}, nil
}

func (f *FakeVCS) PushWithLease(ctx context.Context, branch, expectedRemoteHead string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("push %s", branch); err != nil {
		return err
	}
	if f.Remote[branch] != expectedRemoteHead {
		return gitxerrors.NewStaleRemoteError(branch, expectedRemoteHead)
	}
	f.Remote[branch] = f.branches[branch]
	return nil
}

func (f *FakeVCS) DeleteBranch(ctx context.Context, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete %s", branch); err != nil {
		return err
	}
	if f.current == branch {
		return fmt.Errorf("cannot delete checked out branch %s", branch)
	}
	delete(f.branches, branch)
	return nil
}

func (f *FakeVCS) FastForwardTrunk(ctx context.Context, trunk string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("fastforward %s", trunk); err != nil {
		return false, err
	}
	remote, ok := f.Remote[trunk]
	local := f.branches[trunk]
	if !ok || remote == local {
		return false, nil
	}
	if !f.reachable(remote)[local] {
		return false, fmt.Errorf("%s cannot be fast-forwarded", trunk)
	}
	f.branches[trunk] = remote
	return true, nil
}

// CommitOn adds a commit on top of an arbitrary commit without moving any
// branch, for simulating remote-only history.
func (f *FakeVCS) CommitOn(parent, message string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newCommit(f.resolve(parent), message)
}

var _ engine.VCS = (*FakeVCS)(nil)
