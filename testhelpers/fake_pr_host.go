package testhelpers

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gitx.dev/gitx/internal/engine"
)

// FakePR is a pull request held by FakePRHost
type FakePR struct {
	ID    int
	Head  string
	Base  string
	Title string
	Body  string
	State engine.PRState
}

// FakePRHost is an in-memory engine.PRHost that logs every call
type FakePRHost struct {
	mu     sync.Mutex
	prs    map[int]*FakePR
	nextID int
	calls  []string

	// Errors makes the named call fail, keyed by "<op> <id>" or "create <head>".
	// The error is returned Remaining times, or forever when Remaining is 0.
	Errors map[string]*FailingCall
}

// FailingCall configures an injected failure
type FailingCall struct {
	Err       error
	Remaining int
}

// NewFakePRHost creates an empty host whose first PR is #1
func NewFakePRHost() *FakePRHost {
	return &FakePRHost{
		prs:    make(map[int]*FakePR),
		nextID: 1,
		Errors: make(map[string]*FailingCall),
	}
}

// AddPR registers an existing PR and returns its id
func (h *FakePRHost) AddPR(head, base string, state engine.PRState) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.prs[id] = &FakePR{ID: id, Head: head, Base: base, State: state}
	return id
}

// SetState changes the state of a PR, as if merged or closed remotely
func (h *FakePRHost) SetState(id int, state engine.PRState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prs[id].State = state
}

// PR returns a copy of the PR with id
func (h *FakePRHost) PR(id int) FakePR {
	h.mu.Lock()
	defer h.mu.Unlock()
	return *h.prs[id]
}

// Fail injects an error for key, returned times times (0 means always)
func (h *FakePRHost) Fail(key string, err error, times int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Errors[key] = &FailingCall{Err: err, Remaining: times}
}

// Calls returns the logged calls in order
func (h *FakePRHost) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.calls)
}

// MutationCalls returns logged create and update calls
func (h *FakePRHost) MutationCalls() []string {
	var out []string
	for _, c := range h.Calls() {
		if strings.HasPrefix(c, "create ") || strings.HasPrefix(c, "update-base ") {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the call log
func (h *FakePRHost) ResetCalls() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = nil
}

func (h *FakePRHost) record(key, call string) error {
	h.calls = append(h.calls, call)
	fc, ok := h.Errors[key]
	if !ok {
		return nil
	}
	if fc.Remaining > 0 {
		fc.Remaining--
		if fc.Remaining == 0 {
			delete(h.Errors, key)
		}
	}
	return fc.Err
}

func (h *FakePRHost) CreatePR(ctx context.Context, opts engine.CreatePROptions) (engine.CreatedPR, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record("create "+opts.Head, fmt.Sprintf("create %s base %s", opts.Head, opts.Base)); err != nil {
		return engine.CreatedPR{}, err
	}
	id := h.nextID
	h.nextID++
	h.prs[id] = &FakePR{
		ID:    id,
		Head:  opts.Head,
		Base:  opts.Base,
		Title: opts.Title,
		Body:  opts.Body,
		State: engine.PRStateOpen,
	}
	return engine.CreatedPR{ID: id, URL: fmt.Sprintf("https://example.test/pull/%d", id)}, nil
}

func (h *FakePRHost) UpdateBase(ctx context.Context, id int, base string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record(fmt.Sprintf("update-base %d", id), fmt.Sprintf("update-base %d %s", id, base)); err != nil {
		return err
	}
	pr, ok := h.prs[id]
	if !ok {
		return fmt.Errorf("pull request #%d not found", id)
	}
	pr.Base = base
	return nil
}

func (h *FakePRHost) GetState(ctx context.Context, id int) (engine.PRState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := fmt.Sprintf("get-state %d", id)
	if err := h.record(key, key); err != nil {
		return "", err
	}
	pr, ok := h.prs[id]
	if !ok {
		return "", fmt.Errorf("pull request #%d not found", id)
	}
	return pr.State, nil
}

func (h *FakePRHost) BatchGetStates(ctx context.Context, ids []int) (map[int]engine.PRState, map[int]error) {
	states := make(map[int]engine.PRState, len(ids))
	errs := make(map[int]error)
	for _, id := range ids {
		state, err := h.GetState(ctx, id)
		if err != nil {
			errs[id] = err
			continue
		}
		states[id] = state
	}
	return states, errs
}

var _ engine.PRHost = (*FakePRHost)(nil)
