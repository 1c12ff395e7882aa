// Package errors provides sentinel errors and custom error types for gitx.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrNotOnBranch indicates that HEAD is not on a branch
	ErrNotOnBranch = errors.New("not on a branch")

	// ErrBranchNotFound indicates that a branch does not exist
	ErrBranchNotFound = errors.New("branch not found")

	// ErrNotTracked indicates that a branch has no stack metadata
	ErrNotTracked = errors.New("branch is not tracked")

	// ErrTrunkOperation indicates an invalid operation on the trunk branch
	ErrTrunkOperation = errors.New("invalid operation on trunk branch")

	// ErrConsistency indicates the stack graph is structurally invalid
	ErrConsistency = errors.New("stack metadata is inconsistent")

	// ErrLandConflict indicates a rebase conflict while cascading a land
	ErrLandConflict = errors.New("rebase conflict")

	// ErrStaleRemote indicates a lease-guarded push was rejected
	ErrStaleRemote = errors.New("remote branch has advanced")

	// ErrOrphaned indicates metadata references a branch that no longer exists
	ErrOrphaned = errors.New("branch no longer exists")

	// ErrBusy indicates another invocation holds the stack lock
	ErrBusy = errors.New("busy: another gitx command is running on this stack")

	// ErrDirtyWorktree indicates the working tree has uncommitted changes
	ErrDirtyWorktree = errors.New("working tree has uncommitted changes")
)

// Step names the adapter call that failed for a branch.
type Step string

const (
	StepHead       Step = "read-head"
	StepCreatePR   Step = "create-pr"
	StepUpdateBase Step = "update-base"
	StepPush       Step = "push"
	StepGetState   Step = "get-state"
	StepRebase     Step = "rebase"
	StepDelete     Step = "delete-branch"
	StepCheckout   Step = "checkout"
	StepPersist    Step = "persist"
)

// BranchNotFoundError represents an error when a branch is not found
type BranchNotFoundError struct {
	BranchName string
}

func (e *BranchNotFoundError) Error() string {
	return fmt.Sprintf("branch %s does not exist", e.BranchName)
}

// Is returns true if the target error is ErrBranchNotFound
func (e *BranchNotFoundError) Is(target error) bool {
	return target == ErrBranchNotFound
}

// NewBranchNotFoundError creates a new BranchNotFoundError
func NewBranchNotFoundError(branchName string) *BranchNotFoundError {
	return &BranchNotFoundError{BranchName: branchName}
}

// ConsistencyError reports a structurally invalid stack graph. It is fatal:
// the run aborts before any mutation.
type ConsistencyError struct {
	Reason   string
	Branches []string
}

func (e *ConsistencyError) Error() string {
	if len(e.Branches) == 0 {
		return fmt.Sprintf("inconsistent stack: %s", e.Reason)
	}
	return fmt.Sprintf("inconsistent stack: %s (%s)", e.Reason, strings.Join(e.Branches, ", "))
}

// Is returns true if the target error is ErrConsistency
func (e *ConsistencyError) Is(target error) bool {
	return target == ErrConsistency
}

// NewConsistencyError creates a new ConsistencyError
func NewConsistencyError(reason string, branches ...string) *ConsistencyError {
	return &ConsistencyError{Reason: reason, Branches: branches}
}

// AdapterError wraps a failed VCS or PR host call, scoped to one branch.
type AdapterError struct {
	Branch string
	Step   Step
	Err    error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Step, e.Branch, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError creates a new AdapterError
func NewAdapterError(branch string, step Step, err error) *AdapterError {
	return &AdapterError{Branch: branch, Step: step, Err: err}
}

// LandConflict reports a rebase conflict hit while cascading a land.
type LandConflict struct {
	Branch string
	Onto   string
	Files  []string
}

func (e *LandConflict) Error() string {
	msg := fmt.Sprintf("rebase conflict on branch %s onto %s", e.Branch, e.Onto)
	if len(e.Files) > 0 {
		msg += fmt.Sprintf(": %s", strings.Join(e.Files, ", "))
	}
	return msg
}

// Is returns true if the target error is ErrLandConflict
func (e *LandConflict) Is(target error) bool {
	return target == ErrLandConflict
}

// NewLandConflict creates a new LandConflict
func NewLandConflict(branch, onto string, files []string) *LandConflict {
	return &LandConflict{Branch: branch, Onto: onto, Files: files}
}

// StaleRemoteError reports a push-with-lease rejected because the remote head
// moved away from the recorded value.
type StaleRemoteError struct {
	Branch   string
	Expected string
}

func (e *StaleRemoteError) Error() string {
	expected := e.Expected
	if expected == "" {
		expected = "<absent>"
	}
	return fmt.Sprintf("remote branch %s no longer matches %s; run 'git fetch' and re-sync before retrying", e.Branch, expected)
}

// Is returns true if the target error is ErrStaleRemote
func (e *StaleRemoteError) Is(target error) bool {
	return target == ErrStaleRemote
}

// NewStaleRemoteError creates a new StaleRemoteError
func NewStaleRemoteError(branch, expected string) *StaleRemoteError {
	return &StaleRemoteError{Branch: branch, Expected: expected}
}

// OrphanedError reports stack metadata for a branch that is gone locally.
type OrphanedError struct {
	Branch string
}

func (e *OrphanedError) Error() string {
	return fmt.Sprintf("branch %s is tracked but no longer exists locally", e.Branch)
}

// Is returns true if the target error is ErrOrphaned
func (e *OrphanedError) Is(target error) bool {
	return target == ErrOrphaned
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConsistency) || errors.Is(err, ErrBusy)
}
