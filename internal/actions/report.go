package actions

import (
	"errors"
	"fmt"

	"gitx.dev/gitx/internal/engine"
	gitxerrors "gitx.dev/gitx/internal/errors"
	"gitx.dev/gitx/internal/output"
)

// OutcomeKind classifies what happened to one branch during a run
type OutcomeKind string

const (
	OutcomeSynced     OutcomeKind = "synced"
	OutcomeCreated    OutcomeKind = "created"
	OutcomeSkipped    OutcomeKind = "skipped"
	OutcomePlanned    OutcomeKind = "planned"
	OutcomeRestacked  OutcomeKind = "restacked"
	OutcomeConflict   OutcomeKind = "conflict"
	OutcomeStale      OutcomeKind = "stale"
	OutcomeOrphaned   OutcomeKind = "orphaned"
	OutcomeReparented OutcomeKind = "reparented"
	OutcomeLanded     OutcomeKind = "landed"
	OutcomeClosed     OutcomeKind = "closed"
	OutcomeTracked    OutcomeKind = "tracked"
	OutcomeUntracked  OutcomeKind = "untracked"
	OutcomeError      OutcomeKind = "error"
)

// Failed reports whether the kind makes the run exit nonzero
func (k OutcomeKind) Failed() bool {
	return k == OutcomeConflict || k == OutcomeStale || k == OutcomeError
}

// Exit codes
const (
	ExitOK          = 0
	ExitNodeFailure = 1
	ExitFatal       = 2
)

// Outcome is the result for one branch
type Outcome struct {
	Branch string
	Kind   OutcomeKind
	Detail string
	Err    error
}

// Report collects per-branch outcomes for one run, in the order they happened
type Report struct {
	Outcomes []Outcome
}

// NewReport creates an empty report
func NewReport() *Report {
	return &Report{}
}

// Add records an outcome without an error
func (r *Report) Add(branch string, kind OutcomeKind, format string, args ...any) {
	detail := format
	if len(args) > 0 {
		detail = fmt.Sprintf(format, args...)
	}
	r.Outcomes = append(r.Outcomes, Outcome{Branch: branch, Kind: kind, Detail: detail})
}

// AddError records a failed branch. The kind is derived from err.
func (r *Report) AddError(branch string, err error) {
	kind := OutcomeError
	switch {
	case errors.Is(err, gitxerrors.ErrLandConflict):
		kind = OutcomeConflict
	case errors.Is(err, gitxerrors.ErrStaleRemote):
		kind = OutcomeStale
	}
	r.Outcomes = append(r.Outcomes, Outcome{Branch: branch, Kind: kind, Detail: err.Error(), Err: err})
}

// AddLoadReport records the warnings produced while loading the graph
func (r *Report) AddLoadReport(lr *engine.LoadReport) {
	if lr == nil {
		return
	}
	for _, name := range lr.Orphaned {
		err := &gitxerrors.OrphanedError{Branch: name}
		r.Outcomes = append(r.Outcomes, Outcome{Branch: name, Kind: OutcomeOrphaned, Detail: err.Error(), Err: err})
	}
	for _, rp := range lr.Reparented {
		r.Add(rp.Branch, OutcomeReparented, "parent %s is no longer tracked; moved onto trunk", rp.MissingParent)
	}
}

// For returns the outcomes recorded for branch
func (r *Report) For(branch string) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Branch == branch {
			out = append(out, o)
		}
	}
	return out
}

// Last returns the most recent outcome for branch
func (r *Report) Last(branch string) (Outcome, bool) {
	for i := len(r.Outcomes) - 1; i >= 0; i-- {
		if r.Outcomes[i].Branch == branch {
			return r.Outcomes[i], true
		}
	}
	return Outcome{}, false
}

// Kinds returns the most recent outcome kind per branch
func (r *Report) Kinds() map[string]OutcomeKind {
	kinds := make(map[string]OutcomeKind)
	for _, o := range r.Outcomes {
		kinds[o.Branch] = o.Kind
	}
	return kinds
}

// Failed reports whether any branch reported an error, conflict or stale remote
func (r *Report) Failed() bool {
	for _, o := range r.Outcomes {
		if o.Kind.Failed() {
			return true
		}
	}
	return false
}

// ExitCode maps the report to the process exit code
func (r *Report) ExitCode() int {
	if r.Failed() {
		return ExitNodeFailure
	}
	return ExitOK
}

// Print writes the per-branch summary
func (r *Report) Print(splog *output.Splog) {
	if len(r.Outcomes) == 0 {
		splog.Info("Nothing to do.")
		return
	}
	for _, o := range r.Outcomes {
		line := fmt.Sprintf("%s %s", kindLabel(o.Kind), output.ColorBranchName(o.Branch, false))
		if o.Detail != "" {
			line += " " + output.ColorDim(o.Detail)
		}
		splog.Info("%s", line)
	}
}

func kindLabel(kind OutcomeKind) string {
	label := fmt.Sprintf("%-10s", kind)
	switch kind {
	case OutcomeSynced, OutcomeCreated, OutcomeLanded, OutcomeRestacked, OutcomeTracked, OutcomeUntracked:
		return output.ColorSuccess(label)
	case OutcomeConflict, OutcomeStale, OutcomeError:
		return output.ColorError(label)
	case OutcomeOrphaned, OutcomeReparented, OutcomeClosed:
		return output.ColorWarning(label)
	default:
		return output.ColorDim(label)
	}
}
