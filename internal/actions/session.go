package actions

import (
	"context"
	"errors"
	"fmt"

	"gitx.dev/gitx/internal/engine"
	"gitx.dev/gitx/internal/runtime"
)

// Session is a loaded stack held under the stack lock for one mutating command
type Session struct {
	Graph  *engine.Graph
	Report *Report

	rt      *runtime.Context
	lock    *engine.FileLock
	discard bool
}

// OpenSession takes the stack lock and loads the graph. Load warnings go to
// the session report. The caller must Close the session.
func OpenSession(rt *runtime.Context) (*Session, error) {
	lock, err := rt.Store.Lock()
	if err != nil {
		return nil, err
	}

	g, loadReport, err := engine.Load(rt.Context, rt.VCS, rt.Store, engine.LoadOptions{
		StrictParents: rt.Settings.StrictParents,
	})
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	report := NewReport()
	report.AddLoadReport(loadReport)
	for _, name := range loadReport.Orphaned {
		rt.Splog.Warn("Branch %s no longer exists; dropping it from the stack.", name)
	}
	for _, rp := range loadReport.Reparented {
		rt.Splog.Warn("Parent %s of %s is no longer tracked; moving %s onto %s.", rp.MissingParent, rp.Branch, rp.Branch, g.Trunk())
	}

	return &Session{Graph: g, Report: report, rt: rt, lock: lock}, nil
}

// Save persists the graph. It runs even after cancellation so that a
// completed step is never lost.
func (s *Session) Save() error {
	if s.discard {
		return nil
	}
	if err := engine.Save(context.WithoutCancel(s.rt.Context), s.rt.Store, s.Graph); err != nil {
		return fmt.Errorf("failed to save stack metadata: %w", err)
	}
	return nil
}

// Discard turns Save into a no-op, for dry runs
func (s *Session) Discard() {
	s.discard = true
}

// Close releases the stack lock
func (s *Session) Close() error {
	if s.lock == nil {
		return nil
	}
	err := s.lock.Unlock()
	s.lock = nil
	return err
}

// WithSession opens a session, runs fn, and saves the graph unless fn fails
// fatally. The session report is returned either way.
func WithSession(rt *runtime.Context, fn func(*Session) error) (*Report, error) {
	s, err := OpenSession(rt)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Close() }()

	fnErr := fn(s)
	if fnErr != nil && !errors.Is(fnErr, context.Canceled) {
		return s.Report, fnErr
	}
	if err := s.Save(); err != nil {
		return s.Report, err
	}
	return s.Report, fnErr
}
