package testhelpers

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitx.dev/gitx/internal/config"
	"gitx.dev/gitx/internal/engine"
	"gitx.dev/gitx/internal/output"
	"gitx.dev/gitx/internal/runtime"
)

// StackFixture builds a stack on the in-memory fakes and writes its metadata
// to a temporary store.
type StackFixture struct {
	t        *testing.T
	VCS      *FakeVCS
	Host     *FakePRHost
	Store    *engine.Store
	Trunk    string
	// Settings are passed to contexts built by Context
	Settings *config.Settings
	// Output captures console output of contexts built by Context
	Output *bytes.Buffer

	records []engine.Record
	clock   time.Time
}

// NewStackFixture creates an empty stack on trunk
func NewStackFixture(t *testing.T, trunk string) *StackFixture {
	t.Helper()
	return &StackFixture{
		t:        t,
		VCS:      NewFakeVCS(trunk),
		Host:     NewFakePRHost(),
		Store:    engine.NewStore(t.TempDir(), trunk),
		Trunk:    trunk,
		Settings: config.Resolve(nil, nil),
		Output:   &bytes.Buffer{},
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Branch creates name on top of parent with one commit per message and
// tracks it. Branches are created one minute apart.
func (s *StackFixture) Branch(name, parent string, messages ...string) *StackFixture {
	s.VCS.CreateBranch(name, parent)
	for _, msg := range messages {
		s.VCS.Commit(name, msg)
	}
	s.clock = s.clock.Add(time.Minute)
	s.records = append(s.records, engine.Record{Name: name, Parent: parent, CreatedAt: s.clock})
	return s
}

// OpenPR gives name an open PR based on its parent and marks it pushed at
// its current head. It returns the PR id.
func (s *StackFixture) OpenPR(name string) int {
	rec := s.record(name)
	id := s.Host.AddPR(name, rec.Parent, engine.PRStateOpen)
	base := rec.Parent
	state := string(engine.PRStateOpen)
	rec.PRID = &id
	rec.BaseBranch = &base
	rec.PRState = &state
	s.Pushed(name)
	return id
}

// Pushed records the branch head as pushed to the remote
func (s *StackFixture) Pushed(name string) {
	head := s.VCS.Head(name)
	s.VCS.SetRemote(name, head)
	s.record(name).LastSyncedHeadCommit = head
}

// record returns the pending record for name
func (s *StackFixture) record(name string) *engine.Record {
	for i := range s.records {
		if s.records[i].Name == name {
			return &s.records[i]
		}
	}
	s.t.Fatalf("branch %s is not part of the fixture", name)
	return nil
}

// Edit changes the pending record for name before it is written
func (s *StackFixture) Edit(name string, fn func(*engine.Record)) {
	fn(s.record(name))
}

// Write stores the records
func (s *StackFixture) Write() {
	s.t.Helper()
	require.NoError(s.t, s.Store.Write(&engine.Document{Branches: s.records}))
}

// Load writes the records and loads the graph from them
func (s *StackFixture) Load() *engine.Graph {
	s.t.Helper()
	s.Write()
	return s.Reload()
}

// Reload loads the graph from whatever the store currently holds
func (s *StackFixture) Reload() *engine.Graph {
	s.t.Helper()
	g, _, err := engine.Load(context.Background(), s.VCS, s.Store, engine.LoadOptions{})
	require.NoError(s.t, err)
	return g
}

// Context returns a command context wired to the fakes and the fixture store
func (s *StackFixture) Context() *runtime.Context {
	s.t.Helper()
	splog, err := output.NewSplogWithOptions(output.LogOptions{Writer: s.Output, NoColor: true})
	require.NoError(s.t, err)
	s.Settings.Trunk = s.Trunk
	return runtime.NewContext(context.Background(), s.VCS, s.Host, s.Store, s.Settings, splog)
}
