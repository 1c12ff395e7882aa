package sync_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"gitx.dev/gitx/internal/actions"
	"gitx.dev/gitx/internal/actions/sync"
	"gitx.dev/gitx/internal/engine"
	gitxerrors "gitx.dev/gitx/internal/errors"
	"gitx.dev/gitx/testhelpers"
)

func TestSyncIdempotence(t *testing.T) {
	fx := testhelpers.NewStackFixture(t, "main")
	fx.Branch("A", "main", "a1").Branch("B", "A", "b1")
	fx.OpenPR("A")
	fx.OpenPR("B")
	fx.Write()
	fx.VCS.Commit("B", "b2")

	report, err := sync.Action(fx.Context(), sync.Options{Branch: "B"})
	require.NoError(t, err)
	require.Equal(t, map[string]actions.OutcomeKind{
		"A": actions.OutcomeSkipped,
		"B": actions.OutcomeSynced,
	}, report.Kinds())
	require.Equal(t, []string{"push B"}, fx.VCS.CallsWithPrefix("push"))
	require.Empty(t, fx.Host.Calls())
	require.Equal(t, actions.ExitOK, report.ExitCode())

	fx.VCS.ResetCalls()
	report, err = sync.Action(fx.Context(), sync.Options{Branch: "B"})
	require.NoError(t, err)
	require.Empty(t, fx.VCS.CallsWithPrefix("push"))
	require.Empty(t, fx.Host.Calls())
	require.Equal(t, actions.OutcomeSkipped, report.Kinds()["B"])

	g := fx.Reload()
	require.Equal(t, fx.VCS.Head("B"), g.Node("B").LastSyncedHeadCommit)
	require.Equal(t, fx.VCS.Head("B"), fx.VCS.Remote["B"])
}

func TestSyncCreatesPullRequests(t *testing.T) {
	t.Run("pushes before opening the pull request", func(t *testing.T) {
		fx := testhelpers.NewStackFixture(t, "main")
		fx.Branch("A", "main", "Add the widget").Branch("B", "A", "Use the widget")
		fx.Write()

		report, err := sync.Action(fx.Context(), sync.Options{Branch: "B"})
		require.NoError(t, err)
		require.Equal(t, actions.OutcomeCreated, report.Kinds()["A"])
		require.Equal(t, actions.OutcomeCreated, report.Kinds()["B"])
		require.Equal(t, []string{"push A", "push B"}, fx.VCS.CallsWithPrefix("push"))
		require.Equal(t, []string{"create A base main", "create B base A"}, fx.Host.MutationCalls())

		pr := fx.Host.PR(1)
		require.Equal(t, "Add the widget", pr.Title)
		require.Equal(t, fx.VCS.Head("A"), fx.VCS.Remote["A"])

		g := fx.Reload()
		b := g.Node("B")
		require.True(t, b.HasPR())
		require.Equal(t, 2, b.PR.ID)
		require.Equal(t, "A", b.PR.BaseBranch)
		require.Equal(t, engine.PRStateOpen, b.PR.State)
		require.Equal(t, fx.VCS.Head("B"), b.LastSyncedHeadCommit)
	})

	t.Run("a failed create is resumed without pushing again", func(t *testing.T) {
		fx := testhelpers.NewStackFixture(t, "main")
		fx.Branch("A", "main", "a1")
		fx.Write()
		fx.Host.Fail("create A", errors.New("server unavailable"), 1)

		report, err := sync.Action(fx.Context(), sync.Options{Branch: "A"})
		require.NoError(t, err)
		out, _ := report.Last("A")
		require.Equal(t, actions.OutcomeError, out.Kind)
		var adapterErr *gitxerrors.AdapterError
		require.ErrorAs(t, out.Err, &adapterErr)
		require.Equal(t, gitxerrors.StepCreatePR, adapterErr.Step)
		require.Equal(t, actions.ExitNodeFailure, report.ExitCode())

		fx.VCS.ResetCalls()
		report, err = sync.Action(fx.Context(), sync.Options{Branch: "A"})
		require.NoError(t, err)
		require.Equal(t, actions.OutcomeCreated, report.Kinds()["A"])
		require.Empty(t, fx.VCS.CallsWithPrefix("push"))
	})
}

func TestSyncUpdatesBaseBeforePush(t *testing.T) {
	setup := func(t *testing.T) *testhelpers.StackFixture {
		fx := testhelpers.NewStackFixture(t, "main")
		fx.Branch("A", "main", "a1").Branch("B", "A", "b1")
		fx.OpenPR("A")
		fx.OpenPR("B")
		fx.Edit("B", func(r *engine.Record) {
			base := "main"
			r.BaseBranch = &base
		})
		fx.Write()
		fx.VCS.Commit("B", "b2")
		return fx
	}

	t.Run("retargets then pushes", func(t *testing.T) {
		fx := setup(t)

		report, err := sync.Action(fx.Context(), sync.Options{Branch: "B", Selector: sync.SelectOnly})
		require.NoError(t, err)
		require.Equal(t, actions.OutcomeSynced, report.Kinds()["B"])
		require.Equal(t, []string{"update-base 2 A"}, fx.Host.MutationCalls())
		require.Equal(t, "A", fx.Host.PR(2).Base)
		require.Equal(t, []string{"push B"}, fx.VCS.CallsWithPrefix("push"))
		require.Equal(t, "A", fx.Reload().Node("B").PR.BaseBranch)
	})

	t.Run("no content is pushed when the base update fails", func(t *testing.T) {
		fx := setup(t)
		fx.Host.Fail("update-base 2", errors.New("boom"), 0)

		report, err := sync.Action(fx.Context(), sync.Options{Branch: "B", Selector: sync.SelectOnly})
		require.NoError(t, err)
		out, _ := report.Last("B")
		var adapterErr *gitxerrors.AdapterError
		require.ErrorAs(t, out.Err, &adapterErr)
		require.Equal(t, gitxerrors.StepUpdateBase, adapterErr.Step)
		require.Empty(t, fx.VCS.CallsWithPrefix("push"))
		require.Equal(t, "main", fx.Reload().Node("B").PR.BaseBranch)
	})
}

func TestSyncStaleRemote(t *testing.T) {
	fx := testhelpers.NewStackFixture(t, "main")
	fx.Branch("A", "main", "a1")
	fx.OpenPR("A")
	fx.Write()
	synced := fx.VCS.Head("A")

	// someone else pushed to A
	theirs := fx.VCS.CommitOn(synced, "theirs")
	fx.VCS.SetRemote("A", theirs)
	fx.VCS.Commit("A", "ours")

	report, err := sync.Action(fx.Context(), sync.Options{Branch: "A"})
	require.NoError(t, err)
	out, _ := report.Last("A")
	require.Equal(t, actions.OutcomeStale, out.Kind)
	var stale *gitxerrors.StaleRemoteError
	require.ErrorAs(t, out.Err, &stale)
	require.Equal(t, synced, stale.Expected)
	require.Equal(t, actions.ExitNodeFailure, report.ExitCode())

	require.Equal(t, theirs, fx.VCS.Remote["A"])
	require.Equal(t, synced, fx.Reload().Node("A").LastSyncedHeadCommit)
}

func TestSyncFailureSkipsDescendants(t *testing.T) {
	fx := testhelpers.NewStackFixture(t, "main")
	fx.Branch("A", "main", "a1").Branch("B", "A", "b1").Branch("C", "main", "c1")
	fx.OpenPR("A")
	fx.OpenPR("B")
	fx.OpenPR("C")
	fx.Write()
	fx.VCS.Commit("A", "a2")
	fx.VCS.Commit("B", "b2")
	fx.VCS.Commit("C", "c2")
	fx.VCS.Errors["push A"] = errors.New("connection reset")

	report, err := sync.Action(fx.Context(), sync.Options{Selector: sync.SelectAll})
	require.NoError(t, err)
	require.Equal(t, map[string]actions.OutcomeKind{
		"A": actions.OutcomeError,
		"B": actions.OutcomeSkipped,
		"C": actions.OutcomeSynced,
	}, report.Kinds())
	out, _ := report.Last("B")
	require.Contains(t, out.Detail, "ancestor A failed")
	require.Equal(t, []string{"push A", "push C"}, fx.VCS.CallsWithPrefix("push"))
}

func TestSyncCancelledBetweenSteps(t *testing.T) {
	fx := testhelpers.NewStackFixture(t, "main")
	fx.Branch("A", "main", "a1").Branch("B", "A", "b1")
	fx.Write()
	fx.VCS.Commit("A", "a2")
	fx.VCS.Commit("B", "b2")

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	g := fx.Load()
	saves := 0
	e := sync.NewEngine(fx.VCS, nil, fx.Context().Splog, func() error {
		saves++
		cancel()
		return nil
	})

	report := actions.NewReport()
	err := e.Run(ctx, g, engine.TopologicalOrder(g), sync.Options{}, report)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, saves)
	require.Equal(t, []string{"push A"}, fx.VCS.CallsWithPrefix("push"))
	out, _ := report.Last("B")
	require.Equal(t, actions.OutcomeSkipped, out.Kind)
	require.Equal(t, "cancelled", out.Detail)
}

func TestSyncSkipsClosedPullRequests(t *testing.T) {
	fx := testhelpers.NewStackFixture(t, "main")
	fx.Branch("A", "main", "a1")
	fx.OpenPR("A")
	fx.Edit("A", func(r *engine.Record) {
		state := string(engine.PRStateMerged)
		r.PRState = &state
	})
	fx.Write()
	fx.VCS.Commit("A", "a2")

	report, err := sync.Action(fx.Context(), sync.Options{Branch: "A"})
	require.NoError(t, err)
	out, _ := report.Last("A")
	require.Equal(t, actions.OutcomeSkipped, out.Kind)
	require.Contains(t, out.Detail, "gitx land")
	require.Empty(t, fx.VCS.CallsWithPrefix("push"))
}

func TestSyncDryRun(t *testing.T) {
	fx := testhelpers.NewStackFixture(t, "main")
	fx.Branch("A", "main", "a1")
	fx.Write()

	report, err := sync.Action(fx.Context(), sync.Options{Branch: "A", DryRun: true})
	require.NoError(t, err)
	out, _ := report.Last("A")
	require.Equal(t, actions.OutcomePlanned, out.Kind)
	require.Equal(t, "push, open pull request onto main", out.Detail)
	require.Empty(t, fx.VCS.CallsWithPrefix("push"))
	require.Empty(t, fx.Host.Calls())
	require.False(t, fx.Reload().Node("A").HasPR())
}

func TestSyncWithoutHost(t *testing.T) {
	fx := testhelpers.NewStackFixture(t, "main")
	fx.Branch("A", "main", "a1")
	fx.Write()
	rt := fx.Context()
	rt.Host = nil

	report, err := sync.Action(rt, sync.Options{Branch: "A"})
	require.NoError(t, err)
	require.Equal(t, actions.OutcomeSynced, report.Kinds()["A"])
	require.Equal(t, fx.VCS.Head("A"), fx.VCS.Remote["A"])
	require.False(t, fx.Reload().Node("A").HasPR())
}

func TestSyncNoCreate(t *testing.T) {
	fx := testhelpers.NewStackFixture(t, "main")
	fx.Branch("A", "main", "a1").Branch("B", "main", "b1")
	fx.Pushed("B")
	fx.Write()
	fx.VCS.Commit("B", "b2")

	report, err := sync.Action(fx.Context(), sync.Options{Selector: sync.SelectAll, NoCreate: true})
	require.NoError(t, err)
	require.Equal(t, actions.OutcomeSkipped, report.Kinds()["A"])
	require.Equal(t, actions.OutcomeSynced, report.Kinds()["B"])
	require.Equal(t, []string{"push B"}, fx.VCS.CallsWithPrefix("push"))
	require.Empty(t, fx.Host.Calls())
}

func TestSyncBusy(t *testing.T) {
	fx := testhelpers.NewStackFixture(t, "main")
	fx.Branch("A", "main", "a1")
	fx.Write()

	lock, err := fx.Store.Lock()
	require.NoError(t, err)
	defer func() { _ = lock.Unlock() }()

	_, err = sync.Action(fx.Context(), sync.Options{Branch: "A"})
	require.ErrorIs(t, err, gitxerrors.ErrBusy)
	require.Empty(t, fx.VCS.Calls())
}

func TestSelect(t *testing.T) {
	fx := testhelpers.NewStackFixture(t, "main")
	fx.Branch("A", "main").Branch("B", "A").Branch("C", "B").Branch("D", "A").Branch("E", "main")
	g := fx.Load()

	names := func(nodes []*engine.BranchNode) []string {
		out := make([]string, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, n.Name)
		}
		return out
	}

	tests := []struct {
		name     string
		branch   string
		selector sync.Selector
		expected []string
	}{
		{"only", "B", sync.SelectOnly, []string{"B"}},
		{"downstack", "C", sync.SelectDownstack, []string{"A", "B", "C"}},
		{"stack", "B", sync.SelectStack, []string{"A", "B", "C"}},
		{"stack from root", "A", sync.SelectStack, []string{"A", "B", "C", "D"}},
		{"all", "B", sync.SelectAll, []string{"A", "B", "C", "D", "E"}},
		{"trunk", "main", sync.SelectDownstack, []string{"A", "B", "C", "D", "E"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := sync.Select(g, tt.branch, tt.selector)
			require.NoError(t, err)
			require.Equal(t, tt.expected, names(nodes))
		})
	}

	_, err := sync.Select(g, "untracked", sync.SelectOnly)
	require.ErrorIs(t, err, gitxerrors.ErrNotTracked)
}
