package actions_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitx.dev/gitx/internal/actions"
	"gitx.dev/gitx/internal/engine"
	gitxerrors "gitx.dev/gitx/internal/errors"
	"gitx.dev/gitx/testhelpers"
)

func TestTrackAction(t *testing.T) {
	t.Run("tracks a new branch on a parent", func(t *testing.T) {
		fx := testhelpers.NewStackFixture(t, "main")
		fx.Branch("A", "main", "a1")
		fx.Write()
		fx.VCS.CreateBranch("B", "A")
		fx.VCS.Commit("B", "b1")

		created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		report, err := actions.TrackAction(fx.Context(), actions.TrackOptions{
			Branch: "B",
			Parent: "A",
			Now:    func() time.Time { return created },
		})
		require.NoError(t, err)
		require.Equal(t, map[string]actions.OutcomeKind{"B": actions.OutcomeTracked}, report.Kinds())

		g := fx.Reload()
		b := g.Node("B")
		require.NotNil(t, b)
		require.Equal(t, "A", g.ParentName(b))
		require.Equal(t, created, b.CreatedAt)
		require.Equal(t, fx.VCS.Head("A"), b.BaseCommit)
	})

	t.Run("defaults to the current branch and trunk", func(t *testing.T) {
		fx := testhelpers.NewStackFixture(t, "main")
		fx.Write()
		fx.VCS.CreateBranch("A", "main")
		require.NoError(t, fx.VCS.Checkout(t.Context(), "A"))

		_, err := actions.TrackAction(fx.Context(), actions.TrackOptions{})
		require.NoError(t, err)
		require.Equal(t, "main", fx.Reload().ParentName(fx.Reload().Node("A")))
	})

	t.Run("moves a tracked branch", func(t *testing.T) {
		fx := testhelpers.NewStackFixture(t, "main")
		fx.Branch("A", "main", "a1").Branch("B", "main", "b1")
		fx.Write()

		report, err := actions.TrackAction(fx.Context(), actions.TrackOptions{Branch: "B", Parent: "A"})
		require.NoError(t, err)
		out, _ := report.Last("B")
		require.Equal(t, "moved onto A", out.Detail)
		require.Equal(t, "A", fx.Reload().ParentName(fx.Reload().Node("B")))
	})

	t.Run("rejects a cycle without changing anything", func(t *testing.T) {
		fx := testhelpers.NewStackFixture(t, "main")
		fx.Branch("A", "main", "a1").Branch("B", "A", "b1")
		fx.Write()

		_, err := actions.TrackAction(fx.Context(), actions.TrackOptions{Branch: "A", Parent: "B"})
		require.ErrorIs(t, err, gitxerrors.ErrConsistency)
		require.Equal(t, "main", fx.Reload().ParentName(fx.Reload().Node("A")))
	})

	t.Run("rejects untracked parents and trunk", func(t *testing.T) {
		fx := testhelpers.NewStackFixture(t, "main")
		fx.Branch("A", "main", "a1")
		fx.Write()
		fx.VCS.CreateBranch("loose", "main")

		_, err := actions.TrackAction(fx.Context(), actions.TrackOptions{Branch: "A", Parent: "loose"})
		require.ErrorIs(t, err, gitxerrors.ErrNotTracked)

		_, err = actions.TrackAction(fx.Context(), actions.TrackOptions{Branch: "main"})
		require.ErrorIs(t, err, gitxerrors.ErrTrunkOperation)

		_, err = actions.TrackAction(fx.Context(), actions.TrackOptions{Branch: "missing"})
		require.ErrorIs(t, err, gitxerrors.ErrBranchNotFound)
	})
}

func TestUntrackAction(t *testing.T) {
	fx := testhelpers.NewStackFixture(t, "main")
	fx.Branch("A", "main", "a1").Branch("B", "A", "b1").Branch("C", "A", "c1")
	fx.Write()

	report, err := actions.UntrackAction(fx.Context(), actions.UntrackOptions{Branch: "A"})
	require.NoError(t, err)
	require.Equal(t, map[string]actions.OutcomeKind{
		"A": actions.OutcomeUntracked,
		"B": actions.OutcomeTracked,
		"C": actions.OutcomeTracked,
	}, report.Kinds())

	g := fx.Reload()
	require.Nil(t, g.Node("A"))
	require.Equal(t, "main", g.ParentName(g.Node("B")))
	require.Equal(t, "main", g.ParentName(g.Node("C")))
	require.True(t, fx.VCS.HasBranch("A"))
	require.Empty(t, fx.VCS.Calls())

	_, err = actions.UntrackAction(fx.Context(), actions.UntrackOptions{Branch: "A"})
	require.ErrorIs(t, err, gitxerrors.ErrNotTracked)
}

func TestReport(t *testing.T) {
	report := actions.NewReport()
	report.Add("A", actions.OutcomeSynced, "push")
	require.Equal(t, actions.ExitOK, report.ExitCode())

	report.AddError("B", gitxerrors.NewStaleRemoteError("B", "abc"))
	report.AddError("C", gitxerrors.NewLandConflict("C", "main", []string{"x.go"}))
	report.AddError("D", gitxerrors.NewAdapterError("D", gitxerrors.StepPush, errors.New("remote hung up")))
	report.AddLoadReport(&engine.LoadReport{
		Orphaned:   []string{"E"},
		Reparented: []engine.Reparented{{Branch: "F", MissingParent: "gone"}},
	})

	require.Equal(t, map[string]actions.OutcomeKind{
		"A": actions.OutcomeSynced,
		"B": actions.OutcomeStale,
		"C": actions.OutcomeConflict,
		"D": actions.OutcomeError,
		"E": actions.OutcomeOrphaned,
		"F": actions.OutcomeReparented,
	}, report.Kinds())
	require.True(t, report.Failed())
	require.Equal(t, actions.ExitNodeFailure, report.ExitCode())

	out, ok := report.Last("E")
	require.True(t, ok)
	require.ErrorIs(t, out.Err, gitxerrors.ErrOrphaned)
}
