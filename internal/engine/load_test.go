package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"gitx.dev/gitx/internal/engine"
	gitxerrors "gitx.dev/gitx/internal/errors"
	"gitx.dev/gitx/testhelpers"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("builds the graph and refreshes commits", func(t *testing.T) {
		fx := testhelpers.NewStackFixture(t, "main")
		fx.Branch("a", "main", "a1").Branch("b", "a", "b1", "b2")
		id := fx.OpenPR("a")

		fx.Write()
		g, report, err := engine.Load(ctx, fx.VCS, fx.Store, engine.LoadOptions{})
		require.NoError(t, err)
		require.True(t, report.Empty())

		a, b := g.Node("a"), g.Node("b")
		require.Equal(t, fx.VCS.Head("a"), a.HeadCommit)
		require.Equal(t, fx.VCS.Head("main"), a.BaseCommit)
		require.Equal(t, fx.VCS.Head("a"), b.BaseCommit)
		require.Equal(t, fx.VCS.Head("b"), b.HeadCommit)
		require.Equal(t, id, a.PR.ID)
		require.Equal(t, "main", a.PR.BaseBranch)
		require.Equal(t, engine.PRStateOpen, a.PR.State)
		require.Equal(t, fx.VCS.Head("a"), a.LastSyncedHeadCommit)
		require.False(t, b.HasPR())
	})

	t.Run("orphans are reported and dropped on save", func(t *testing.T) {
		fx := testhelpers.NewStackFixture(t, "main")
		fx.Branch("a", "main", "a1").Branch("gone", "main", "g1")
		fx.Write()
		require.NoError(t, fx.VCS.DeleteBranch(ctx, "gone"))

		g, report, err := engine.Load(ctx, fx.VCS, fx.Store, engine.LoadOptions{})
		require.NoError(t, err)
		require.Equal(t, []string{"gone"}, report.Orphaned)
		require.Nil(t, g.Node("gone"))

		require.NoError(t, engine.Save(ctx, fx.Store, g))
		doc, err := fx.Store.Read()
		require.NoError(t, err)
		require.Len(t, doc.Branches, 1)
		require.Equal(t, "a", doc.Branches[0].Name)
	})

	t.Run("missing parent moves the node to trunk", func(t *testing.T) {
		fx := testhelpers.NewStackFixture(t, "main")
		fx.Branch("a", "main", "a1").Branch("b", "a", "b1")
		fx.Edit("b", func(r *engine.Record) { r.Parent = "vanished" })
		fx.Write()

		g, report, err := engine.Load(ctx, fx.VCS, fx.Store, engine.LoadOptions{})
		require.NoError(t, err)
		require.Equal(t, []engine.Reparented{{Branch: "b", MissingParent: "vanished"}}, report.Reparented)
		require.Equal(t, "main", g.ParentName(g.Node("b")))
	})

	t.Run("missing parent fails under strict parents", func(t *testing.T) {
		fx := testhelpers.NewStackFixture(t, "main")
		fx.Branch("a", "main", "a1")
		fx.Edit("a", func(r *engine.Record) { r.Parent = "vanished" })
		fx.Write()

		_, _, err := engine.Load(ctx, fx.VCS, fx.Store, engine.LoadOptions{StrictParents: true})
		require.ErrorIs(t, err, gitxerrors.ErrConsistency)
	})

	t.Run("cycles are a consistency error", func(t *testing.T) {
		fx := testhelpers.NewStackFixture(t, "main")
		fx.Branch("a", "main", "a1").Branch("b", "a", "b1")
		fx.Edit("a", func(r *engine.Record) { r.Parent = "b" })
		fx.Write()

		_, _, err := engine.Load(ctx, fx.VCS, fx.Store, engine.LoadOptions{})
		require.ErrorIs(t, err, gitxerrors.ErrConsistency)
	})

	t.Run("merged records are retired", func(t *testing.T) {
		fx := testhelpers.NewStackFixture(t, "main")
		fx.Branch("a", "main", "a1").Branch("b", "a", "b1")
		fx.OpenPR("a")
		fx.Edit("a", func(r *engine.Record) {
			state := string(engine.PRStateMerged)
			r.PRState = &state
		})
		g := fx.Load()

		require.Nil(t, g.Node("a"))
		require.Equal(t, "a", g.ParentName(g.Node("b")))
		retired := g.Retired()
		require.Len(t, retired, 1)
		require.True(t, retired[0].IsRetired())
		require.Len(t, engine.OrderWithRetired(g), 2)

		require.NoError(t, engine.Save(ctx, fx.Store, g))
		require.Len(t, fx.Reload().Retired(), 1)
	})

	t.Run("missing trunk fails", func(t *testing.T) {
		fx := testhelpers.NewStackFixture(t, "main")
		store := engine.NewStore(t.TempDir(), "develop")

		_, _, err := engine.Load(ctx, fx.VCS, store, engine.LoadOptions{})
		require.ErrorIs(t, err, gitxerrors.ErrBranchNotFound)
	})
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store reads as an empty document", func(t *testing.T) {
		store := engine.NewStore(t.TempDir(), "main")
		doc, err := store.Read()
		require.NoError(t, err)
		require.Empty(t, doc.Branches)
		require.Equal(t, "main", doc.Trunk)
	})

	t.Run("save round trips through load", func(t *testing.T) {
		fx := testhelpers.NewStackFixture(t, "main")
		fx.Branch("a", "main", "a1").Branch("b", "a", "b1")
		fx.OpenPR("a")
		fx.OpenPR("b")
		g := fx.Load()
		g.Node("b").PR.URL = "https://example.test/pull/2"

		require.NoError(t, engine.Save(ctx, fx.Store, g))
		again := fx.Reload()

		require.Equal(t, names(g.Nodes()), names(again.Nodes()))
		require.Equal(t, "https://example.test/pull/2", again.Node("b").PR.URL)
		require.Equal(t, g.Node("b").CreatedAt, again.Node("b").CreatedAt)
		require.Equal(t, g.Node("a").LastSyncedHeadCommit, again.Node("a").LastSyncedHeadCommit)
	})

	t.Run("write leaves no temp files", func(t *testing.T) {
		store := engine.NewStore(t.TempDir(), "release/1.0")
		require.NoError(t, store.Write(&engine.Document{}))

		entries, err := os.ReadDir(filepath.Dir(store.Path()))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "release_1.0.json", entries[0].Name())
	})

	t.Run("rejects newer versions", func(t *testing.T) {
		store := engine.NewStore(t.TempDir(), "main")
		require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0755))
		require.NoError(t, os.WriteFile(store.Path(), []byte(`{"version": 99, "branches": []}`), 0644))

		_, err := store.Read()
		require.Error(t, err)
	})

	t.Run("second lock is busy", func(t *testing.T) {
		store := engine.NewStore(t.TempDir(), "main")
		lock, err := store.Lock()
		require.NoError(t, err)

		_, err = store.Lock()
		require.ErrorIs(t, err, gitxerrors.ErrBusy)

		require.NoError(t, lock.Unlock())
		again, err := store.Lock()
		require.NoError(t, err)
		require.NoError(t, again.Unlock())
	})

	t.Run("lock file records its owner", func(t *testing.T) {
		store := engine.NewStore(t.TempDir(), "main")
		lock, err := store.Lock()
		require.NoError(t, err)
		defer func() { _ = lock.Unlock() }()

		data, err := os.ReadFile(store.LockPath())
		require.NoError(t, err)
		require.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(data)))
	})
}
