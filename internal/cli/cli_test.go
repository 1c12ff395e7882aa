package cli_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitx.dev/gitx/internal/engine"
	"gitx.dev/gitx/testhelpers"
)

// stackScene creates main → a → b with b checked out
func stackScene(t *testing.T) *testhelpers.Scene {
	t.Helper()
	return testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
		if err := testhelpers.BasicSceneSetup(s); err != nil {
			return err
		}
		if err := s.Repo.CreateAndCheckoutBranch("a"); err != nil {
			return err
		}
		if err := s.Repo.CreateChangeAndCommit("a1", "a"); err != nil {
			return err
		}
		if err := s.Repo.CreateAndCheckoutBranch("b"); err != nil {
			return err
		}
		return s.Repo.CreateChangeAndCommit("b1", "b")
	})
}

func trackStack(t *testing.T, scene *testhelpers.Scene) {
	t.Helper()
	res := scene.RunGitx(t, "track", "a", "--parent", "main")
	require.Equal(t, 0, res.ExitCode, res.Output)
	res = scene.RunGitx(t, "track", "b", "--parent", "a")
	require.Equal(t, 0, res.ExitCode, res.Output)
}

func TestInitCommand(t *testing.T) {
	t.Run("infers trunk", func(t *testing.T) {
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
		require.NoError(t, os.Remove(filepath.Join(scene.Dir, ".git", ".gitx_config")))

		res := scene.RunGitx(t, "status")
		require.Equal(t, 1, res.ExitCode)
		require.Contains(t, res.Output, "not initialized")

		res = scene.RunGitx(t, "init")
		require.Equal(t, 0, res.ExitCode, res.Output)
		require.Contains(t, res.Output, "Trunk set to main.")

		data, err := os.ReadFile(filepath.Join(scene.Dir, ".git", ".gitx_config"))
		require.NoError(t, err)
		require.Contains(t, string(data), `"trunk": "main"`)
	})

	t.Run("rejects an unknown trunk", func(t *testing.T) {
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)

		res := scene.RunGitx(t, "init", "--trunk", "nope")
		require.Equal(t, 1, res.ExitCode)
		require.Contains(t, res.Output, "nope")
	})
}

func TestTrackAndSync(t *testing.T) {
	scene := stackScene(t)
	trackStack(t, scene)

	res := scene.RunGitx(t, "sync")
	require.Equal(t, 0, res.ExitCode, res.Output)
	require.Contains(t, res.Output, "synced")
	testhelpers.ExpectRemoteHead(t, scene.RemoteDir, "a", testhelpers.Must(scene.Repo.GetRevision("a")))
	testhelpers.ExpectRemoteHead(t, scene.RemoteDir, "b", testhelpers.Must(scene.Repo.GetRevision("b")))

	res = scene.RunGitx(t, "sync")
	require.Equal(t, 0, res.ExitCode, res.Output)
	require.Contains(t, res.Output, "up to date")
	require.NotContains(t, res.Output, "synced")

	res = scene.RunGitx(t, "status")
	require.Equal(t, 0, res.ExitCode, res.Output)
	require.Contains(t, res.Output, "◯ main")
	require.Contains(t, res.Output, "└─◯ a no pull request")
	require.Contains(t, res.Output, "  └─◉ b (current) no pull request")
	require.NotContains(t, res.Output, "needs")
}

func TestSyncDryRun(t *testing.T) {
	scene := stackScene(t)
	trackStack(t, scene)

	res := scene.RunGitx(t, "sync", "--dry-run")
	require.Equal(t, 0, res.ExitCode, res.Output)
	require.Contains(t, res.Output, "planned")
	testhelpers.ExpectRemoteHead(t, scene.RemoteDir, "a", "")
	testhelpers.ExpectRemoteHead(t, scene.RemoteDir, "b", "")
}

func TestSyncStaleRemote(t *testing.T) {
	scene := stackScene(t)
	trackStack(t, scene)
	res := scene.RunGitx(t, "sync")
	require.Equal(t, 0, res.ExitCode, res.Output)

	// a collaborator pushes to a
	other, err := testhelpers.NewGitRepoFromURL(filepath.Join(t.TempDir(), "other"), scene.RemoteDir)
	require.NoError(t, err)
	require.NoError(t, other.CheckoutBranch("a"))
	require.NoError(t, other.CreateChangeAndCommit("theirs", "theirs"))
	require.NoError(t, other.PushBranch("origin", "a"))
	theirs := testhelpers.Must(other.GetRevision("a"))

	require.NoError(t, scene.Repo.CheckoutBranch("a"))
	require.NoError(t, scene.Repo.CreateChangeAndCommit("mine", "mine"))

	res = scene.RunGitx(t, "sync", "--only")
	require.Equal(t, 1, res.ExitCode, res.Output)
	require.Contains(t, res.Output, "stale")
	testhelpers.ExpectRemoteHead(t, scene.RemoteDir, "a", theirs)
}

func TestUntrackCommand(t *testing.T) {
	scene := stackScene(t)
	trackStack(t, scene)

	res := scene.RunGitx(t, "untrack", "a")
	require.Equal(t, 0, res.ExitCode, res.Output)
	require.Contains(t, res.Output, "untracked")
	testhelpers.ExpectBranches(t, scene.Repo, []string{"main", "a", "b"})

	res = scene.RunGitx(t, "status")
	require.Equal(t, 0, res.ExitCode, res.Output)
	require.Contains(t, res.Output, "└─◉ b (current) (needs restack)")
	require.NotContains(t, res.Output, "◯ a")
}

func TestLandCommand(t *testing.T) {
	scene := stackScene(t)
	trackStack(t, scene)

	res := scene.RunGitx(t, "land")
	require.Equal(t, 1, res.ExitCode)
	require.Contains(t, res.Output, "GitHub")
	testhelpers.ExpectBranches(t, scene.Repo, []string{"main", "a", "b"})
}

func TestExitCodes(t *testing.T) {
	t.Run("busy", func(t *testing.T) {
		scene := stackScene(t)
		trackStack(t, scene)

		lock, err := engine.NewStore(filepath.Join(scene.Dir, ".git"), "main").Lock()
		require.NoError(t, err)
		t.Cleanup(func() { _ = lock.Unlock() })

		res := scene.RunGitx(t, "sync")
		require.Equal(t, 2, res.ExitCode, res.Output)
		require.Contains(t, res.Output, "busy")
	})

	t.Run("inconsistent metadata", func(t *testing.T) {
		scene := stackScene(t)
		created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		store := engine.NewStore(filepath.Join(scene.Dir, ".git"), "main")
		require.NoError(t, store.Write(&engine.Document{
			Trunk: "main",
			Branches: []engine.Record{
				{Name: "a", Parent: "b", CreatedAt: created},
				{Name: "b", Parent: "a", CreatedAt: created.Add(time.Minute)},
			},
		}))

		res := scene.RunGitx(t, "status")
		require.Equal(t, 2, res.ExitCode, res.Output)

		res = scene.RunGitx(t, "sync")
		require.Equal(t, 2, res.ExitCode, res.Output)
	})
}
