package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
)

// Scene is a temporary repository with a bare "origin" remote and a repo
// config that disables GitHub.
type Scene struct {
	Dir       string
	Repo      *GitRepo
	RemoteDir string
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates a new test scene in a temporary directory. Cleanup is
// handled by t.TempDir.
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "repo")

	repo, err := NewGitRepo(dir)
	if err != nil {
		t.Fatalf("Failed to create Git repo: %v", err)
	}
	remoteDir, err := repo.CreateBareRemote("origin")
	if err != nil {
		t.Fatalf("Failed to create remote: %v", err)
	}

	scene := &Scene{
		Dir:       dir,
		Repo:      repo,
		RemoteDir: remoteDir,
	}

	if err := scene.writeDefaultConfig(); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if setup != nil {
		if err := setup(scene); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}
	return scene
}

// writeDefaultConfig writes the repo config every scene starts from.
func (s *Scene) writeDefaultConfig() error {
	repoConfigPath := filepath.Join(s.Dir, ".git", ".gitx_config")
	repoConfig := `{"trunk": "main", "isGithubIntegrationEnabled": false}`
	return os.WriteFile(repoConfigPath, []byte(repoConfig), 0644)
}

// BasicSceneSetup creates a single commit on main and pushes it.
func BasicSceneSetup(scene *Scene) error {
	if err := scene.Repo.CreateChangeAndCommit("1", "1"); err != nil {
		return err
	}
	return scene.Repo.PushBranch("origin", "main")
}
