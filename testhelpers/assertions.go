// Package testhelpers provides testing utilities for gitx: real temporary git
// repositories, a mock GitHub API server, and in-memory VCS and PR host fakes.
package testhelpers

import (
	"os/exec"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Must is a generic helper function that panics if err is not nil,
// otherwise returns the value. This is useful for test setup code
// where errors are not expected and should halt execution immediately.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// ExpectBranches asserts that the repository has exactly the expected local branches.
func ExpectBranches(t *testing.T, repo *GitRepo, expected []string) {
	t.Helper()

	cmd := exec.Command("git", "-C", repo.Dir,
		"for-each-ref", "refs/heads/", "--format=%(refname:short)")
	output, err := cmd.Output()
	require.NoError(t, err, "Failed to list branches")

	actual := splitLines(string(output))
	sort.Strings(actual)
	want := append([]string(nil), expected...)
	sort.Strings(want)

	require.Equal(t, want, actual, "Branches do not match")
}

// ExpectCommits asserts the newest commit subjects on branch, newest first.
func ExpectCommits(t *testing.T, repo *GitRepo, branch string, expected []string) {
	t.Helper()

	cmd := exec.Command("git", "-C", repo.Dir, "log", "--format=%s", branch)
	output, err := cmd.Output()
	require.NoError(t, err, "Failed to list commits")

	subjects := splitLines(string(output))
	if len(subjects) < len(expected) {
		require.Fail(t, "Not enough commits", "Expected %d commits, got %d", len(expected), len(subjects))
		return
	}
	require.Equal(t, expected, subjects[:len(expected)], "Commits do not match")
}

// ExpectRemoteHead asserts what the bare remote holds for branch. An empty
// expected value asserts the branch is absent.
func ExpectRemoteHead(t *testing.T, remoteDir, branch, expected string) {
	t.Helper()

	cmd := exec.Command("git", "-C", remoteDir, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	output, _ := cmd.Output()
	require.Equal(t, expected, strings.TrimSpace(string(output)), "Remote head of %s does not match", branch)
}
