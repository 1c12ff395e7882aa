package github_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitx.dev/gitx/internal/engine"
	"gitx.dev/gitx/internal/github"
	"gitx.dev/gitx/testhelpers"
)

func newClient(t *testing.T, config *testhelpers.MockGitHubServerConfig, concurrency int) *github.Client {
	t.Helper()
	gh, owner, repo := testhelpers.NewMockGitHubClient(t, config)
	return github.NewClientFromGitHub(gh, owner, repo, concurrency)
}

func TestCreatePR(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pull request", func(t *testing.T) {
		config := testhelpers.NewMockGitHubServerConfig()
		client := newClient(t, config, 0)

		created, err := client.CreatePR(ctx, engine.CreatePROptions{
			Head:  "feature",
			Base:  "main",
			Title: "Add feature",
			Body:  "details",
			Draft: true,
		})
		require.NoError(t, err)
		require.Equal(t, 1, created.ID)
		require.Equal(t, "https://github.com/owner/repo/pull/1", created.URL)

		pr := config.PR(1)
		require.Equal(t, "feature", pr.GetHead().GetRef())
		require.Equal(t, "main", pr.GetBase().GetRef())
		require.Equal(t, "Add feature", pr.GetTitle())
		require.True(t, pr.GetDraft())
	})

	t.Run("is not retried", func(t *testing.T) {
		config := testhelpers.NewMockGitHubServerConfig()
		config.Fail("POST feature", http.StatusBadGateway, 1)
		client := newClient(t, config, 0)

		_, err := client.CreatePR(ctx, engine.CreatePROptions{Head: "feature", Base: "main", Title: "x"})
		require.Error(t, err)
		require.Equal(t, []string{"POST feature"}, config.RequestLog())
		require.Nil(t, config.PR(1))
	})
}

func TestUpdateBase(t *testing.T) {
	ctx := context.Background()

	t.Run("retargets the base", func(t *testing.T) {
		config := testhelpers.NewMockGitHubServerConfig()
		config.AddPR(testhelpers.OpenPRData(7, "feature", "parent"))
		client := newClient(t, config, 0)

		require.NoError(t, client.UpdateBase(ctx, 7, "main"))
		require.Equal(t, "main", config.PR(7).GetBase().GetRef())
	})

	t.Run("retries a server error once", func(t *testing.T) {
		config := testhelpers.NewMockGitHubServerConfig()
		config.AddPR(testhelpers.OpenPRData(7, "feature", "parent"))
		config.Fail("PATCH 7", http.StatusInternalServerError, 1)
		client := newClient(t, config, 0)

		require.NoError(t, client.UpdateBase(ctx, 7, "main"))
		require.Equal(t, []string{"PATCH 7", "PATCH 7"}, config.RequestLog())
		require.Equal(t, "main", config.PR(7).GetBase().GetRef())
	})

	t.Run("gives up after the retry", func(t *testing.T) {
		config := testhelpers.NewMockGitHubServerConfig()
		config.AddPR(testhelpers.OpenPRData(7, "feature", "parent"))
		config.Fail("PATCH 7", http.StatusBadGateway, 0)
		client := newClient(t, config, 0)

		require.Error(t, client.UpdateBase(ctx, 7, "main"))
		require.Len(t, config.RequestLog(), 2)
		require.Equal(t, "parent", config.PR(7).GetBase().GetRef())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		config := testhelpers.NewMockGitHubServerConfig()
		config.Fail("PATCH 9", http.StatusUnprocessableEntity, 0)
		client := newClient(t, config, 0)

		require.Error(t, client.UpdateBase(ctx, 9, "main"))
		require.Equal(t, []string{"PATCH 9"}, config.RequestLog())
	})
}

func TestGetState(t *testing.T) {
	ctx := context.Background()
	config := testhelpers.NewMockGitHubServerConfig()
	config.AddPR(testhelpers.OpenPRData(1, "a", "main"))
	config.AddPR(testhelpers.MergedPRData(2, "b", "main"))
	config.AddPR(testhelpers.ClosedPRData(3, "c", "main"))
	client := newClient(t, config, 0)

	state, err := client.GetState(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, engine.PRStateOpen, state)

	state, err = client.GetState(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, engine.PRStateMerged, state)

	state, err = client.GetState(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, engine.PRStateClosed, state)

	_, err = client.GetState(ctx, 4)
	require.Error(t, err)
}

func TestBatchGetStates(t *testing.T) {
	ctx := context.Background()

	t.Run("per-id failures do not fail the batch", func(t *testing.T) {
		config := testhelpers.NewMockGitHubServerConfig()
		config.AddPR(testhelpers.OpenPRData(1, "a", "main"))
		config.AddPR(testhelpers.MergedPRData(2, "b", "main"))
		config.AddPR(testhelpers.OpenPRData(3, "c", "main"))
		config.Fail("GET 3", http.StatusForbidden, 0)
		client := newClient(t, config, 2)

		states, errs := client.BatchGetStates(ctx, []int{1, 2, 3, 2})
		require.Equal(t, map[int]engine.PRState{
			1: engine.PRStateOpen,
			2: engine.PRStateMerged,
		}, states)
		require.Len(t, errs, 1)
		require.Error(t, errs[3])
		require.Len(t, config.RequestLog(), 3)
	})

	t.Run("parallelism is bounded", func(t *testing.T) {
		config := testhelpers.NewMockGitHubServerConfig()
		config.Delay = 20 * time.Millisecond
		ids := make([]int, 0, 10)
		for i := 1; i <= 10; i++ {
			config.AddPR(testhelpers.OpenPRData(i, "b", "main"))
			ids = append(ids, i)
		}
		client := newClient(t, config, 3)

		states, errs := client.BatchGetStates(ctx, ids)
		require.Empty(t, errs)
		require.Len(t, states, 10)
		require.LessOrEqual(t, config.PeakInFlight(), 3)
	})
}
