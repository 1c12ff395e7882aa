package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
)

// MockFailure makes the mock answer a request with Status, Remaining times
// (0 means every time).
type MockFailure struct {
	Status    int
	Remaining int
}

// MockGitHubServerConfig configures the behavior of a mock GitHub server.
// It is safe for concurrent requests.
type MockGitHubServerConfig struct {
	mu sync.Mutex

	// PRs maps PR numbers to PR data
	PRs map[int]*github.PullRequest
	// Failures maps "<METHOD> <number>" or "POST <head>" to injected errors
	Failures map[string]*MockFailure
	// Requests logs "<METHOD> <number|head>" for every request
	Requests []string
	// Delay is added to GET requests so tests can observe parallelism
	Delay time.Duration
	// MaxInFlight is the highest number of concurrent GET requests observed
	MaxInFlight int
	inFlight    int

	// Owner and Repo for the mock server
	Owner string
	Repo  string
}

// NewMockGitHubServerConfig creates a new mock server config with defaults
func NewMockGitHubServerConfig() *MockGitHubServerConfig {
	return &MockGitHubServerConfig{
		PRs:      make(map[int]*github.PullRequest),
		Failures: make(map[string]*MockFailure),
		Owner:    "owner",
		Repo:     "repo",
	}
}

// AddPR stores a PR built from data
func (c *MockGitHubServerConfig) AddPR(data SamplePRData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PRs[data.Number] = NewSamplePullRequest(data)
}

// Fail injects a failure for key
func (c *MockGitHubServerConfig) Fail(key string, status, times int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Failures[key] = &MockFailure{Status: status, Remaining: times}
}

// RequestLog returns a copy of the request log
func (c *MockGitHubServerConfig) RequestLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Requests...)
}

// PeakInFlight returns MaxInFlight under the lock
func (c *MockGitHubServerConfig) PeakInFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.MaxInFlight
}

// PR returns the stored PR with number
func (c *MockGitHubServerConfig) PR(number int) *github.PullRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.PRs[number]
}

// record logs a request and reports an injected failure status, or 0.
func (c *MockGitHubServerConfig) record(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Requests = append(c.Requests, key)
	f, ok := c.Failures[key]
	if !ok {
		return 0
	}
	if f.Remaining > 0 {
		f.Remaining--
		if f.Remaining == 0 {
			delete(c.Failures, key)
		}
	}
	return f.Status
}

// NewMockGitHubServer creates an httptest server that mocks the pull request endpoints
func NewMockGitHubServer(t *testing.T, config *MockGitHubServerConfig) *httptest.Server {
	if config == nil {
		config = NewMockGitHubServerConfig()
	}

	mux := http.NewServeMux()
	basePath := "/repos/" + config.Owner + "/" + config.Repo + "/pulls"

	mux.HandleFunc("POST "+basePath, func(w http.ResponseWriter, r *http.Request) {
		var newPR github.NewPullRequest
		if err := json.NewDecoder(r.Body).Decode(&newPR); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if status := config.record("POST " + newPR.GetHead()); status != 0 {
			writeError(w, status)
			return
		}

		config.mu.Lock()
		prNumber := len(config.PRs) + 1
		pr := &github.PullRequest{
			Number:  github.Int(prNumber),
			Title:   newPR.Title,
			Body:    newPR.Body,
			Head:    &github.PullRequestBranch{Ref: newPR.Head},
			Base:    &github.PullRequestBranch{Ref: newPR.Base},
			Draft:   newPR.Draft,
			State:   github.String("open"),
			Merged:  github.Bool(false),
			HTMLURL: github.String(fmt.Sprintf("https://github.com/%s/%s/pull/%d", config.Owner, config.Repo, prNumber)),
		}
		config.PRs[prNumber] = pr
		config.mu.Unlock()

		writeJSON(w, http.StatusCreated, pr)
	})

	mux.HandleFunc("GET "+basePath+"/{number}", func(w http.ResponseWriter, r *http.Request) {
		number, err := strconv.Atoi(r.PathValue("number"))
		if err != nil {
			http.Error(w, "Invalid PR number", http.StatusBadRequest)
			return
		}

		config.mu.Lock()
		config.inFlight++
		if config.inFlight > config.MaxInFlight {
			config.MaxInFlight = config.inFlight
		}
		delay := config.Delay
		config.mu.Unlock()
		defer func() {
			config.mu.Lock()
			config.inFlight--
			config.mu.Unlock()
		}()
		if delay > 0 {
			time.Sleep(delay)
		}

		if status := config.record(fmt.Sprintf("GET %d", number)); status != 0 {
			writeError(w, status)
			return
		}
		config.mu.Lock()
		pr, ok := config.PRs[number]
		config.mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, pr)
	})

	mux.HandleFunc("PATCH "+basePath+"/{number}", func(w http.ResponseWriter, r *http.Request) {
		number, err := strconv.Atoi(r.PathValue("number"))
		if err != nil {
			http.Error(w, "Invalid PR number", http.StatusBadRequest)
			return
		}

		// The API sends simple fields like {"base": "branch-name"} not {"base": {"ref": "branch-name"}}
		var update struct {
			Title *string `json:"title,omitempty"`
			Body  *string `json:"body,omitempty"`
			Base  *string `json:"base,omitempty"`
			State *string `json:"state,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, fmt.Sprintf("Failed to decode request body: %v", err), http.StatusBadRequest)
			return
		}
		if status := config.record(fmt.Sprintf("PATCH %d", number)); status != 0 {
			writeError(w, status)
			return
		}

		config.mu.Lock()
		pr, ok := config.PRs[number]
		if ok {
			if update.Title != nil {
				pr.Title = update.Title
			}
			if update.Body != nil {
				pr.Body = update.Body
			}
			if update.Base != nil {
				pr.Base = &github.PullRequestBranch{Ref: update.Base}
			}
			if update.State != nil {
				pr.State = update.State
			}
		}
		config.mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, pr)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(func() { server.Close() })
	return server
}

// NewMockGitHubClient creates a GitHub client configured to use a mock server
func NewMockGitHubClient(t *testing.T, config *MockGitHubServerConfig) (*github.Client, string, string) {
	server := NewMockGitHubServer(t, config)
	client := github.NewClient(nil)
	baseURL, _ := url.Parse(server.URL + "/")
	client.BaseURL = baseURL
	client.UploadURL = baseURL

	return client, config.Owner, config.Repo
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int) {
	writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
}
