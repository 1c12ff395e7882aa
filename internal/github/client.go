// Package github implements the pull request host on top of the GitHub REST API.
package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"gitx.dev/gitx/internal/engine"
)

// DefaultConcurrency bounds parallel state reads when Options leaves it unset
const DefaultConcurrency = 6

// Options configures a Client
type Options struct {
	Token string
	// APIURL overrides the API base, e.g. for GitHub Enterprise
	APIURL      string
	Repo        *RepoInfo
	Concurrency int
}

// Client is a PR host backed by one GitHub repository
type Client struct {
	gh          *github.Client
	owner       string
	repo        string
	concurrency int
}

var _ engine.PRHost = (*Client)(nil)

// NewClient creates a client authenticated with opts.Token. Hosts other than
// github.com are addressed through the Enterprise API paths.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("repository owner and name are required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	gh := github.NewClient(oauth2.NewClient(ctx, ts))

	apiURL := opts.APIURL
	if apiURL == "" && opts.Repo.Hostname != "" && opts.Repo.Hostname != "github.com" {
		apiURL = fmt.Sprintf("https://%s/api/v3/", opts.Repo.Hostname)
	}
	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		baseURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse API URL %s: %w", apiURL, err)
		}
		gh.BaseURL = baseURL
		gh.UploadURL = baseURL
	}

	return NewClientFromGitHub(gh, opts.Repo.Owner, opts.Repo.Repo, opts.Concurrency), nil
}

// NewClientFromGitHub wraps an existing go-github client
func NewClientFromGitHub(gh *github.Client, owner, repo string, concurrency int) *Client {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Client{
		gh:          gh,
		owner:       owner,
		repo:        repo,
		concurrency: concurrency,
	}
}

// Owner returns the repository owner
func (c *Client) Owner() string {
	return c.owner
}

// Repo returns the repository name
func (c *Client) Repo() string {
	return c.repo
}
