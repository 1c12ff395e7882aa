package github

import (
	"context"
	"fmt"
	"strings"

	"gitx.dev/gitx/internal/git"
)

// RepoInfo contains parsed information from a git remote URL
type RepoInfo struct {
	Hostname string
	Owner    string
	Repo     string
}

// ParseRemoteURL parses a git remote URL and extracts hostname, owner, and repo.
// Examples:
//   - https://github.com/owner/repo.git
//   - git@github.com:owner/repo.git
//   - ssh://git@github.company.com/owner/repo.git
func ParseRemoteURL(remoteURL string) (*RepoInfo, error) {
	remoteURL = strings.TrimSpace(remoteURL)
	remoteURL = strings.TrimSuffix(remoteURL, "/")
	remoteURL = strings.TrimSuffix(remoteURL, ".git")

	var hostname, path string
	switch {
	case strings.Contains(remoteURL, "://"):
		rest := remoteURL[strings.Index(remoteURL, "://")+3:]
		if at := strings.Index(rest, "@"); at >= 0 {
			rest = rest[at+1:]
		}
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid remote URL %q: missing path", remoteURL)
		}
		hostname, path = parts[0], parts[1]
		// strip a port
		if colon := strings.Index(hostname, ":"); colon >= 0 {
			hostname = hostname[:colon]
		}
	case strings.Contains(remoteURL, "@"):
		// scp-like: git@hostname:owner/repo
		hostAndPath := strings.SplitN(remoteURL, "@", 2)[1]
		parts := strings.SplitN(hostAndPath, ":", 2)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid SSH remote URL %q: missing path", remoteURL)
		}
		hostname, path = parts[0], parts[1]
	default:
		return nil, fmt.Errorf("unsupported remote URL %q", remoteURL)
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 2 {
		return nil, fmt.Errorf("invalid remote URL %q: path must be owner/repo", remoteURL)
	}
	owner := segments[len(segments)-2]
	repo := segments[len(segments)-1]

	if hostname == "" || owner == "" || repo == "" {
		return nil, fmt.Errorf("failed to parse hostname, owner, or repo from remote URL")
	}

	return &RepoInfo{
		Hostname: hostname,
		Owner:    owner,
		Repo:     repo,
	}, nil
}

// Token returns configured if set, otherwise asks the gh CLI
func Token(ctx context.Context, configured, dir string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	output, err := git.RunGH(ctx, dir, "auth", "token")
	if err != nil {
		return "", fmt.Errorf("failed to get GitHub token: set GITHUB_TOKEN or run 'gh auth login': %w", err)
	}
	token := strings.TrimSpace(output)
	if token == "" {
		return "", fmt.Errorf("empty GitHub token")
	}
	return token, nil
}
