// Package runtime provides a context type that holds the adapters, metadata
// store and logger for use throughout a command. This avoids passing multiple
// parameters.
package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gitx.dev/gitx/internal/config"
	"gitx.dev/gitx/internal/engine"
	"gitx.dev/gitx/internal/git"
	"gitx.dev/gitx/internal/github"
	"gitx.dev/gitx/internal/output"
)

// Context provides access to adapters and output for commands
type Context struct {
	Context  context.Context
	Settings *config.Settings
	Splog    *output.Splog
	VCS      engine.VCS
	// Host is nil when GitHub integration is disabled or unavailable
	Host     engine.PRHost
	Store    *engine.Store
	RepoRoot string
}

// NewContext creates a context from already constructed collaborators
func NewContext(ctx context.Context, vcs engine.VCS, host engine.PRHost, store *engine.Store, settings *config.Settings, splog *output.Splog) *Context {
	if settings == nil {
		settings = config.Resolve(nil, nil)
	}
	if splog == nil {
		splog = output.NewSplog()
	}
	return &Context{
		Context:  ctx,
		Settings: settings,
		Splog:    splog,
		VCS:      vcs,
		Host:     host,
		Store:    store,
	}
}

// Options are the global flags that shape a context
type Options struct {
	Debug   bool
	NoColor bool
}

// GetContext opens the repository in the working directory and wires the
// real adapters. The repository must have been initialized.
func GetContext(ctx context.Context, opts Options) (*Context, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	repo, err := git.Open(ctx, cwd, config.DefaultRemote)
	if err != nil {
		return nil, err
	}

	if !config.IsInitialized(repo.Root()) {
		return nil, fmt.Errorf("gitx not initialized. Run 'gitx init' first")
	}

	settings, err := config.Load(repo.Root())
	if err != nil {
		return nil, err
	}
	if opts.Debug {
		settings.Debug = true
	}
	repo.SetRemote(settings.Remote)

	output.ConfigureColors(opts.NoColor)
	splog, err := output.NewSplogWithOptions(output.LogOptions{
		Debug:      settings.Debug,
		NoColor:    opts.NoColor,
		FilePath:   filepath.Join(repo.GitDir(), "gitx", "gitx.log"),
		MaxSize:    settings.Log.MaxSize,
		MaxBackups: settings.Log.MaxBackups,
		MaxAge:     settings.Log.MaxAge,
	})
	if err != nil {
		return nil, err
	}

	rt := NewContext(ctx, repo, nil, engine.NewStore(repo.GitDir(), settings.Trunk), settings, splog)
	rt.RepoRoot = repo.Root()

	if settings.GitHubEnabled {
		host, err := newGitHubHost(ctx, repo, settings)
		if err != nil {
			splog.Debug("GitHub integration unavailable: %v", err)
		} else {
			rt.Host = host
		}
	}

	splog.Debug("trunk=%s remote=%s github=%t concurrency=%d", settings.Trunk, settings.Remote, rt.Host != nil, settings.Concurrency)
	return rt, nil
}

func newGitHubHost(ctx context.Context, repo *git.Repo, settings *config.Settings) (engine.PRHost, error) {
	remoteURL, err := repo.RemoteURL()
	if err != nil {
		return nil, err
	}
	info, err := github.ParseRemoteURL(remoteURL)
	if err != nil {
		return nil, err
	}
	token, err := github.Token(ctx, settings.GitHubToken, repo.Root())
	if err != nil {
		return nil, err
	}
	return github.NewClient(ctx, github.Options{
		Token:       token,
		APIURL:      settings.GitHubAPIURL,
		Repo:        info,
		Concurrency: settings.Concurrency,
	})
}

// Close releases the log file
func (c *Context) Close() error {
	return c.Splog.Close()
}
