package config

import (
	"fmt"

	envparse "github.com/caarlos0/env/v11"
)

const (
	// DefaultConcurrency is the worker pool size for remote PR state reads.
	DefaultConcurrency = 6
	// MaxConcurrency caps the worker pool size.
	MaxConcurrency = 16
	// DefaultRemote is used when no remote is configured.
	DefaultRemote = "origin"
)

// Env holds GITX_* overrides read from the process environment.
type Env struct {
	// Trunk overrides the configured trunk from GITX_TRUNK.
	Trunk string `env:"GITX_TRUNK"`
	// Remote overrides the push remote from GITX_REMOTE.
	Remote string `env:"GITX_REMOTE"`
	// Concurrency sizes the PR state worker pool from GITX_CONCURRENCY.
	Concurrency int `env:"GITX_CONCURRENCY"`
	// StrictParents fails loads with missing parents from GITX_STRICT_PARENTS.
	StrictParents *bool `env:"GITX_STRICT_PARENTS"`
	// NoGitHub disables the PR host from GITX_NO_GITHUB.
	NoGitHub bool `env:"GITX_NO_GITHUB"`
	// Debug enables debug output from GITX_DEBUG.
	Debug bool `env:"GITX_DEBUG"`
	// GitHubToken is the API token from GITHUB_TOKEN.
	GitHubToken string `env:"GITHUB_TOKEN"`
	// GitHubAPIURL points at a GitHub Enterprise API from GITX_GITHUB_API_URL.
	GitHubAPIURL string `env:"GITX_GITHUB_API_URL"`
	// LogMaxSize is the log file size in megabytes from GITX_LOG_MAX_SIZE.
	LogMaxSize int `env:"GITX_LOG_MAX_SIZE" envDefault:"1"`
	// LogMaxBackups is the number of rotated files from GITX_LOG_MAX_BACKUPS.
	LogMaxBackups int `env:"GITX_LOG_MAX_BACKUPS" envDefault:"2"`
	// LogMaxAge is the retention in days from GITX_LOG_MAX_AGE.
	LogMaxAge int `env:"GITX_LOG_MAX_AGE" envDefault:"30"`
}

// LogSettings controls the rotating log file.
type LogSettings struct {
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

// Settings is the resolved configuration for one command invocation.
type Settings struct {
	Trunk           string
	Remote          string
	GitHubEnabled   bool
	Concurrency     int
	StrictParents   bool
	PullTrunkOnLand bool
	Debug           bool
	GitHubToken     string
	GitHubAPIURL    string
	Log             LogSettings
}

// ParseEnv fills Env from the process environment. A non-nil environ
// replaces the process environment, which tests use.
func ParseEnv(environ map[string]string) (*Env, error) {
	var env Env
	opts := envparse.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := envparse.ParseWithOptions(&env, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &env, nil
}

// Resolve merges the repository config with environment overrides.
func Resolve(repo *RepoConfig, env *Env) *Settings {
	s := &Settings{
		Trunk:           "main",
		Remote:          DefaultRemote,
		GitHubEnabled:   true,
		Concurrency:     DefaultConcurrency,
		PullTrunkOnLand: true,
	}

	if repo != nil {
		if repo.Trunk != nil && *repo.Trunk != "" {
			s.Trunk = *repo.Trunk
		}
		if repo.Remote != nil && *repo.Remote != "" {
			s.Remote = *repo.Remote
		}
		if repo.IsGithubIntegrationEnabled != nil {
			s.GitHubEnabled = *repo.IsGithubIntegrationEnabled
		}
		if repo.Concurrency != nil {
			s.Concurrency = *repo.Concurrency
		}
		if repo.StrictParents != nil {
			s.StrictParents = *repo.StrictParents
		}
		if repo.PullTrunkOnLand != nil {
			s.PullTrunkOnLand = *repo.PullTrunkOnLand
		}
	}

	if env != nil {
		if env.Trunk != "" {
			s.Trunk = env.Trunk
		}
		if env.Remote != "" {
			s.Remote = env.Remote
		}
		if env.Concurrency != 0 {
			s.Concurrency = env.Concurrency
		}
		if env.StrictParents != nil {
			s.StrictParents = *env.StrictParents
		}
		if env.NoGitHub {
			s.GitHubEnabled = false
		}
		s.Debug = env.Debug
		s.GitHubToken = env.GitHubToken
		s.GitHubAPIURL = env.GitHubAPIURL
		s.Log = LogSettings{
			MaxSize:    env.LogMaxSize,
			MaxBackups: env.LogMaxBackups,
			MaxAge:     env.LogMaxAge,
		}
	}

	s.Concurrency = clampConcurrency(s.Concurrency)
	return s
}

// Load reads the repository config and the process environment.
func Load(repoRoot string) (*Settings, error) {
	repo, err := GetRepoConfig(repoRoot)
	if err != nil {
		return nil, err
	}
	env, err := ParseEnv(nil)
	if err != nil {
		return nil, err
	}
	return Resolve(repo, env), nil
}

func clampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}
