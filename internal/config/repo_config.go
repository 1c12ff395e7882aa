package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const repoConfigFile = ".gitx_config"

// RepoConfig represents the repository configuration
type RepoConfig struct {
	Trunk                      *string `json:"trunk,omitempty"`
	Remote                     *string `json:"remote,omitempty"`
	IsGithubIntegrationEnabled *bool   `json:"isGithubIntegrationEnabled,omitempty"`
	Concurrency                *int    `json:"concurrency,omitempty"`
	StrictParents              *bool   `json:"strictParents,omitempty"`
	PullTrunkOnLand            *bool   `json:"land.pullTrunk,omitempty"`
}

func repoConfigPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".git", repoConfigFile)
}

// GetRepoConfig reads the repository configuration
func GetRepoConfig(repoRoot string) (*RepoConfig, error) {
	data, err := os.ReadFile(repoConfigPath(repoRoot))
	if err != nil {
		// Config doesn't exist - return default
		return &RepoConfig{}, nil
	}

	var config RepoConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse repo config: %w", err)
	}

	return &config, nil
}

// WriteRepoConfig persists the repository configuration
func WriteRepoConfig(repoRoot string, config *RepoConfig) error {
	configJSON, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(repoConfigPath(repoRoot), configJSON, 0600)
}

// GetTrunk returns the trunk branch name, or "main" as default
func GetTrunk(repoRoot string) (string, error) {
	config, err := GetRepoConfig(repoRoot)
	if err != nil {
		return "", err
	}

	if config.Trunk != nil && *config.Trunk != "" {
		return *config.Trunk, nil
	}

	return "main", nil
}

// IsInitialized checks if gitx has been initialized
func IsInitialized(repoRoot string) bool {
	config, err := GetRepoConfig(repoRoot)
	if err != nil {
		return false
	}
	return config.Trunk != nil && *config.Trunk != ""
}

// SetTrunk updates the trunk branch in the config
func SetTrunk(repoRoot string, trunkName string) error {
	config, err := GetRepoConfig(repoRoot)
	if err != nil {
		config = &RepoConfig{}
	}

	config.Trunk = &trunkName
	if config.IsGithubIntegrationEnabled == nil {
		enabled := true
		config.IsGithubIntegrationEnabled = &enabled
	}

	return WriteRepoConfig(repoRoot, config)
}

// SetRemote updates the remote used for pushes and trunk refreshes
func SetRemote(repoRoot string, remote string) error {
	config, err := GetRepoConfig(repoRoot)
	if err != nil {
		config = &RepoConfig{}
	}

	config.Remote = &remote
	return WriteRepoConfig(repoRoot, config)
}
