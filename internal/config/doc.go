// Package config manages gitx configuration.
//
// It handles:
//   - Repository-specific configuration stored under the git directory
//   - Environment overrides (GITX_* variables)
//   - The resolved Settings a command runs with
package config
