// Package git is the version-control adapter.
//
// Reads (branch listing, heads, merge bases, commit subjects) go through
// go-git. Mutations that must behave exactly like the user's git (rebase,
// lease-guarded push, branch deletion, checkout, fetch) run the git binary
// through CommandRunner.
//
// This package should be the only place where git commands are executed.
package git
