// Package actions implements the commands that operate on the stack metadata
// and the per-run report every command ends with.
//
// The sync, land and status commands live in subpackages. This package holds
// what they share: the Report of per-branch outcomes, the Session that holds
// the stack lock around a load and save, and the track/untrack commands that
// edit stack membership directly.
package actions
