// Package engine manages the stack graph of tracked branches.
//
// It is the core of gitx, responsible for:
//   - Tracking parent-child relationships between branches and their pull requests
//   - Loading the graph from stack metadata and live repository state
//   - Persisting the graph atomically under an advisory lock
//   - Ordering branches root-to-leaf for the sync and land engines
//
// Nodes live in an arena indexed by NodeID; parent and child links are IDs,
// never owning pointers.
package engine
