package engine

import (
	"fmt"
	"slices"
	"strings"
	"time"

	gitxerrors "gitx.dev/gitx/internal/errors"
)

// Graph is the forest of tracked branches rooted at one trunk.
// It is not safe for concurrent mutation; engines mutate it sequentially.
type Graph struct {
	trunk  string
	nodes  []*BranchNode
	byName map[string]NodeID
	roots  []NodeID
}

// NewGraph creates an empty graph rooted at trunk
func NewGraph(trunk string) *Graph {
	return &Graph{
		trunk:  trunk,
		byName: make(map[string]NodeID),
	}
}

// Trunk returns the trunk branch name
func (g *Graph) Trunk() string {
	return g.trunk
}

// IsTrunk reports whether name is the trunk
func (g *Graph) IsTrunk(name string) bool {
	return name == g.trunk
}

// Len returns the number of live nodes
func (g *Graph) Len() int {
	count := 0
	for _, n := range g.nodes {
		if n != nil && !n.retired {
			count++
		}
	}
	return count
}

// Node returns the live node for name, or nil
func (g *Graph) Node(name string) *BranchNode {
	n := g.lookup(name)
	if n == nil || n.retired {
		return nil
	}
	return n
}

// Nodes returns all live nodes in topological order
func (g *Graph) Nodes() []*BranchNode {
	return TopologicalOrder(g)
}

func (g *Graph) lookup(name string) *BranchNode {
	id, ok := g.byName[name]
	if !ok {
		return nil
	}
	return g.nodes[id]
}

func (g *Graph) get(id NodeID) *BranchNode {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// ParentName returns the name of n's parent, which is the trunk for roots
func (g *Graph) ParentName(n *BranchNode) string {
	if p := g.get(n.Parent); p != nil {
		return p.Name
	}
	return g.trunk
}

// ExpectedBase is the PR base n must have: its parent's current name
func (g *Graph) ExpectedBase(n *BranchNode) string {
	return g.ParentName(n)
}

// ParentNode returns n's parent node, or nil when the parent is trunk
func (g *Graph) ParentNode(n *BranchNode) *BranchNode {
	return g.get(n.Parent)
}

// childrenOf returns every node whose parent is id, retired ones included,
// ordered oldest first.
func (g *Graph) childrenOf(id NodeID) []*BranchNode {
	var ids []NodeID
	if id == TrunkID {
		ids = g.roots
	} else if n := g.get(id); n != nil {
		ids = n.children
	}
	children := make([]*BranchNode, 0, len(ids))
	for _, cid := range ids {
		if c := g.get(cid); c != nil {
			children = append(children, c)
		}
	}
	slices.SortFunc(children, compareCreation)
	return children
}

// NodeWithRetired returns the node for name even when it is retired
func (g *Graph) NodeWithRetired(name string) *BranchNode {
	return g.lookup(name)
}

// RootsWithRetired returns the nodes stacked directly on trunk, retired ones
// included
func (g *Graph) RootsWithRetired() []*BranchNode {
	return g.childrenOf(TrunkID)
}

// ChildrenWithRetired returns every child of n, retired ones included
func (g *Graph) ChildrenWithRetired(n *BranchNode) []*BranchNode {
	return g.childrenOf(n.ID)
}

// Children returns the live children of n, oldest first
func (g *Graph) Children(n *BranchNode) []*BranchNode {
	var live []*BranchNode
	for _, c := range g.childrenOf(n.ID) {
		if !c.retired {
			live = append(live, c)
		}
	}
	return live
}

// Ancestors returns n's ancestors from the root down, trunk excluded
func (g *Graph) Ancestors(n *BranchNode) []*BranchNode {
	var chain []*BranchNode
	for p := g.get(n.Parent); p != nil; p = g.get(p.Parent) {
		chain = append(chain, p)
	}
	slices.Reverse(chain)
	return chain
}

// Descendants returns the live nodes below n in topological order
func (g *Graph) Descendants(n *BranchNode) []*BranchNode {
	var out []*BranchNode
	walk(g, n.ID, func(d *BranchNode) {
		if !d.retired {
			out = append(out, d)
		}
	})
	return out
}

// Add tracks a new branch on top of parent
func (g *Graph) Add(name, parent string, createdAt time.Time) (*BranchNode, error) {
	if g.IsTrunk(name) {
		return nil, gitxerrors.ErrTrunkOperation
	}
	if _, exists := g.byName[name]; exists {
		return nil, gitxerrors.NewConsistencyError("duplicate branch", name)
	}

	parentID := TrunkID
	if !g.IsTrunk(parent) {
		p := g.lookup(parent)
		if p == nil {
			return nil, gitxerrors.NewBranchNotFoundError(parent)
		}
		parentID = p.ID
	}

	n := &BranchNode{
		ID:        NodeID(len(g.nodes)),
		Name:      name,
		Parent:    parentID,
		CreatedAt: createdAt,
	}
	g.nodes = append(g.nodes, n)
	g.byName[name] = n.ID
	g.link(n.ID, parentID)
	return n, nil
}

// SetParent re-points n at parent. A link that would close a cycle is
// rejected with a ConsistencyError and the graph is left unchanged.
func (g *Graph) SetParent(n *BranchNode, parent string) error {
	newParent := TrunkID
	if !g.IsTrunk(parent) {
		p := g.lookup(parent)
		if p == nil {
			return gitxerrors.NewBranchNotFoundError(parent)
		}
		newParent = p.ID
	}
	if newParent == n.Parent {
		return nil
	}

	var path []string
	for cur := g.get(newParent); cur != nil; cur = g.get(cur.Parent) {
		path = append(path, cur.Name)
		if cur.ID == n.ID {
			return gitxerrors.NewConsistencyError(
				fmt.Sprintf("setting parent of %s to %s would create a cycle", n.Name, parent),
				path...)
		}
	}

	g.unlink(n.ID, n.Parent)
	n.Parent = newParent
	g.link(n.ID, newParent)
	return nil
}

// Remove deletes n from the graph. Its children must have been re-parented.
func (g *Graph) Remove(n *BranchNode) error {
	if len(g.childrenOf(n.ID)) > 0 {
		return gitxerrors.NewConsistencyError("cannot remove a branch that still has children", n.Name)
	}
	g.unlink(n.ID, n.Parent)
	delete(g.byName, n.Name)
	g.nodes[n.ID] = nil
	return nil
}

// Retire hides n from lookups and ordering while keeping it as the parent of
// children that could not be moved off it.
func (g *Graph) Retire(n *BranchNode) {
	n.retired = true
}

// Retired returns nodes hidden by Retire in topological order
func (g *Graph) Retired() []*BranchNode {
	var out []*BranchNode
	walk(g, TrunkID, func(n *BranchNode) {
		if n.retired {
			out = append(out, n)
		}
	})
	return out
}

// BaseMismatches returns live nodes whose PR base differs from their parent
func (g *Graph) BaseMismatches() []*BranchNode {
	var out []*BranchNode
	for _, n := range g.Nodes() {
		if n.HasPR() && n.PR.BaseBranch != g.ExpectedBase(n) {
			out = append(out, n)
		}
	}
	return out
}

func (g *Graph) link(child, parent NodeID) {
	if parent == TrunkID {
		g.roots = append(g.roots, child)
		return
	}
	p := g.get(parent)
	p.children = append(p.children, child)
}

func (g *Graph) unlink(child, parent NodeID) {
	if parent == TrunkID {
		g.roots = slices.DeleteFunc(g.roots, func(id NodeID) bool { return id == child })
		return
	}
	if p := g.get(parent); p != nil {
		p.children = slices.DeleteFunc(p.children, func(id NodeID) bool { return id == child })
	}
}

func compareCreation(a, b *BranchNode) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}
