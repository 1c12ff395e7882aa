package engine

// TopologicalOrder returns the live nodes root-to-leaf. Siblings are ordered
// by creation time, oldest first, then by name. Retired nodes are walked
// through but not returned.
func TopologicalOrder(g *Graph) []*BranchNode {
	out := make([]*BranchNode, 0, len(g.nodes))
	walk(g, TrunkID, func(n *BranchNode) {
		if !n.retired {
			out = append(out, n)
		}
	})
	return out
}

// OrderSubset returns the named live nodes in topological order. Unknown
// names are ignored.
func OrderSubset(g *Graph, names []string) []*BranchNode {
	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[name] = true
	}
	var out []*BranchNode
	for _, n := range TopologicalOrder(g) {
		if want[n.Name] {
			out = append(out, n)
		}
	}
	return out
}

// OrderWithRetired returns every node root-to-leaf, retired ones included
func OrderWithRetired(g *Graph) []*BranchNode {
	var out []*BranchNode
	walk(g, TrunkID, func(n *BranchNode) {
		out = append(out, n)
	})
	return out
}

// walk visits every node below id in DFS preorder.
func walk(g *Graph, id NodeID, visit func(*BranchNode)) {
	for _, child := range g.childrenOf(id) {
		visit(child)
		walk(g, child.ID, visit)
	}
}
