package engine

import (
	"context"
)

// Save writes the graph back to the store. Retired nodes are kept so that
// children still stacked on them load with the same parent.
func Save(ctx context.Context, store *Store, g *Graph) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return store.Write(ToDocument(g))
}

// ToDocument converts the graph into its persisted form
func ToDocument(g *Graph) *Document {
	doc := &Document{
		Version:  DocumentVersion,
		Trunk:    g.Trunk(),
		Branches: []Record{},
	}
	walk(g, TrunkID, func(n *BranchNode) {
		doc.Branches = append(doc.Branches, toRecord(g, n))
	})
	return doc
}

func toRecord(g *Graph, n *BranchNode) Record {
	rec := Record{
		Name:                 n.Name,
		Parent:               g.ParentName(n),
		LastSyncedHeadCommit: n.LastSyncedHeadCommit,
		CreatedAt:            n.CreatedAt.UTC(),
	}
	if n.HasPR() {
		id := n.PR.ID
		base := n.PR.BaseBranch
		state := string(n.PR.State)
		rec.PRID = &id
		rec.BaseBranch = &base
		rec.PRState = &state
		if n.PR.URL != "" {
			url := n.PR.URL
			rec.PRURL = &url
		}
	}
	return rec
}
