package main

// LineageEdge is one derived-from arrow, parent center to child center,
// in world coordinates.
type LineageEdge struct {
	ParentID string
	ChildID  string
	From     Point
	To       Point
	Emphasis bool
}

// lineageEdges derives the parent→child edges for the current store
// state. Pure view: nothing is stored, edges whose parent has been
// deleted simply disappear, and an edge is emphasized when either of its
// endpoints is selected.
func lineageEdges(store *NodeStore, sel *Selection) []LineageEdge {
	var out []LineageEdge
	for _, child := range store.Nodes() {
		for _, pid := range child.ParentIDs {
			parent := store.Get(pid)
			if parent == nil {
				continue
			}
			out = append(out, LineageEdge{
				ParentID: parent.ID,
				ChildID:  child.ID,
				From:     parent.Bounds().Center(),
				To:       child.Bounds().Center(),
				Emphasis: sel != nil && (sel.Has(parent.ID) || sel.Has(child.ID)),
			})
		}
	}
	return out
}
