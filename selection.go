package main

// Selection tracks the focused node and the multi-select set. ActiveID is
// always a member of IDs when non-empty.
type Selection struct {
	ActiveID string
	IDs      map[string]bool
}

func NewSelection() *Selection {
	return &Selection{IDs: map[string]bool{}}
}

func (s *Selection) Clear() {
	s.ActiveID = ""
	s.IDs = map[string]bool{}
}

func (s *Selection) Has(id string) bool { return s.IDs[id] }

func (s *Selection) Count() int { return len(s.IDs) }

// SelectOnly makes id the sole selection and the active node.
func (s *Selection) SelectOnly(id string) {
	s.IDs = map[string]bool{id: true}
	s.ActiveID = id
}

// Toggle flips membership (shift-click). The toggled-on node becomes
// active; toggling off the active node promotes any remaining member.
func (s *Selection) Toggle(id string) {
	if s.IDs[id] {
		delete(s.IDs, id)
		if s.ActiveID == id {
			s.ActiveID = ""
			for other := range s.IDs {
				s.ActiveID = other
				break
			}
		}
		return
	}
	s.IDs[id] = true
	s.ActiveID = id
}

// SetAll replaces the selection with the given ids.
func (s *Selection) SetAll(ids []string) {
	s.IDs = make(map[string]bool, len(ids))
	for _, id := range ids {
		s.IDs[id] = true
	}
	if !s.IDs[s.ActiveID] {
		s.ActiveID = ""
		if len(ids) > 0 {
			s.ActiveID = ids[0]
		}
	}
}

// AddAll unions the given ids into the selection (shift-marquee).
func (s *Selection) AddAll(ids []string) {
	for _, id := range ids {
		s.IDs[id] = true
	}
	if s.ActiveID == "" && len(ids) > 0 {
		s.ActiveID = ids[0]
	}
}

// Drop removes ids that no longer exist in the store.
func (s *Selection) Drop(id string) {
	delete(s.IDs, id)
	if s.ActiveID == id {
		s.ActiveID = ""
		for other := range s.IDs {
			s.ActiveID = other
			break
		}
	}
}

// Selected returns the selected nodes in store order.
func (s *Selection) Selected(store *NodeStore) []*Node {
	var out []*Node
	for _, n := range store.Nodes() {
		if s.IDs[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// marqueeHits returns the ids of nodes whose world bounds strictly
// overlap the marquee rectangle, in store order.
func marqueeHits(store *NodeStore, marquee Rect) []string {
	var out []string
	for _, n := range store.Nodes() {
		if n.Bounds().Intersects(marquee) {
			out = append(out, n.ID)
		}
	}
	return out
}

// nodeAt returns the topmost node containing the world point, or nil.
func nodeAt(store *NodeStore, p Point) *Node {
	var hit *Node
	for _, n := range store.Nodes() {
		if n.Bounds().Contains(p) && (hit == nil || n.Z > hit.Z) {
			hit = n
		}
	}
	return hit
}
