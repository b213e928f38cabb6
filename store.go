package main

import (
	"errors"
	"sort"
)

var (
	errUnknownNode      = errors.New("no such node")
	errLastHistoryEntry = errors.New("cannot remove the last history entry")
	errHistoryIndex     = errors.New("history index out of range")
)

// NodeStore is the canonical collection of canvas nodes. Every mutation
// replaces the backing slice wholesale, so a slice handed out by Nodes()
// is a stable, consistent view no matter what happens afterwards. The
// renderer and the controllers all go through this one mutation path.
type NodeStore struct {
	nodes []*Node
	index map[string]int
	zNext int
}

func NewNodeStore() *NodeStore {
	return &NodeStore{index: map[string]int{}, zNext: 1}
}

// Reset drops all nodes and restarts the z allocator. Session start only.
func (s *NodeStore) Reset() {
	s.nodes = nil
	s.index = map[string]int{}
	s.zNext = 1
}

func (s *NodeStore) Len() int { return len(s.nodes) }

// Nodes returns the current collection in insertion order. Callers must
// not mutate the returned nodes.
func (s *NodeStore) Nodes() []*Node { return s.nodes }

// NodesByZ returns the collection sorted back-to-front.
func (s *NodeStore) NodesByZ() []*Node {
	out := append([]*Node(nil), s.nodes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Z < out[j].Z })
	return out
}

func (s *NodeStore) Get(id string) *Node {
	if i, ok := s.index[id]; ok {
		return s.nodes[i]
	}
	return nil
}

// NextZ hands out the next z-order value. Monotonic for the session.
func (s *NodeStore) NextZ() int {
	z := s.zNext
	s.zNext++
	return z
}

// Add inserts the node, assigning it a fresh z value if it has none.
func (s *NodeStore) Add(n *Node) {
	if n.Z == 0 {
		n.Z = s.NextZ()
	} else if n.Z >= s.zNext {
		s.zNext = n.Z + 1
	}
	next := make([]*Node, len(s.nodes), len(s.nodes)+1)
	copy(next, s.nodes)
	next = append(next, n)
	s.nodes = next
	s.index[n.ID] = len(next) - 1
}

func (s *NodeStore) Remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	next := make([]*Node, 0, len(s.nodes)-1)
	next = append(next, s.nodes[:i]...)
	next = append(next, s.nodes[i+1:]...)
	s.nodes = next
	s.reindex()
	return true
}

func (s *NodeStore) reindex() {
	s.index = make(map[string]int, len(s.nodes))
	for i, n := range s.nodes {
		s.index[n.ID] = i
	}
}

// mutate clones the addressed node, applies fn to the clone, and swaps in
// a fresh slice. Nothing partial is ever observable.
func (s *NodeStore) mutate(id string, fn func(*Node)) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	next := make([]*Node, len(s.nodes))
	copy(next, s.nodes)
	n := next[i].Clone()
	fn(n)
	next[i] = n
	s.nodes = next
	return true
}

func (s *NodeStore) UpdateGeometry(id string, pos Point, size Size) bool {
	return s.mutate(id, func(n *Node) {
		n.Position = pos
		n.Size = Size{
			Width:  max(size.Width, minNodeSize),
			Height: max(size.Height, minNodeSize),
		}
	})
}

func (s *NodeStore) MoveBy(id string, dx, dy float64) bool {
	return s.mutate(id, func(n *Node) {
		n.Position.X += dx
		n.Position.Y += dy
	})
}

func (s *NodeStore) UpdateGenerator(id string, fn func(*GeneratorState)) bool {
	n := s.Get(id)
	if n == nil || n.Generator == nil {
		return false
	}
	return s.mutate(id, func(n *Node) { fn(n.Generator) })
}

func (s *NodeStore) UpdateEditor(id string, fn func(*EditorState)) bool {
	n := s.Get(id)
	if n == nil || n.Editor == nil {
		return false
	}
	return s.mutate(id, func(n *Node) { fn(n.Editor) })
}

// BringToFront reassigns the node's z from the global allocator.
func (s *NodeStore) BringToFront(id string) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	z := s.NextZ()
	return s.mutate(id, func(n *Node) { n.Z = z })
}

// AppendHistory records a new version and makes it current. This is the
// only way a node's displayed content changes.
func (s *NodeStore) AppendHistory(id string, e HistoryEntry) bool {
	return s.mutate(id, func(n *Node) {
		n.History = append(n.History, e)
		n.HistoryIndex = len(n.History) - 1
		if n.Generator != nil {
			n.Generator.Mode = GeneratorResult
		}
	})
}

// SetHistoryIndex switches which version is displayed. Pure selection;
// the entries themselves are untouched.
func (s *NodeStore) SetHistoryIndex(id string, idx int) error {
	n := s.Get(id)
	if n == nil {
		return errUnknownNode
	}
	if idx < 0 || idx >= len(n.History) {
		return errHistoryIndex
	}
	s.mutate(id, func(n *Node) { n.HistoryIndex = idx })
	return nil
}

// RemoveHistoryEntry deletes version i, re-clamping the index. A node is
// never left with an empty history.
func (s *NodeStore) RemoveHistoryEntry(id string, i int) error {
	n := s.Get(id)
	if n == nil {
		return errUnknownNode
	}
	if i < 0 || i >= len(n.History) {
		return errHistoryIndex
	}
	if len(n.History) <= 1 {
		return errLastHistoryEntry
	}
	s.mutate(id, func(n *Node) {
		n.History = append(n.History[:i:i], n.History[i+1:]...)
		if n.HistoryIndex >= i {
			n.HistoryIndex = max(0, n.HistoryIndex-1)
		}
	})
	return nil
}

// Snapshot deep-copies the whole collection.
func (s *NodeStore) Snapshot() []*Node {
	out := make([]*Node, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Restore replaces the collection with a previously taken snapshot. The z
// allocator is advanced past every restored node so it stays monotonic.
func (s *NodeStore) Restore(snapshot []*Node) {
	s.nodes = make([]*Node, len(snapshot))
	for i, n := range snapshot {
		s.nodes[i] = n.Clone()
		if n.Z >= s.zNext {
			s.zNext = n.Z + 1
		}
	}
	s.reindex()
}

// boundsOf returns the union bounding box of the given nodes.
func boundsOf(nodes []*Node) (Rect, bool) {
	if len(nodes) == 0 {
		return Rect{}, false
	}
	r := nodes[0].Bounds()
	for _, n := range nodes[1:] {
		r = r.Union(n.Bounds())
	}
	return r, true
}
