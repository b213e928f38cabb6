package main

// UndoStack keeps bounded deep snapshots of the node collection. Every
// structurally mutating gesture pushes exactly one snapshot before it
// applies its own change; read-only operations never push.
type UndoStack struct {
	snapshots [][]*Node
	depth     int
}

func NewUndoStack() *UndoStack {
	return &UndoStack{depth: undoDepth}
}

func (u *UndoStack) Len() int { return len(u.snapshots) }

// Push records the store's current state. The oldest snapshot falls off
// when the stack is full.
func (u *UndoStack) Push(s *NodeStore) {
	snap := s.Snapshot()
	u.snapshots = append([][]*Node{snap}, u.snapshots...)
	if len(u.snapshots) > u.depth {
		u.snapshots = u.snapshots[:u.depth]
	}
}

// Undo restores the most recent snapshot into the store. No-op on an
// empty stack.
func (u *UndoStack) Undo(s *NodeStore) bool {
	if len(u.snapshots) == 0 {
		return false
	}
	snap := u.snapshots[0]
	u.snapshots = u.snapshots[1:]
	s.Restore(snap)
	return true
}
