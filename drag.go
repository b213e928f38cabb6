package main

// gestureKind identifies the pointer gesture in progress.
type gestureKind int

const (
	gestureNone gestureKind = iota
	gestureDrag
	gestureResize
	gesturePan
	gestureMarquee
)

// gesture is the live pointer interaction. Screen deltas are consumed
// incrementally: lastScreen is reset every move tick so the gesture stays
// correct even if the scale changes mid-drag.
type gesture struct {
	kind       gestureKind
	lastScreen Point
	// marquee anchor and current corner, world coordinates
	marqueeFrom  Point
	marqueeTo    Point
	marqueeUnion bool
	// id of the node being resized
	resizeID string
	// set once the gesture has actually mutated anything
	moved bool
}

func (g *gesture) active() bool { return g.kind != gestureNone }

func (g *gesture) reset() { *g = gesture{} }

// dragTick applies one pointer-move increment to every selected node.
// Screen deltas convert to world deltas through the current scale.
func dragTick(store *NodeStore, sel *Selection, g *gesture, screen Point, scale float64) {
	dx := (screen.X - g.lastScreen.X) / scale
	dy := (screen.Y - g.lastScreen.Y) / scale
	g.lastScreen = screen
	if dx == 0 && dy == 0 {
		return
	}
	g.moved = true
	for id := range sel.IDs {
		store.MoveBy(id, dx, dy)
	}
}

// resizeTick grows or shrinks only the grabbed node. Position is left
// alone; width and height clamp to the minimum floor inside the store.
func resizeTick(store *NodeStore, g *gesture, screen Point, scale float64) {
	dx := (screen.X - g.lastScreen.X) / scale
	dy := (screen.Y - g.lastScreen.Y) / scale
	g.lastScreen = screen
	if dx == 0 && dy == 0 {
		return
	}
	n := store.Get(g.resizeID)
	if n == nil {
		return
	}
	g.moved = true
	store.UpdateGeometry(g.resizeID, n.Position, Size{
		Width:  n.Size.Width + dx,
		Height: n.Size.Height + dy,
	})
}

// nudgeSelection moves the selection by a fixed world step (keyboard).
func nudgeSelection(store *NodeStore, sel *Selection, dx, dy float64) {
	for id := range sel.IDs {
		store.MoveBy(id, dx, dy)
	}
}
