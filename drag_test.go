package main

import "testing"

func dragFixture() (*NodeStore, *Selection, *gesture) {
	s := NewNodeStore()
	a := testImageNode("a.png", 0, 0)
	b := testImageNode("b.png", 500, 0)
	s.Add(a)
	s.Add(b)
	sel := NewSelection()
	sel.SetAll([]string{a.ID, b.ID})
	g := &gesture{kind: gestureDrag, lastScreen: Point{X: 100, Y: 100}}
	return s, sel, g
}

func TestDragAppliesWorldDeltaToAllSelected(t *testing.T) {
	s, sel, g := dragFixture()
	dragTick(s, sel, g, Point{X: 120, Y: 110}, 2.0)

	for _, n := range s.Nodes() {
		wantX := map[string]float64{"a.png": 10, "b.png": 510}[n.History[0].Src]
		if !approxEqual(n.Position.X, wantX, epsilon) || !approxEqual(n.Position.Y, 5, epsilon) {
			t.Errorf("%s at (%f,%f), want (%f,5)", n.History[0].Src, n.Position.X, n.Position.Y, wantX)
		}
	}
}

func TestDragIncrementalUnderScaleChange(t *testing.T) {
	s, sel, g := dragFixture()
	// First tick at scale 1, then the scale doubles mid-gesture. Each
	// tick uses the scale of its own moment, so total = 10 + 5.
	dragTick(s, sel, g, Point{X: 110, Y: 100}, 1.0)
	dragTick(s, sel, g, Point{X: 120, Y: 100}, 2.0)

	n := s.Nodes()[0]
	if !approxEqual(n.Position.X, 15, epsilon) {
		t.Errorf("X = %f, want 15 (10 at scale 1 + 5 at scale 2)", n.Position.X)
	}
}

func TestDragResetsReferenceEachTick(t *testing.T) {
	s, sel, g := dragFixture()
	dragTick(s, sel, g, Point{X: 110, Y: 100}, 1.0)
	if g.lastScreen.X != 110 {
		t.Errorf("reference not reset: %f", g.lastScreen.X)
	}
	// A tick with no movement must not move anything.
	before := s.Nodes()[0].Position
	dragTick(s, sel, g, Point{X: 110, Y: 100}, 1.0)
	if s.Nodes()[0].Position != before {
		t.Error("zero-delta tick moved the node")
	}
}

func TestResizeOnlyGrabbedNode(t *testing.T) {
	s := NewNodeStore()
	a := testImageNode("a.png", 0, 0)
	b := testImageNode("b.png", 500, 0)
	s.Add(a)
	s.Add(b)
	g := &gesture{kind: gestureResize, lastScreen: Point{X: 0, Y: 0}, resizeID: a.ID}

	resizeTick(s, g, Point{X: 40, Y: 20}, 1.0)

	got := s.Get(a.ID)
	if got.Size.Width != defaultNodeWidth+40 || got.Size.Height != defaultNodeHeight+20 {
		t.Errorf("size = %+v", got.Size)
	}
	if got.Position != (Point{}) {
		t.Errorf("resize moved the node to %+v", got.Position)
	}
	if s.Get(b.ID).Size.Width != defaultNodeWidth {
		t.Error("resize touched an unselected node")
	}
}

func TestResizeClampsToFloor(t *testing.T) {
	s := NewNodeStore()
	a := testImageNode("a.png", 0, 0)
	s.Add(a)
	g := &gesture{kind: gestureResize, lastScreen: Point{X: 0, Y: 0}, resizeID: a.ID}

	resizeTick(s, g, Point{X: -10000, Y: -10000}, 1.0)

	got := s.Get(a.ID).Size
	if got.Width != minNodeSize || got.Height != minNodeSize {
		t.Errorf("size = %+v, want floor %f", got, minNodeSize)
	}
}

func TestResizeScalesDelta(t *testing.T) {
	s := NewNodeStore()
	a := testImageNode("a.png", 0, 0)
	s.Add(a)
	g := &gesture{kind: gestureResize, lastScreen: Point{X: 0, Y: 0}, resizeID: a.ID}

	// 100 screen px at scale 4 is 25 world units.
	resizeTick(s, g, Point{X: 100, Y: 0}, 4.0)
	if got := s.Get(a.ID).Size.Width; !approxEqual(got, defaultNodeWidth+25, epsilon) {
		t.Errorf("width = %f, want %f", got, defaultNodeWidth+25)
	}
}
