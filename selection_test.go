package main

import "testing"

func marqueeStore(t *testing.T) (*NodeStore, *Node, *Node) {
	t.Helper()
	s := NewNodeStore()
	a := testImageNode("a.png", 0, 0)
	a.Size = Size{Width: 100, Height: 100}
	b := testImageNode("b.png", 200, 200)
	b.Size = Size{Width: 100, Height: 100}
	s.Add(a)
	s.Add(b)
	return s, a, b
}

func TestMarqueeSelectsOverlappingOnly(t *testing.T) {
	s, a, _ := marqueeStore(t)
	hits := marqueeHits(s, rectFromPoints(Point{}, Point{X: 150, Y: 150}))
	if len(hits) != 1 || hits[0] != a.ID {
		t.Errorf("marquee (0,0)-(150,150): hits = %v, want just A", hits)
	}
}

func TestMarqueeSelectsBoth(t *testing.T) {
	s, _, _ := marqueeStore(t)
	hits := marqueeHits(s, rectFromPoints(Point{}, Point{X: 260, Y: 260}))
	if len(hits) != 2 {
		t.Errorf("marquee (0,0)-(260,260): hits = %v, want A and B", hits)
	}
}

func TestMarqueeTouchingEdgeDoesNotSelect(t *testing.T) {
	s, _, b := marqueeStore(t)
	// Marquee ends exactly at B's left/top edge: no strict overlap.
	hits := marqueeHits(s, rectFromPoints(Point{}, Point{X: 200, Y: 200}))
	for _, id := range hits {
		if id == b.ID {
			t.Error("edge-touching marquee selected B")
		}
	}
}

func TestSelectOnlyPromotesActive(t *testing.T) {
	sel := NewSelection()
	sel.SelectOnly("a")
	if sel.ActiveID != "a" || !sel.Has("a") || sel.Count() != 1 {
		t.Errorf("after SelectOnly: active=%q set=%v", sel.ActiveID, sel.IDs)
	}
}

func TestToggleMembership(t *testing.T) {
	sel := NewSelection()
	sel.SelectOnly("a")
	sel.Toggle("b")
	if !sel.Has("a") || !sel.Has("b") {
		t.Fatalf("toggle should union: %v", sel.IDs)
	}
	if sel.ActiveID != "b" {
		t.Errorf("toggled-on node should become active, got %q", sel.ActiveID)
	}

	sel.Toggle("b")
	if sel.Has("b") {
		t.Error("second toggle should remove membership")
	}
	if sel.ActiveID != "a" {
		t.Errorf("active should fall back to a remaining member, got %q", sel.ActiveID)
	}
}

func TestActiveAlwaysMember(t *testing.T) {
	sel := NewSelection()
	sel.SelectOnly("a")
	sel.SetAll([]string{"b", "c"})
	if sel.ActiveID != "" && !sel.Has(sel.ActiveID) {
		t.Errorf("active %q is not a member of %v", sel.ActiveID, sel.IDs)
	}
	sel.AddAll([]string{"d"})
	if sel.ActiveID != "" && !sel.Has(sel.ActiveID) {
		t.Errorf("active %q is not a member of %v", sel.ActiveID, sel.IDs)
	}
}

func TestDropClearsActive(t *testing.T) {
	sel := NewSelection()
	sel.SelectOnly("a")
	sel.Drop("a")
	if sel.ActiveID != "" || sel.Count() != 0 {
		t.Errorf("drop left state behind: active=%q count=%d", sel.ActiveID, sel.Count())
	}
}

func TestNodeAtPrefersTopZ(t *testing.T) {
	s := NewNodeStore()
	a := testImageNode("a.png", 0, 0)
	b := testImageNode("b.png", 50, 50)
	s.Add(a)
	s.Add(b)
	// Both cover (100,100); b was added later so it is on top.
	hit := nodeAt(s, Point{X: 100, Y: 100})
	if hit == nil || hit.ID != b.ID {
		t.Fatalf("expected top node B, got %+v", hit)
	}
	s.BringToFront(a.ID)
	hit = nodeAt(s, Point{X: 100, Y: 100})
	if hit == nil || hit.ID != a.ID {
		t.Fatalf("after BringToFront expected A, got %+v", hit)
	}
}
