package main

import (
	"math"
	"testing"
)

func TestCopyClearsLineage(t *testing.T) {
	s := NewNodeStore()
	parent := testImageNode("p.png", 0, 0)
	s.Add(parent)
	child := newImageNode("c.png", "", Point{X: 400, Y: 0}, []string{parent.ID})
	s.Add(child)

	sel := NewSelection()
	sel.SelectOnly(child.ID)
	p := copySelection(s, sel)
	if p == nil || len(p.nodes) != 1 {
		t.Fatal("copy produced no payload")
	}
	if len(p.nodes[0].ParentIDs) != 0 {
		t.Errorf("copied node kept parent ids %v", p.nodes[0].ParentIDs)
	}
	// The original is untouched.
	if len(s.Get(child.ID).ParentIDs) != 1 {
		t.Error("copy mutated the original's lineage")
	}
}

func TestCopyEmptySelection(t *testing.T) {
	s := NewNodeStore()
	if p := copySelection(s, NewSelection()); p != nil {
		t.Errorf("copy of nothing returned %+v", p)
	}
}

func TestPasteRoundTrip(t *testing.T) {
	// Two 100x100 items whose joint bounding box is centered at (50,50).
	a := testImageNode("a.png", -50, -50)
	a.Size = Size{Width: 100, Height: 100}
	b := testImageNode("b.png", 50, 50)
	b.Size = Size{Width: 100, Height: 100}
	payload := &clipboardPayload{nodes: []*Node{a.Clone(), b.Clone()}}

	pasted := pasteNodes(payload, Point{X: 500, Y: 500})
	if len(pasted) != 2 {
		t.Fatalf("pasted %d nodes, want 2", len(pasted))
	}
	if pasted[0].ID == a.ID || pasted[1].ID == b.ID || pasted[0].ID == pasted[1].ID {
		t.Error("pasted nodes must have fresh distinct ids")
	}

	// Relative offset between the pair is preserved.
	origDX := b.Position.X - a.Position.X
	gotDX := pasted[1].Position.X - pasted[0].Position.X
	if !approxEqual(origDX, gotDX, epsilon) {
		t.Errorf("relative offset changed: %f -> %f", origDX, gotDX)
	}

	// New bounding-box center lands on the paste target.
	box, _ := boundsOf(pasted)
	c := box.Center()
	if math.Abs(c.X-500) > 1e-9 || math.Abs(c.Y-500) > 1e-9 {
		t.Errorf("pasted center = %+v, want (500,500)", c)
	}
}

func TestPasteRemapsInternalReferences(t *testing.T) {
	img := testImageNode("a.png", 0, 0)
	ed := newEditorNode(img.ID, Point{X: 0, Y: 400}, GenerationDefaults{Steps: 20, Cfg: 4})
	ed.ParentIDs = []string{img.ID, "gone-node"}

	payload := &clipboardPayload{nodes: []*Node{img.Clone(), ed.Clone()}}
	pasted := pasteNodes(payload, Point{X: 0, Y: 0})

	var newImg, newEd *Node
	for _, n := range pasted {
		if n.Kind == KindEditor {
			newEd = n
		} else {
			newImg = n
		}
	}
	if newEd.Editor.TargetID != newImg.ID {
		t.Errorf("editor target = %q, want remapped id %q", newEd.Editor.TargetID, newImg.ID)
	}
	if len(newEd.ParentIDs) != 1 || newEd.ParentIDs[0] != newImg.ID {
		t.Errorf("parent ids = %v, want only the remapped in-set parent", newEd.ParentIDs)
	}
}

func TestPasteDanglingEditorTargetCleared(t *testing.T) {
	ed := newEditorNode("missing-image", Point{}, GenerationDefaults{})
	payload := &clipboardPayload{nodes: []*Node{ed.Clone()}}
	pasted := pasteNodes(payload, Point{})
	if got := pasted[0].Editor.TargetID; got != "" {
		t.Errorf("dangling target = %q, want cleared", got)
	}
}

func TestGeneratorFromText(t *testing.T) {
	n := generatorFromText("  a cat in a hat \n", Point{X: 10, Y: 20}, GenerationDefaults{Width: 1024, Height: 1024, Steps: 28, Cfg: 4.5})
	if n.Kind != KindGenerator {
		t.Fatalf("kind = %v", n.Kind)
	}
	if n.Generator.Prompt != "a cat in a hat" {
		t.Errorf("prompt = %q", n.Generator.Prompt)
	}
	if n.Generator.Mode != GeneratorInput {
		t.Error("synthesized generator should start in input mode")
	}
	if n.Position.X != 10 || n.Position.Y != 20 {
		t.Errorf("position = %+v", n.Position)
	}
}
