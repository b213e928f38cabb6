package main

import (
	"errors"
	"testing"
	"time"
)

func testImageNode(src string, x, y float64) *Node {
	return newImageNode(src, "", Point{X: x, Y: y}, nil)
}

func entry(src string) HistoryEntry {
	return HistoryEntry{Src: src, Timestamp: time.Now()}
}

func TestStoreAddAssignsMonotonicZ(t *testing.T) {
	s := NewNodeStore()
	a := testImageNode("a.png", 0, 0)
	b := testImageNode("b.png", 0, 0)
	s.Add(a)
	s.Add(b)
	if a.Z <= 0 || b.Z <= a.Z {
		t.Errorf("z allocation not monotonic: a=%d b=%d", a.Z, b.Z)
	}
}

func TestStoreBringToFront(t *testing.T) {
	s := NewNodeStore()
	a := testImageNode("a.png", 0, 0)
	b := testImageNode("b.png", 0, 0)
	s.Add(a)
	s.Add(b)
	s.BringToFront(a.ID)
	if s.Get(a.ID).Z <= s.Get(b.ID).Z {
		t.Errorf("a should be in front: a=%d b=%d", s.Get(a.ID).Z, s.Get(b.ID).Z)
	}
}

func TestStoreMutationReplacesCollection(t *testing.T) {
	s := NewNodeStore()
	n := testImageNode("a.png", 0, 0)
	s.Add(n)
	before := s.Nodes()
	s.MoveBy(n.ID, 10, 10)
	if before[0].Position.X != 0 {
		t.Error("mutation leaked into a previously handed-out view")
	}
	if s.Get(n.ID).Position.X != 10 {
		t.Errorf("move not applied, X = %f", s.Get(n.ID).Position.X)
	}
}

func TestStoreRemove(t *testing.T) {
	s := NewNodeStore()
	a := testImageNode("a.png", 0, 0)
	b := testImageNode("b.png", 0, 0)
	s.Add(a)
	s.Add(b)
	if !s.Remove(a.ID) {
		t.Fatal("remove reported failure")
	}
	if s.Get(a.ID) != nil {
		t.Error("removed node still resolvable")
	}
	if s.Get(b.ID) == nil {
		t.Error("unrelated node lost on remove")
	}
	if s.Remove(a.ID) {
		t.Error("second remove should report false")
	}
}

func TestStoreGeometryFloor(t *testing.T) {
	s := NewNodeStore()
	n := testImageNode("a.png", 0, 0)
	s.Add(n)
	s.UpdateGeometry(n.ID, n.Position, Size{Width: 5, Height: 5})
	got := s.Get(n.ID).Size
	if got.Width != minNodeSize || got.Height != minNodeSize {
		t.Errorf("size = %+v, want clamp to %f", got, minNodeSize)
	}
}

func TestHistoryAppendAdvancesIndex(t *testing.T) {
	s := NewNodeStore()
	n := testImageNode("v0.png", 0, 0)
	s.Add(n)
	s.AppendHistory(n.ID, entry("v1.png"))
	s.AppendHistory(n.ID, entry("v2.png"))

	got := s.Get(n.ID)
	if len(got.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(got.History))
	}
	if got.HistoryIndex != 2 {
		t.Errorf("history index = %d, want 2", got.HistoryIndex)
	}
	if got.CurrentSrc() != "v2.png" {
		t.Errorf("displayed src = %q, want v2.png", got.CurrentSrc())
	}
}

func TestSetHistoryIndexIsPureSelection(t *testing.T) {
	s := NewNodeStore()
	n := testImageNode("v0.png", 0, 0)
	s.Add(n)
	s.AppendHistory(n.ID, entry("v1.png"))

	if err := s.SetHistoryIndex(n.ID, 0); err != nil {
		t.Fatalf("SetHistoryIndex: %v", err)
	}
	got := s.Get(n.ID)
	if got.CurrentSrc() != "v0.png" {
		t.Errorf("displayed src = %q, want v0.png", got.CurrentSrc())
	}
	if len(got.History) != 2 {
		t.Errorf("history mutated by index switch: len = %d", len(got.History))
	}
	if err := s.SetHistoryIndex(n.ID, 5); !errors.Is(err, errHistoryIndex) {
		t.Errorf("out-of-range index: err = %v", err)
	}
}

func TestRemoveHistoryEntryReclamps(t *testing.T) {
	s := NewNodeStore()
	n := testImageNode("v0.png", 0, 0)
	s.Add(n)
	s.AppendHistory(n.ID, entry("v1.png"))
	s.AppendHistory(n.ID, entry("v2.png"))
	// index is 2; removing entry 1 must clamp to 1 and keep the later
	// entry displayed.
	if err := s.RemoveHistoryEntry(n.ID, 1); err != nil {
		t.Fatalf("RemoveHistoryEntry: %v", err)
	}
	got := s.Get(n.ID)
	if len(got.History) != 2 || got.HistoryIndex != 1 {
		t.Fatalf("after removal: len=%d idx=%d, want len=2 idx=1", len(got.History), got.HistoryIndex)
	}
	if got.CurrentSrc() != "v2.png" {
		t.Errorf("displayed src = %q, want v2.png", got.CurrentSrc())
	}

	if err := s.RemoveHistoryEntry(n.ID, 1); err != nil {
		t.Fatalf("removing down to one entry should be allowed: %v", err)
	}
	if err := s.RemoveHistoryEntry(n.ID, 0); !errors.Is(err, errLastHistoryEntry) {
		t.Errorf("removing the last entry: err = %v, want refusal", err)
	}
}

func TestRestoreAdvancesZAllocator(t *testing.T) {
	s := NewNodeStore()
	n := testImageNode("a.png", 0, 0)
	s.Add(n)
	snap := s.Snapshot()

	s2 := NewNodeStore()
	s2.Restore(snap)
	fresh := testImageNode("b.png", 0, 0)
	s2.Add(fresh)
	if fresh.Z <= n.Z {
		t.Errorf("restored store handed out stale z: %d <= %d", fresh.Z, n.Z)
	}
}

func TestSnapshotIsDeep(t *testing.T) {
	s := NewNodeStore()
	n := testImageNode("a.png", 0, 0)
	s.Add(n)
	snap := s.Snapshot()
	s.AppendHistory(n.ID, entry("b.png"))
	if len(snap[0].History) != 1 {
		t.Error("snapshot shares history with the live collection")
	}
}
