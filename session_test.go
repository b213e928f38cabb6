package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSessionRoundTrip(t *testing.T) {
	store := NewNodeStore()
	view := NewViewport()
	view.X, view.Y, view.Scale = 120, -40, 0.75

	img := testImageNode("a.png", 10, 20)
	store.Add(img)
	store.AppendHistory(img.ID, entry("a2.png"))
	store.SetHistoryIndex(img.ID, 0)

	gen := newGeneratorNode("a lighthouse at dusk", Point{X: 600, Y: 0}, GenerationDefaults{Width: 1024, Height: 768, Steps: 28, Cfg: 4.5, Model: "flux"})
	gen.ParentIDs = []string{img.ID}
	store.Add(gen)
	store.BringToFront(img.ID)

	path := filepath.Join(t.TempDir(), "canvas.json")
	if err := SaveSession(path, store, view); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	store2 := NewNodeStore()
	view2 := NewViewport()
	if err := LoadSession(path, store2, view2); err != nil {
		t.Fatalf("LoadSession: %v", err)
	}

	if store2.Len() != 2 {
		t.Fatalf("loaded %d nodes, want 2", store2.Len())
	}
	got := store2.Get(img.ID)
	if got == nil {
		t.Fatal("image node lost")
	}
	if len(got.History) != 2 || got.HistoryIndex != 0 {
		t.Errorf("history len=%d idx=%d, want len=2 idx=0", len(got.History), got.HistoryIndex)
	}
	if got.Z != store.Get(img.ID).Z {
		t.Errorf("z = %d, want %d", got.Z, store.Get(img.ID).Z)
	}

	gotGen := store2.Get(gen.ID)
	if gotGen == nil || gotGen.Generator == nil {
		t.Fatal("generator payload lost")
	}
	if gotGen.Generator.Prompt != "a lighthouse at dusk" || gotGen.Generator.Model != "flux" {
		t.Errorf("generator = %+v", gotGen.Generator)
	}
	if len(gotGen.ParentIDs) != 1 || gotGen.ParentIDs[0] != img.ID {
		t.Errorf("lineage lost: %v", gotGen.ParentIDs)
	}

	if view2.X != 120 || view2.Y != -40 || view2.Scale != 0.75 {
		t.Errorf("view = (%f,%f,%f)", view2.X, view2.Y, view2.Scale)
	}

	// The z allocator resumes past everything in the file.
	fresh := testImageNode("new.png", 0, 0)
	store2.Add(fresh)
	if fresh.Z <= got.Z {
		t.Errorf("fresh z %d not past loaded high-water %d", fresh.Z, got.Z)
	}
}

func TestLoadSessionRejectsBadIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	data := `{"version":1,"nodes":[{"id":"x","kind":0,"position":{"x":0,"y":0},"size":{"width":128,"height":128},"z":1,"history":[{"src":"a.png","timestamp":"2026-01-01T00:00:00Z"}],"history_index":5}],"view":{"x":0,"y":0,"scale":1},"next_z":2}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadSession(path, NewNodeStore(), NewViewport()); err == nil {
		t.Error("out-of-range history index accepted")
	}
}

func TestLoadSessionRejectsWrongVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v9.json")
	if err := os.WriteFile(path, []byte(`{"version":9,"nodes":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadSession(path, NewNodeStore(), NewViewport()); err == nil {
		t.Error("unknown session version accepted")
	}
}

func TestLoadSessionNormalizesScale(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want float64
	}{
		{"zero defaults to 1", `0`, 1},
		{"below range clamps", `0.0001`, minScale},
		{"above range clamps", `500`, maxScale},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "s.json")
			data := `{"version":1,"nodes":[],"view":{"x":0,"y":0,"scale":` + tc.in + `},"next_z":1}`
			if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
				t.Fatal(err)
			}
			view := NewViewport()
			if err := LoadSession(path, NewNodeStore(), view); err != nil {
				t.Fatal(err)
			}
			if view.Scale != tc.want {
				t.Errorf("scale = %f, want %f", view.Scale, tc.want)
			}
		})
	}
}
