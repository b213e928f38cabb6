package main

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type NodeKind int

const (
	KindImage NodeKind = iota
	KindGenerator
	KindEditor
)

func (k NodeKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindGenerator:
		return "generator"
	case KindEditor:
		return "editor"
	}
	return "unknown"
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Intersects reports strict overlap: rectangles that merely share an edge
// do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

func (r Rect) Union(o Rect) Rect {
	x1 := min(r.X, o.X)
	y1 := min(r.Y, o.Y)
	x2 := max(r.X+r.Width, o.X+o.Width)
	y2 := max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// rectFromPoints builds the normalized rectangle spanning two corners.
func rectFromPoints(a, b Point) Rect {
	x1, x2 := min(a.X, b.X), max(a.X, b.X)
	y1, y2 := min(a.Y, b.Y), max(a.Y, b.Y)
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// HistoryEntry is one immutable version of a node's displayed asset plus
// the parameters that produced it. Entries are appended, never edited.
type HistoryEntry struct {
	Src       string    `json:"src"`
	Prompt    string    `json:"prompt,omitempty"`
	Steps     int       `json:"steps,omitempty"`
	Cfg       float64   `json:"cfg,omitempty"`
	Model     string    `json:"model,omitempty"`
	EditMode  string    `json:"edit_mode,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type GeneratorMode int

const (
	GeneratorInput GeneratorMode = iota
	GeneratorResult
)

// GeneratorState holds the parameters of a generator node. In input mode
// the node shows its parameter form; in result mode it displays the
// current history entry like an image node.
type GeneratorState struct {
	Mode           GeneratorMode `json:"mode"`
	Prompt         string        `json:"prompt"`
	NegativePrompt string        `json:"negative_prompt,omitempty"`
	TargetWidth    int           `json:"target_width"`
	TargetHeight   int           `json:"target_height"`
	Steps          int           `json:"steps"`
	Cfg            float64       `json:"cfg"`
	Model          string        `json:"model,omitempty"`
	RefImages      []string      `json:"ref_images,omitempty"`
}

// EditorState binds an editor node to the image node it transforms.
type EditorState struct {
	TargetID string  `json:"target_id,omitempty"`
	Prompt   string  `json:"prompt"`
	Steps    int     `json:"steps"`
	Cfg      float64 `json:"cfg"`
}

// Node is one canvas-placed entity. Kind selects which payload pointer is
// set; Image nodes carry no payload beyond their history. Lineage and
// editor targets are id references into the store, never Go pointers, so
// clones and snapshots cannot drag object graphs along.
type Node struct {
	ID           string          `json:"id"`
	Kind         NodeKind        `json:"kind"`
	Position     Point           `json:"position"`
	Size         Size            `json:"size"`
	Z            int             `json:"z"`
	ParentIDs    []string        `json:"parent_ids,omitempty"`
	History      []HistoryEntry  `json:"history,omitempty"`
	HistoryIndex int             `json:"history_index"`
	Generator    *GeneratorState `json:"generator,omitempty"`
	Editor       *EditorState    `json:"editor,omitempty"`
}

func newNodeID() string { return uuid.NewString() }

func (n *Node) Bounds() Rect {
	return Rect{X: n.Position.X, Y: n.Position.Y, Width: n.Size.Width, Height: n.Size.Height}
}

// CurrentSrc returns the displayed asset reference, or "" when the node
// has no history yet.
func (n *Node) CurrentSrc() string {
	if len(n.History) == 0 {
		return ""
	}
	return n.History[n.HistoryIndex].Src
}

// Label is the short text shown on the node box and in PNG exports.
func (n *Node) Label() string {
	switch n.Kind {
	case KindGenerator:
		if n.Generator != nil && n.Generator.Prompt != "" {
			return truncateLabel(n.Generator.Prompt, 40)
		}
		return "generator"
	case KindEditor:
		if n.Editor != nil && n.Editor.Prompt != "" {
			return truncateLabel(n.Editor.Prompt, 40)
		}
		return "editor"
	default:
		if src := n.CurrentSrc(); src != "" {
			return truncateLabel(lastPathSegment(src), 40)
		}
		return "image"
	}
}

func (n *Node) Clone() *Node {
	c := *n
	c.ParentIDs = append([]string(nil), n.ParentIDs...)
	c.History = append([]HistoryEntry(nil), n.History...)
	if n.Generator != nil {
		g := *n.Generator
		g.RefImages = append([]string(nil), n.Generator.RefImages...)
		c.Generator = &g
	}
	if n.Editor != nil {
		e := *n.Editor
		c.Editor = &e
	}
	return &c
}

// newImageNode creates an image node displaying src as its first history
// entry. parents records which nodes causally produced it.
func newImageNode(src, prompt string, pos Point, parents []string) *Node {
	return &Node{
		ID:       newNodeID(),
		Kind:     KindImage,
		Position: pos,
		Size:     Size{Width: defaultNodeWidth, Height: defaultNodeHeight},
		ParentIDs: append([]string(nil), parents...),
		History: []HistoryEntry{{
			Src:       src,
			Prompt:    prompt,
			Timestamp: time.Now(),
		}},
	}
}

func newGeneratorNode(prompt string, pos Point, defaults GenerationDefaults) *Node {
	return &Node{
		ID:       newNodeID(),
		Kind:     KindGenerator,
		Position: pos,
		Size:     Size{Width: defaultNodeWidth, Height: defaultNodeHeight},
		Generator: &GeneratorState{
			Mode:         GeneratorInput,
			Prompt:       prompt,
			TargetWidth:  defaults.Width,
			TargetHeight: defaults.Height,
			Steps:        defaults.Steps,
			Cfg:          defaults.Cfg,
			Model:        defaults.Model,
		},
	}
}

func newEditorNode(targetID string, pos Point, defaults GenerationDefaults) *Node {
	return &Node{
		ID:       newNodeID(),
		Kind:     KindEditor,
		Position: pos,
		Size:     Size{Width: defaultNodeWidth, Height: minNodeSize},
		Editor: &EditorState{
			TargetID: targetID,
			Steps:    defaults.Steps,
			Cfg:      defaults.Cfg,
		},
	}
}

func truncateLabel(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func lastPathSegment(s string) string {
	if i := strings.LastIndexByte(s, '/'); i >= 0 && i+1 < len(s) {
		return s[i+1:]
	}
	return s
}
