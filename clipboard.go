package main

import (
	"strings"

	"github.com/atotto/clipboard"
)

// clipboardPayload is the in-process side of a copy. Only the sentinel
// string travels through the OS clipboard; node data would be unbounded
// text and stays here.
type clipboardPayload struct {
	nodes []*Node
}

func (p *clipboardPayload) empty() bool { return p == nil || len(p.nodes) == 0 }

// copySelection deep-copies the selected nodes and marks the OS
// clipboard with the sentinel. Lineage edges are cleared on the copies:
// pasted nodes were not part of the history that produced the originals.
func copySelection(store *NodeStore, sel *Selection) *clipboardPayload {
	var nodes []*Node
	for _, n := range sel.Selected(store) {
		c := n.Clone()
		c.ParentIDs = nil
		nodes = append(nodes, c)
	}
	if len(nodes) == 0 {
		return nil
	}
	// Best effort; copy still works in-process if the OS clipboard is
	// unavailable.
	_ = clipboard.WriteAll(clipboardSentinel)
	return &clipboardPayload{nodes: nodes}
}

// pasteNodes clones the payload around target, which becomes the new
// bounding-box center. Every clone gets a fresh id; editor targets and
// parent references pointing inside the copied set are remapped to the
// new ids, references pointing outside it are dropped.
func pasteNodes(p *clipboardPayload, target Point) []*Node {
	if p.empty() {
		return nil
	}
	box, _ := boundsOf(p.nodes)
	center := box.Center()
	shiftX := target.X - center.X
	shiftY := target.Y - center.Y

	remap := make(map[string]string, len(p.nodes))
	out := make([]*Node, 0, len(p.nodes))
	for _, n := range p.nodes {
		c := n.Clone()
		remap[n.ID] = newNodeID()
		c.ID = remap[n.ID]
		c.Position.X += shiftX
		c.Position.Y += shiftY
		c.Z = 0 // store assigns a fresh z on Add
		out = append(out, c)
	}
	for _, c := range out {
		if c.Editor != nil && c.Editor.TargetID != "" {
			c.Editor.TargetID = remap[c.Editor.TargetID]
		}
		var parents []string
		for _, pid := range c.ParentIDs {
			if mapped, ok := remap[pid]; ok {
				parents = append(parents, mapped)
			}
		}
		c.ParentIDs = parents
	}
	return out
}

// readClipboard fetches whatever text the OS clipboard holds.
func readClipboard() (string, error) {
	return clipboard.ReadAll()
}

// generatorFromText turns pasted plain text into a generator node primed
// with that text as its prompt.
func generatorFromText(text string, pos Point, defaults GenerationDefaults) *Node {
	return newGeneratorNode(strings.TrimSpace(text), pos, defaults)
}
