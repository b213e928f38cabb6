package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	exportMargin   = 48.0
	exportMaxEdge  = 4096
	exportFontSize = 14.0
)

// ExportPNG renders the node graph to a PNG: lineage edges underneath,
// node boxes on top in z order, labels inside. World units map 1:1 to
// pixels, downscaled if the graph exceeds the maximum image edge.
func ExportPNG(path string, nodes []*Node, sel *Selection) error {
	box, ok := boundsOf(nodes)
	if !ok {
		return fmt.Errorf("nothing to export")
	}
	box.X -= exportMargin
	box.Y -= exportMargin
	box.Width += 2 * exportMargin
	box.Height += 2 * exportMargin

	scale := 1.0
	if longest := max(box.Width, box.Height); longest > exportMaxEdge {
		scale = exportMaxEdge / longest
	}
	w := int(math.Ceil(box.Width * scale))
	h := int(math.Ceil(box.Height * scale))

	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()

	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return err
	}
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    exportFontSize,
		Hinting: font.HintingFull,
	})
	dc.SetFontFace(face)

	toPx := func(p Point) (float64, float64) {
		return (p.X - box.X) * scale, (p.Y - box.Y) * scale
	}

	store := NewNodeStore()
	for _, n := range nodes {
		store.Add(n.Clone())
	}
	for _, e := range lineageEdges(store, sel) {
		x1, y1 := toPx(e.From)
		x2, y2 := toPx(e.To)
		if e.Emphasis {
			dc.SetRGB(0.15, 0.35, 0.85)
			dc.SetLineWidth(2.5)
		} else {
			dc.SetRGB(0.55, 0.55, 0.55)
			dc.SetLineWidth(1.5)
		}
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
		drawArrowHead(dc, x1, y1, x2, y2)
	}

	for _, n := range store.NodesByZ() {
		drawNodePNG(dc, n, box, scale, sel != nil && sel.Has(n.ID))
	}

	return dc.SavePNG(path)
}

func drawArrowHead(dc *gg.Context, x1, y1, x2, y2 float64) {
	angle := math.Atan2(y2-y1, x2-x1)
	const size = 9.0
	dc.MoveTo(x2, y2)
	dc.LineTo(x2-size*math.Cos(angle-0.4), y2-size*math.Sin(angle-0.4))
	dc.LineTo(x2-size*math.Cos(angle+0.4), y2-size*math.Sin(angle+0.4))
	dc.ClosePath()
	dc.Fill()
}

func drawNodePNG(dc *gg.Context, n *Node, box Rect, scale float64, selected bool) {
	x := (n.Position.X - box.X) * scale
	y := (n.Position.Y - box.Y) * scale
	w := n.Size.Width * scale
	h := n.Size.Height * scale

	switch n.Kind {
	case KindGenerator:
		dc.SetRGB(0.93, 0.96, 1.0)
	case KindEditor:
		dc.SetRGB(1.0, 0.96, 0.90)
	default:
		dc.SetRGB(0.96, 0.96, 0.96)
	}
	dc.DrawRoundedRectangle(x, y, w, h, 8*scale)
	dc.Fill()

	if selected {
		dc.SetRGB(0.15, 0.35, 0.85)
		dc.SetLineWidth(2.5)
	} else {
		dc.SetRGB(0.25, 0.25, 0.25)
		dc.SetLineWidth(1.0)
	}
	dc.DrawRoundedRectangle(x, y, w, h, 8*scale)
	dc.Stroke()

	dc.SetRGB(0.1, 0.1, 0.1)
	dc.DrawStringAnchored(n.Kind.String(), x+8, y+16, 0, 0)
	dc.DrawStringWrapped(n.Label(), x+8, y+28, 0, 0, w-16, 1.3, gg.AlignLeft)
	if len(n.History) > 1 {
		v := fmt.Sprintf("v%d/%d", n.HistoryIndex+1, len(n.History))
		dc.DrawStringAnchored(v, x+w-8, y+16, 1, 0)
	}
}
