package main

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Viewport is the camera over the world plane. Screen coordinates are in
// pixels; world coordinates are node units. The transform is
// screen = world*Scale + (X, Y).
type Viewport struct {
	X     float64
	Y     float64
	Scale float64

	// Active glide tweens for focus/fit operations, nil when idle.
	glideX *gween.Tween
	glideY *gween.Tween
	glideS *gween.Tween
}

func NewViewport() *Viewport {
	return &Viewport{Scale: 1}
}

func (v *Viewport) ScreenToWorld(p Point) Point {
	return Point{X: (p.X - v.X) / v.Scale, Y: (p.Y - v.Y) / v.Scale}
}

func (v *Viewport) WorldToScreen(p Point) Point {
	return Point{X: p.X*v.Scale + v.X, Y: p.Y*v.Scale + v.Y}
}

// Pan shifts the camera by raw screen deltas. Scale does not apply.
func (v *Viewport) Pan(dx, dy float64) {
	v.stopGlide()
	v.X += dx
	v.Y += dy
}

// ZoomAt rescales by factor while keeping the world point under the
// screen anchor fixed under that anchor.
func (v *Viewport) ZoomAt(anchor Point, factor float64) {
	v.stopGlide()
	next := clampScale(v.Scale * factor)
	if next == v.Scale {
		return
	}
	before := v.ScreenToWorld(anchor)
	v.Scale = next
	v.X = anchor.X - before.X*next
	v.Y = anchor.Y - before.Y*next
}

// PinchZoom handles a two-point gesture: the centroid anchors the zoom
// and the distance ratio is the scale multiplier.
func (v *Viewport) PinchZoom(prevA, prevB, curA, curB Point) {
	prevDist := dist(prevA, prevB)
	curDist := dist(curA, curB)
	if prevDist == 0 {
		return
	}
	anchor := Point{X: (curA.X + curB.X) / 2, Y: (curA.Y + curB.Y) / 2}
	v.ZoomAt(anchor, curDist/prevDist)
}

// FitRect glides the camera so box fills focusFraction of a viewport of
// the given pixel dimensions, capped so small targets are not blown up.
func (v *Viewport) FitRect(box Rect, viewW, viewH float64) {
	if box.Width <= 0 || box.Height <= 0 || viewW <= 0 || viewH <= 0 {
		return
	}
	scale := min(viewW*focusFraction/box.Width, viewH*focusFraction/box.Height)
	scale = clampScale(min(scale, maxFocusScale))
	c := box.Center()
	v.glideTo(viewW/2-c.X*scale, viewH/2-c.Y*scale, scale)
}

// FitNodes fits the union bounds of the given nodes; no-op when empty.
func (v *Viewport) FitNodes(nodes []*Node, viewW, viewH float64) {
	if box, ok := boundsOf(nodes); ok {
		v.FitRect(box, viewW, viewH)
	}
}

func (v *Viewport) glideTo(x, y, scale float64) {
	const dur = 0.35
	v.glideX = gween.New(float32(v.X), float32(x), dur, ease.OutQuad)
	v.glideY = gween.New(float32(v.Y), float32(y), dur, ease.OutQuad)
	v.glideS = gween.New(float32(v.Scale), float32(scale), dur, ease.OutQuad)
}

// Gliding reports whether a focus animation is in progress.
func (v *Viewport) Gliding() bool { return v.glideX != nil }

// Step advances the glide by dt seconds and reports whether it is still
// running.
func (v *Viewport) Step(dt float64) bool {
	if v.glideX == nil {
		return false
	}
	x, doneX := v.glideX.Update(float32(dt))
	y, _ := v.glideY.Update(float32(dt))
	s, _ := v.glideS.Update(float32(dt))
	v.X = float64(x)
	v.Y = float64(y)
	v.Scale = float64(s)
	if doneX {
		v.stopGlide()
		return false
	}
	return true
}

func (v *Viewport) stopGlide() {
	v.glideX = nil
	v.glideY = nil
	v.glideS = nil
}

func clampScale(s float64) float64 {
	if s < minScale {
		return minScale
	}
	if s > maxScale {
		return maxScale
	}
	return s
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
