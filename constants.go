package main

import "time"

const (
	// Minimum node extent in world units. Resize and creation clamp to this.
	minNodeSize = 128.0

	minScale      = 0.05
	maxScale      = 10.0
	maxFocusScale = 1.4
	// Fraction of the viewport a fit/focus operation fills.
	focusFraction = 0.8

	undoDepth = 50

	pollInterval = time.Second
	// Synthetic progress applied per poll tick when the backend reports none.
	syntheticProgressStep = 2
	syntheticProgressCap  = 95

	maxReferenceImages = 9

	// Marker written to the OS clipboard on copy. The real payload stays
	// in process memory; pasting any other text synthesizes a generator.
	clipboardSentinel = "application/x-easel-nodes;v1"

	// World offset used when pasting without a known pointer position.
	pasteFallbackOffset = 48.0

	defaultNodeWidth  = 320.0
	defaultNodeHeight = 320.0
)
