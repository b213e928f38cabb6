package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	zoomStepIn  = 1.1
	zoomStepOut = 1 / 1.1
	// Screen-pixel radius of the resize grab area at a node's bottom-right
	// corner.
	resizeHandlePx = 14.0
	nudgeStep      = 16.0
	// Nudges closer together than this are one burst sharing one undo
	// snapshot.
	nudgeBurstGap = 500 * time.Millisecond
)

// cellToScreen converts a mouse cell position to screen pixels.
func cellToScreen(x, y int) Point {
	return Point{X: (float64(x) + 0.5) * cellWidth, Y: (float64(y) + 0.5) * cellHeight}
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	screen := cellToScreen(msg.X, msg.Y)
	m.pointer = screen
	m.pointerKnown = true

	overPanel := m.panel.open && msg.X >= m.width-panelWidth

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if overPanel {
			m.panel.scroll(-1)
			return m, nil
		}
		m.view.ZoomAt(screen, zoomStepIn)
		return m, nil
	case tea.MouseButtonWheelDown:
		if overPanel {
			m.panel.scroll(1)
			return m, nil
		}
		m.view.ZoomAt(screen, zoomStepOut)
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if overPanel {
			// The panel is an interactive control; its events never reach
			// the canvas.
			return m, nil
		}
		return m.handlePress(msg, screen)

	case tea.MouseActionMotion:
		return m.handleMotion(screen)

	case tea.MouseActionRelease:
		return m.handleRelease(msg, screen)
	}
	return m, nil
}

func (m model) handlePress(msg tea.MouseMsg, screen Point) (tea.Model, tea.Cmd) {
	if msg.Button == tea.MouseButtonMiddle || (msg.Button == tea.MouseButtonLeft && m.panMode) {
		m.g = gesture{kind: gesturePan, lastScreen: screen}
		return m, nil
	}
	if msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	world := m.view.ScreenToWorld(screen)
	hit := nodeAt(m.store, world)
	if hit == nil {
		// Background press starts a marquee; plain click clears the
		// selection on release, shift unions instead.
		if !msg.Shift {
			m.sel.Clear()
		}
		m.g = gesture{
			kind:         gestureMarquee,
			lastScreen:   screen,
			marqueeFrom:  world,
			marqueeTo:    world,
			marqueeUnion: msg.Shift,
		}
		return m, nil
	}

	// Geometry is about to change (z now, position on drag): snapshot
	// before anything mutates.
	m.undo.Push(m.store)

	if msg.Shift {
		m.sel.Toggle(hit.ID)
	} else if !m.sel.Has(hit.ID) {
		m.sel.SelectOnly(hit.ID)
	} else {
		m.sel.ActiveID = hit.ID
	}
	m.store.BringToFront(hit.ID)

	if !m.sel.Has(hit.ID) {
		// Shift-click deselected it; no gesture follows.
		return m, nil
	}

	corner := m.view.WorldToScreen(Point{
		X: hit.Position.X + hit.Size.Width,
		Y: hit.Position.Y + hit.Size.Height,
	})
	if dist(screen, corner) <= resizeHandlePx {
		m.g = gesture{kind: gestureResize, lastScreen: screen, resizeID: hit.ID}
		return m, nil
	}
	m.g = gesture{kind: gestureDrag, lastScreen: screen}
	return m, nil
}

func (m model) handleMotion(screen Point) (tea.Model, tea.Cmd) {
	switch m.g.kind {
	case gesturePan:
		m.view.Pan(screen.X-m.g.lastScreen.X, screen.Y-m.g.lastScreen.Y)
		m.g.lastScreen = screen
	case gestureDrag:
		dragTick(m.store, m.sel, &m.g, screen, m.view.Scale)
	case gestureResize:
		resizeTick(m.store, &m.g, screen, m.view.Scale)
	case gestureMarquee:
		m.g.marqueeTo = m.view.ScreenToWorld(screen)
	}
	return m, nil
}

func (m model) handleRelease(msg tea.MouseMsg, screen Point) (tea.Model, tea.Cmd) {
	switch m.g.kind {
	case gestureMarquee:
		hits := marqueeHits(m.store, rectFromPoints(m.g.marqueeFrom, m.g.marqueeTo))
		if m.g.marqueeUnion {
			m.sel.AddAll(hits)
		} else {
			m.sel.SetAll(hits)
		}
	case gestureDrag:
		if !m.g.moved && !msg.Shift && m.sel.Count() > 1 {
			// A plain click on a member of a multi-selection collapses to
			// it once it is clear no drag followed.
			world := m.view.ScreenToWorld(screen)
			if hit := nodeAt(m.store, world); hit != nil {
				m.sel.SelectOnly(hit.ID)
			}
		}
	}
	m.g.reset()
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.help {
		m.help = false
		return m, nil
	}
	if m.panel.open {
		return m.handlePanelKey(msg)
	}

	switch msg.String() {
	case "esc":
		// Escape dismisses the topmost surface first: gesture, then
		// selection.
		if m.g.active() {
			m.g.reset()
			return m, nil
		}
		m.panMode = false
		m.sel.Clear()
		return m, nil

	case "q", "ctrl+q":
		m.jobs.CancelAll()
		return m, tea.Quit

	case "?":
		m.help = true
		return m, nil

	case "z":
		m.panMode = !m.panMode
		return m, nil

	case "delete", "backspace", "d":
		m.deleteSelection()
		return m, nil

	case "ctrl+c", "c":
		if p := copySelection(m.store, m.sel); p != nil {
			m.clip = p
			m.setSuccess("copied")
		}
		return m, nil

	case "ctrl+v", "p":
		m.pasteFromClipboard()
		return m, nil

	case "ctrl+z", "u":
		if m.undo.Undo(m.store) {
			m.pruneSelection()
		}
		return m, nil

	case "g":
		m.addGeneratorAtPointer()
		return m, nil

	case "i":
		m.addEditorForActive()
		return m, nil

	case "e":
		if n := m.store.Get(m.sel.ActiveID); n != nil && n.Kind != KindImage {
			m.panel.openFor(n)
		}
		return m, nil

	case "enter", "r":
		if n := m.store.Get(m.sel.ActiveID); n != nil {
			if n.Kind == KindImage {
				return m, nil
			}
			return m, m.startJobFor(n)
		}
		return m, nil

	case "U":
		if n := m.store.Get(m.sel.ActiveID); n != nil && n.Kind == KindImage {
			return m, m.startJobFor(n)
		}
		return m, nil

	case "[":
		m.shiftHistory(-1)
		return m, nil
	case "]":
		m.shiftHistory(1)
		return m, nil
	case "-":
		m.removeActiveVersion()
		return m, nil

	case "f":
		if sel := m.sel.Selected(m.store); len(sel) > 0 {
			m.view.FitNodes(sel, m.viewPixelWidth(), m.viewPixelHeight())
			return m, glideTickCmd()
		}
		return m, nil
	case "F", "a":
		m.view.FitNodes(m.store.Nodes(), m.viewPixelWidth(), m.viewPixelHeight())
		return m, glideTickCmd()

	case "ctrl+s", "s":
		m.saveSession()
		return m, nil
	case "S":
		m.exportPNG()
		return m, nil

	case "ctrl+e":
		m.attachActiveToAssistant()
		return m, nil

	case "up", "k":
		return m.arrowKey(0, -1), nil
	case "down", "j":
		return m.arrowKey(0, 1), nil
	case "left", "h":
		return m.arrowKey(-1, 0), nil
	case "right", "l":
		return m.arrowKey(1, 0), nil
	}
	return m, nil
}

// arrowKey pans in pan mode, otherwise nudges the selection by a fixed
// world step. A held key repeats fast, so snapshots are taken per burst,
// not per repeat.
func (m model) arrowKey(dx, dy int) tea.Model {
	if m.panMode || m.sel.Count() == 0 {
		m.view.Pan(float64(-dx)*cellWidth*4, float64(-dy)*cellHeight*2)
		return m
	}
	if time.Since(m.lastNudge) > nudgeBurstGap {
		m.undo.Push(m.store)
	}
	m.lastNudge = time.Now()
	nudgeSelection(m.store, m.sel, float64(dx)*nudgeStep, float64(dy)*nudgeStep)
	return m
}

// pruneSelection drops selected ids that an undo removed from the store.
func (m *model) pruneSelection() {
	for id := range m.sel.IDs {
		if m.store.Get(id) == nil {
			m.sel.Drop(id)
		}
	}
}
