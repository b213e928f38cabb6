package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Background(lipgloss.Color("236"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Background(lipgloss.Color("236")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Background(lipgloss.Color("236"))
)

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.help {
		return m.helpView()
	}

	canvasH := m.height - 1
	grid := newGrid(m.width, canvasH)

	for _, e := range lineageEdges(m.store, m.sel) {
		m.drawEdge(grid, e)
	}
	for _, n := range m.store.NodesByZ() {
		m.drawNode(grid, n)
	}
	if m.g.kind == gestureMarquee {
		m.drawMarquee(grid)
	}

	rows := make([]string, canvasH)
	for y := range grid {
		rows[y] = string(grid[y])
	}

	if m.panel.open {
		panelLines := strings.Split(m.panel.render(canvasH), "\n")
		keep := m.width - panelWidth
		for y := range rows {
			row := []rune(rows[y])
			if keep < len(row) {
				row = row[:keep]
			}
			line := ""
			if y < len(panelLines) {
				line = panelLines[y]
			}
			rows[y] = string(row) + line
		}
	}

	return strings.Join(rows, "\n") + "\n" + m.statusBar()
}

func newGrid(w, h int) [][]rune {
	grid := make([][]rune, h)
	for y := range grid {
		grid[y] = make([]rune, w)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}
	return grid
}

func (m *model) set(grid [][]rune, x, y int, r rune) {
	if y >= 0 && y < len(grid) && x >= 0 && x < len(grid[y]) {
		grid[y][x] = r
	}
}

// cellRect projects a world rectangle to cell coordinates.
func (m *model) cellRect(r Rect) (x1, y1, x2, y2 int) {
	tl := m.view.WorldToScreen(Point{X: r.X, Y: r.Y})
	br := m.view.WorldToScreen(Point{X: r.X + r.Width, Y: r.Y + r.Height})
	x1 = int(tl.X / cellWidth)
	y1 = int(tl.Y / cellHeight)
	x2 = int(br.X / cellWidth)
	y2 = int(br.Y / cellHeight)
	return
}

func (m *model) drawNode(grid [][]rune, n *Node) {
	x1, y1, x2, y2 := m.cellRect(n.Bounds())
	if x2 <= x1 {
		x2 = x1 + 1
	}
	if y2 <= y1 {
		y2 = y1 + 1
	}

	selected := m.sel.Has(n.ID)
	h, v, tl, tr, bl, br := '─', '│', '┌', '┐', '└', '┘'
	if selected {
		// Selected boxes get heavy # borders.
		h, v, tl, tr, bl, br = '#', '#', '#', '#', '#', '#'
	}

	for x := x1; x <= x2; x++ {
		m.set(grid, x, y1, h)
		m.set(grid, x, y2, h)
	}
	for y := y1; y <= y2; y++ {
		m.set(grid, x1, y, v)
		m.set(grid, x2, y, v)
	}
	m.set(grid, x1, y1, tl)
	m.set(grid, x2, y1, tr)
	m.set(grid, x1, y2, bl)
	m.set(grid, x2, y2, br)

	// Interior: blank it, then write the header lines that fit.
	for y := y1 + 1; y < y2; y++ {
		for x := x1 + 1; x < x2; x++ {
			m.set(grid, x, y, ' ')
		}
	}
	innerW := x2 - x1 - 1
	if innerW < 4 {
		return
	}
	header := n.Kind.String()
	if len(n.History) > 1 {
		header += fmt.Sprintf(" v%d/%d", n.HistoryIndex+1, len(n.History))
	}
	m.writeClipped(grid, x1+2, y1+1, innerW-2, header)
	m.writeClipped(grid, x1+2, y1+2, innerW-2, n.Label())
	if j := m.jobs.Get(n.ID); j != nil {
		m.writeClipped(grid, x1+2, y2-1, innerW-2, progressLine(j, innerW-2))
	}
	m.set(grid, x2, y2, '+') // resize handle
}

func progressLine(j *Job, width int) string {
	label := fmt.Sprintf("%s %d%%", j.Kind, j.Progress)
	bar := width - len(label) - 1
	if bar <= 0 {
		return label
	}
	filled := bar * j.Progress / 100
	return label + " " + strings.Repeat("█", filled) + strings.Repeat("░", bar-filled)
}

func (m *model) writeClipped(grid [][]rune, x, y, w int, s string) {
	for i, r := range []rune(s) {
		if i >= w {
			break
		}
		m.set(grid, x+i, y, r)
	}
}

func (m *model) drawEdge(grid [][]rune, e LineageEdge) {
	a := m.view.WorldToScreen(e.From)
	b := m.view.WorldToScreen(e.To)
	x1, y1 := int(a.X/cellWidth), int(a.Y/cellHeight)
	x2, y2 := int(b.X/cellWidth), int(b.Y/cellHeight)
	mark := '·'
	if e.Emphasis {
		mark = '•'
	}
	plotLine(x1, y1, x2, y2, func(x, y int) {
		m.set(grid, x, y, mark)
	})
	m.set(grid, x2, y2, '>')
}

func (m *model) drawMarquee(grid [][]rune) {
	r := rectFromPoints(m.g.marqueeFrom, m.g.marqueeTo)
	x1, y1, x2, y2 := m.cellRect(r)
	for x := x1; x <= x2; x++ {
		m.set(grid, x, y1, '╌')
		m.set(grid, x, y2, '╌')
	}
	for y := y1; y <= y2; y++ {
		m.set(grid, x1, y, '╎')
		m.set(grid, x2, y, '╎')
	}
}

// plotLine walks the Bresenham line between two cells.
func plotLine(x1, y1, x2, y2 int, plot func(x, y int)) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x1, y1)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (m model) statusBar() string {
	left := fmt.Sprintf(" %d nodes", m.store.Len())
	if m.sel.Count() > 0 {
		left += fmt.Sprintf("  %d selected", m.sel.Count())
	}
	if m.panMode {
		left += "  PAN"
	}
	left += fmt.Sprintf("  %.0f%%", m.view.Scale*100)

	var right string
	var style = statusStyle
	switch {
	case m.errorMessage != "":
		right = m.errorMessage + " "
		style = errorStyle
	case m.successMessage != "":
		right = m.successMessage + " "
		style = successStyle
	default:
		right = "? help "
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return style.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m model) helpView() string {
	lines := []string{
		"easel canvas help",
		"=================",
		"",
		"Mouse:",
		"  click            select node (shift toggles), drag moves selection",
		"  drag corner +    resize node",
		"  drag background  marquee select (shift adds to selection)",
		"  middle drag      pan",
		"  wheel            zoom at cursor",
		"",
		"Canvas:",
		"  z                toggle pan mode (arrows and left-drag pan)",
		"  g                new generator node at pointer",
		"  i                new editor node for the active image",
		"  e                open settings panel for the active node",
		"  enter / r        run generation or edit on the active node",
		"  U                upscale the active image",
		"  [ / ]            previous / next version of the active node",
		"  -                remove the displayed version",
		"  d / delete       delete selection",
		"  c / ctrl+c       copy selection",
		"  p / ctrl+v       paste (plain text becomes a generator)",
		"  u / ctrl+z       undo",
		"  f / a            fit selection / fit all",
		"",
		"Session:",
		"  s                save session",
		"  S                export PNG",
		"  ctrl+e           attach active image to the assistant",
		"  q                quit",
		"",
		"press any key to close",
	}
	return strings.Join(lines, "\n")
}
