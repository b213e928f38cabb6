package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Width of the parameter panel, in terminal cells.
const panelWidth = 38

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	panelTitleStyle = lipgloss.NewStyle().Bold(true)
	fieldLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type panelField struct {
	key   string
	label string
	input textinput.Model
}

// panelState is the generator/editor parameter form. It is the only
// scrollable inner surface; wheel events over it stay inside it.
type panelState struct {
	open   bool
	nodeID string
	kind   NodeKind
	fields []panelField
	focus  int
	offset int
}

func newField(key, label, value string) panelField {
	ti := textinput.New()
	ti.SetValue(value)
	ti.CharLimit = 400
	ti.Width = panelWidth - 6
	ti.Prompt = "> "
	return panelField{key: key, label: label, input: ti}
}

func (p *panelState) openFor(n *Node) {
	p.fields = nil
	p.open = true
	p.nodeID = n.ID
	p.kind = n.Kind
	p.focus = 0
	p.offset = 0

	switch n.Kind {
	case KindGenerator:
		g := n.Generator
		p.fields = []panelField{
			newField("prompt", "Prompt", g.Prompt),
			newField("negative", "Negative prompt", g.NegativePrompt),
			newField("width", "Width", strconv.Itoa(g.TargetWidth)),
			newField("height", "Height", strconv.Itoa(g.TargetHeight)),
			newField("steps", "Steps", strconv.Itoa(g.Steps)),
			newField("cfg", "CFG", strconv.FormatFloat(g.Cfg, 'g', -1, 64)),
			newField("model", "Model", g.Model),
			newField("refs", "Reference images (comma separated)", strings.Join(g.RefImages, ", ")),
		}
	case KindEditor:
		e := n.Editor
		p.fields = []panelField{
			newField("prompt", "Edit instruction", e.Prompt),
			newField("steps", "Steps", strconv.Itoa(e.Steps)),
			newField("cfg", "CFG", strconv.FormatFloat(e.Cfg, 'g', -1, 64)),
		}
	default:
		p.open = false
		return
	}
	p.fields[0].input.Focus()
}

func (p *panelState) close() {
	p.open = false
	p.fields = nil
}

func (p *panelState) scroll(delta int) {
	p.offset += delta
	if p.offset < 0 {
		p.offset = 0
	}
	if maxOff := len(p.fields)*3 - 1; p.offset > maxOff {
		p.offset = maxOff
	}
}

func (p *panelState) moveFocus(delta int) {
	p.fields[p.focus].input.Blur()
	p.focus = (p.focus + delta + len(p.fields)) % len(p.fields)
	p.fields[p.focus].input.Focus()
}

func (p *panelState) value(key string) string {
	for _, f := range p.fields {
		if f.key == key {
			return strings.TrimSpace(f.input.Value())
		}
	}
	return ""
}

func (p *panelState) intValue(key string, fallback int) int {
	if v, err := strconv.Atoi(p.value(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func (p *panelState) floatValue(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(p.value(key), 64); err == nil && v > 0 {
		return v
	}
	return fallback
}

// handlePanelKey routes keys while the panel is open. Enter commits the
// form back into the node (one undo snapshot, one store mutation);
// escape discards it.
func (m model) handlePanelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.panel.close()
		return m, nil
	case "tab", "down":
		m.panel.moveFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.panel.moveFocus(-1)
		return m, nil
	case "enter":
		m.commitPanel()
		return m, nil
	}
	var cmd tea.Cmd
	m.panel.fields[m.panel.focus].input, cmd = m.panel.fields[m.panel.focus].input.Update(msg)
	return m, cmd
}

// commitPanel writes the form into the target node. A manual edit commit
// is a structural mutation, so it snapshots first.
func (m *model) commitPanel() {
	p := &m.panel
	n := m.store.Get(p.nodeID)
	if n == nil {
		p.close()
		return
	}
	m.undo.Push(m.store)
	switch p.kind {
	case KindGenerator:
		m.store.UpdateGenerator(p.nodeID, func(g *GeneratorState) {
			g.Prompt = p.value("prompt")
			g.NegativePrompt = p.value("negative")
			g.TargetWidth = p.intValue("width", g.TargetWidth)
			g.TargetHeight = p.intValue("height", g.TargetHeight)
			g.Steps = p.intValue("steps", g.Steps)
			g.Cfg = p.floatValue("cfg", g.Cfg)
			g.Model = p.value("model")
			g.RefImages = splitRefList(p.value("refs"))
		})
	case KindEditor:
		m.store.UpdateEditor(p.nodeID, func(e *EditorState) {
			e.Prompt = p.value("prompt")
			e.Steps = p.intValue("steps", e.Steps)
			e.Cfg = p.floatValue("cfg", e.Cfg)
		})
	}
	p.close()
}

// splitRefList parses the comma-separated reference image field, capped
// at the backend limit.
func splitRefList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) > maxReferenceImages {
		out = out[:maxReferenceImages]
	}
	return out
}

// renderPanel produces the panel column, already sized to the given
// height.
func (p *panelState) render(height int) string {
	var b strings.Builder
	title := "generator"
	if p.kind == KindEditor {
		title = "editor"
	}
	b.WriteString(panelTitleStyle.Render(fmt.Sprintf("%s settings", title)))
	b.WriteString("\n\n")
	for i, f := range p.fields {
		label := f.label
		if i == p.focus {
			label = "• " + label
		}
		b.WriteString(fieldLabelStyle.Render(label))
		b.WriteString("\n")
		b.WriteString(f.input.View())
		b.WriteString("\n\n")
	}
	b.WriteString(fieldLabelStyle.Render("enter: apply  esc: cancel"))

	lines := strings.Split(b.String(), "\n")
	if p.offset < len(lines) {
		lines = lines[p.offset:]
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return panelStyle.Height(height).Width(panelWidth - 2).Render(strings.Join(lines, "\n"))
}
