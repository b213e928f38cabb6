package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Pixel extent of one terminal cell. Mouse events arrive in cells; the
// viewport and the node graph live in pixel-like world units.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
)

type model struct {
	cfg       *Config
	store     *NodeStore
	undo      *UndoStack
	view      *Viewport
	sel       *Selection
	jobs      *JobSet
	queue     *QueueClient
	stream    *StreamClient
	assistant *AssistantConn
	attach    AttachFunc

	width  int
	height int

	panMode      bool
	g            gesture
	pointer      Point // last known pointer position, screen pixels
	pointerKnown bool
	lastNudge    time.Time

	clip *clipboardPayload

	panel panelState
	help  bool

	sessionPath    string
	errorMessage   string
	successMessage string
}

func initialModel(cfg *Config, sessionPath string, assistant *AssistantConn, attach AttachFunc) model {
	m := model{
		cfg:         cfg,
		store:       NewNodeStore(),
		undo:        NewUndoStack(),
		view:        NewViewport(),
		sel:         NewSelection(),
		jobs:        NewJobSet(),
		queue:       NewQueueClient(cfg.Backend.QueueURL),
		stream:      NewStreamClient(cfg.Backend.StreamURL),
		assistant:   assistant,
		attach:      attach,
		sessionPath: sessionPath,
	}
	if sessionPath != "" {
		if err := LoadSession(sessionPath, m.store, m.view); err != nil {
			m.errorMessage = err.Error()
		}
	}
	return m
}

func (m model) Init() tea.Cmd {
	return listenAssistantCmd(m.assistant)
}

// glideTickMsg drives the viewport focus animation.
type glideTickMsg time.Time

func glideTickCmd() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return glideTickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case glideTickMsg:
		if m.view.Step(0.05) {
			return m, glideTickCmd()
		}
		return m, nil

	case InjectImageMsg:
		pos := m.injectPosition(msg.ParentIDs)
		n := newImageNode(msg.Src, msg.Prompt, pos, msg.ParentIDs)
		m.store.Add(n)
		return m, listenAssistantCmd(m.assistant)

	case FocusNodeMsg:
		if n := m.store.Get(msg.ID); n != nil {
			m.view.FitNodes([]*Node{n}, m.viewPixelWidth(), m.viewPixelHeight())
			return m, tea.Batch(glideTickCmd(), listenAssistantCmd(m.assistant))
		}
		return m, listenAssistantCmd(m.assistant)

	case jobEnqueuedMsg:
		return m.handleJobEnqueued(msg)

	case jobPollMsg:
		return m.handleJobPoll(msg)

	case jobStreamMsg:
		return m.handleJobStream(msg)

	case jobClearMsg:
		if j := m.jobs.Get(msg.nodeID); j != nil && j.ID == msg.jobID {
			m.jobs.Clear(msg.nodeID)
		}
		return m, nil
	}
	return m, nil
}

func (m *model) viewPixelWidth() float64  { return float64(m.width) * cellWidth }
func (m *model) viewPixelHeight() float64 { return float64(m.height-1) * cellHeight }

// pointerWorld is the last pointer position in world coordinates, or the
// viewport center when the pointer has never been seen.
func (m *model) pointerWorld() Point {
	if m.pointerKnown {
		return m.view.ScreenToWorld(m.pointer)
	}
	return m.view.ScreenToWorld(Point{X: m.viewPixelWidth() / 2, Y: m.viewPixelHeight() / 2})
}

// injectPosition places assistant-injected nodes next to their parents,
// or at the viewport center when there are none.
func (m *model) injectPosition(parentIDs []string) Point {
	var parents []*Node
	for _, id := range parentIDs {
		if n := m.store.Get(id); n != nil {
			parents = append(parents, n)
		}
	}
	if box, ok := boundsOf(parents); ok {
		return Point{X: box.X + box.Width + 64, Y: box.Y}
	}
	return m.pointerWorld()
}

func (m *model) setError(msg string) {
	m.errorMessage = msg
	m.successMessage = ""
}

func (m *model) setSuccess(msg string) {
	m.successMessage = msg
	m.errorMessage = ""
}

// --- job lifecycle ----------------------------------------------------

// startJobFor validates and launches the job the active node implies:
// generators generate, editors edit their target, images upscale.
func (m *model) startJobFor(n *Node) tea.Cmd {
	var (
		spec     GenerateRequest
		kind     JobKind
		sourceID string
		err      error
	)
	switch n.Kind {
	case KindGenerator:
		kind = JobGenerate
		spec, err = buildGenerateSpec(n)
	case KindEditor:
		kind = JobEdit
		var target *Node
		if n.Editor != nil && n.Editor.TargetID != "" {
			target = m.store.Get(n.Editor.TargetID)
		}
		spec, err = buildEditSpec(n, target)
		if target != nil {
			sourceID = target.ID
		}
	default:
		kind = JobUpscale
		sourceID = n.ID
		spec, err = buildUpscaleSpec(n)
	}
	if err != nil {
		m.setError(describeJobError(err))
		return nil
	}

	j, ok := m.jobs.Begin(n.ID, sourceID, kind)
	if !ok {
		m.setError("a job is already running on this node")
		return nil
	}
	j.spec = spec

	if m.cfg.Backend.Mode == "stream" {
		j.Phase = JobPolling
		return startStreamCmd(j, m.stream, spec)
	}
	return enqueueCmd(j, m.queue, spec)
}

// liveJob resolves a job message against the registry, dropping stale
// messages from superseded or cancelled jobs.
func (m *model) liveJob(nodeID, jobID string) *Job {
	j := m.jobs.Get(nodeID)
	if j == nil || j.ID != jobID {
		return nil
	}
	return j
}

func (m model) handleJobEnqueued(msg jobEnqueuedMsg) (tea.Model, tea.Cmd) {
	j := m.liveJob(msg.nodeID, msg.jobID)
	if j == nil {
		return m, nil
	}
	if msg.err != nil {
		m.failJob(j, msg.err)
		return m, nil
	}
	j.BackendJobID = msg.backendJobID
	j.Phase = JobPolling
	return m, pollCmd(j, m.queue)
}

func (m model) handleJobPoll(msg jobPollMsg) (tea.Model, tea.Cmd) {
	j := m.liveJob(msg.nodeID, msg.jobID)
	if j == nil {
		return m, nil
	}
	if msg.err != nil {
		m.failJob(j, msg.err)
		return m, nil
	}
	switch msg.status.State {
	case "success":
		src := msg.status.firstOutput()
		if src == "" {
			m.failJob(j, errIncompleteResult)
			return m, nil
		}
		return m, m.succeedJob(j, src)
	case "error":
		msgText := msg.status.Error
		if msgText == "" {
			msgText = "generation failed"
		}
		m.failJob(j, &BackendJobError{Message: msgText})
		return m, nil
	default:
		if msg.status.Progress > 0 {
			j.observeProgress(msg.status.Progress)
		} else {
			j.advanceSynthetic()
		}
		return m, pollCmd(j, m.queue)
	}
}

func (m model) handleJobStream(msg jobStreamMsg) (tea.Model, tea.Cmd) {
	j := m.liveJob(msg.nodeID, msg.jobID)
	if j == nil {
		return m, nil
	}
	ev := msg.ev
	if ev.final {
		if ev.err != nil {
			m.failJob(j, ev.err)
			return m, nil
		}
		if j.resultSrc == "" {
			m.failJob(j, errIncompleteResult)
			return m, nil
		}
		return m, m.succeedJob(j, j.resultSrc)
	}
	if ev.frame.Progress != nil {
		j.observeProgress(*ev.frame.Progress)
	} else {
		j.advanceSynthetic()
	}
	if len(ev.frame.Results) > 0 {
		j.resultSrc = ev.frame.Results[len(ev.frame.Results)-1].URL
	}
	return m, waitStreamCmd(j)
}

// succeedJob applies the one allowed mutation for a finished job: append
// a history entry to the owning node, or spawn a derived image node for
// edit/upscale results.
func (m *model) succeedJob(j *Job, src string) tea.Cmd {
	entry := historyEntryFor(j.spec, src)
	switch j.Kind {
	case JobGenerate:
		if !m.store.AppendHistory(j.NodeID, entry) {
			m.jobs.Clear(j.NodeID)
			return nil
		}
	default:
		source := m.store.Get(j.SourceID)
		if source == nil {
			m.jobs.Clear(j.NodeID)
			return nil
		}
		pos := Point{
			X: source.Position.X + source.Size.Width + 64,
			Y: source.Position.Y,
		}
		derived := newImageNode(src, j.spec.Prompt, pos, []string{j.SourceID})
		derived.History[0].EditMode = j.spec.EditMode
		derived.Size = source.Size
		m.store.Add(derived)
	}
	j.Phase = JobSucceeded
	j.Progress = 100
	m.setSuccess(fmt.Sprintf("%s done", j.Kind))
	return clearJobCmd(j)
}

// failJob clears the job without touching any node content.
func (m *model) failJob(j *Job, err error) {
	j.Phase = JobFailed
	j.Progress = 0
	m.jobs.Clear(j.NodeID)
	m.setError(describeJobError(err))
}

// --- structural mutations ---------------------------------------------

func (m *model) deleteSelection() {
	if m.sel.Count() == 0 {
		return
	}
	m.undo.Push(m.store)
	for id := range m.sel.IDs {
		m.jobs.CancelFor(id)
		m.store.Remove(id)
	}
	m.sel.Clear()
}

func (m *model) pasteFromClipboard() {
	text, err := readClipboard()
	if err != nil {
		text = ""
	}
	if strings.TrimSpace(text) == clipboardSentinel && !m.clip.empty() {
		m.undo.Push(m.store)
		pasted := pasteNodes(m.clip, m.pasteTarget())
		ids := make([]string, 0, len(pasted))
		for _, n := range pasted {
			m.store.Add(n)
			ids = append(ids, n.ID)
		}
		m.sel.SetAll(ids)
		return
	}
	if strings.TrimSpace(text) != "" {
		m.undo.Push(m.store)
		n := generatorFromText(text, m.pointerWorld(), m.cfg.Defaults)
		m.store.Add(n)
		m.sel.SelectOnly(n.ID)
		return
	}
	m.setError("clipboard is empty")
}

// pasteTarget picks the destination center: the tracked pointer if known,
// otherwise a small offset from where the nodes were copied.
func (m *model) pasteTarget() Point {
	if m.pointerKnown {
		return m.view.ScreenToWorld(m.pointer)
	}
	box, _ := boundsOf(m.clip.nodes)
	c := box.Center()
	return Point{X: c.X + pasteFallbackOffset, Y: c.Y + pasteFallbackOffset}
}

func (m *model) addGeneratorAtPointer() {
	m.undo.Push(m.store)
	n := newGeneratorNode("", m.pointerWorld(), m.cfg.Defaults)
	m.store.Add(n)
	m.sel.SelectOnly(n.ID)
	m.panel.openFor(n)
}

func (m *model) addEditorForActive() {
	active := m.store.Get(m.sel.ActiveID)
	if active == nil || active.Kind != KindImage {
		m.setError("select an image to edit")
		return
	}
	m.undo.Push(m.store)
	pos := Point{X: active.Position.X, Y: active.Position.Y + active.Size.Height + 48}
	n := newEditorNode(active.ID, pos, m.cfg.Defaults)
	m.store.Add(n)
	m.sel.SelectOnly(n.ID)
	m.panel.openFor(n)
}

func (m *model) shiftHistory(delta int) {
	n := m.store.Get(m.sel.ActiveID)
	if n == nil || len(n.History) == 0 {
		return
	}
	idx := n.HistoryIndex + delta
	if idx < 0 || idx >= len(n.History) {
		return
	}
	m.undo.Push(m.store)
	if err := m.store.SetHistoryIndex(n.ID, idx); err != nil {
		m.setError(err.Error())
	}
}

func (m *model) removeActiveVersion() {
	n := m.store.Get(m.sel.ActiveID)
	if n == nil || len(n.History) == 0 {
		return
	}
	m.undo.Push(m.store)
	if err := m.store.RemoveHistoryEntry(n.ID, n.HistoryIndex); err != nil {
		m.setError(err.Error())
	}
}

func (m *model) saveSession() {
	path := m.sessionPath
	if path == "" {
		path = m.cfg.SavePath("canvas.easel.json")
		m.sessionPath = path
	}
	if err := SaveSession(path, m.store, m.view); err != nil {
		m.setError(err.Error())
		return
	}
	m.setSuccess("saved " + path)
}

func (m *model) exportPNG() {
	path := strings.TrimSuffix(m.sessionPath, ".json")
	if path == "" {
		path = m.cfg.SavePath("canvas")
	}
	path += ".png"
	if err := ExportPNG(path, m.store.Nodes(), m.sel); err != nil {
		m.setError(err.Error())
		return
	}
	m.setSuccess("exported " + path)
}

func (m *model) attachActiveToAssistant() {
	n := m.store.Get(m.sel.ActiveID)
	if n == nil || n.CurrentSrc() == "" {
		m.setError("nothing to attach")
		return
	}
	if m.attach == nil {
		m.setError("no assistant connected")
		return
	}
	m.attach(AttachImage{Src: n.CurrentSrc(), ID: n.ID})
	m.setSuccess("attached to assistant")
}
