package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

type JobPhase int

const (
	JobQueued JobPhase = iota
	JobPolling
	JobSucceeded
	JobFailed
)

type JobKind int

const (
	JobGenerate JobKind = iota
	JobEdit
	JobUpscale
)

func (k JobKind) String() string {
	switch k {
	case JobEdit:
		return "editing"
	case JobUpscale:
		return "upscaling"
	default:
		return "generating"
	}
}

// Job is the transient lifecycle of one generation request. It is scoped
// to exactly one node and never persisted; terminal transitions clear it
// from the JobSet. The context is cancelled when the owning node is
// deleted or the session ends, so a late poll or stream event can never
// touch a node that no longer exists.
type Job struct {
	ID       string
	NodeID   string
	SourceID string
	Kind     JobKind
	Phase    JobPhase
	Progress int
	Status   string

	BackendJobID string

	// spec is kept so the success path can stamp the history entry with
	// the parameters that produced it.
	spec GenerateRequest
	// resultSrc remembers the latest result reference seen on a stream.
	resultSrc string

	ctx    context.Context
	cancel context.CancelFunc
	events chan streamEvent
}

// streamEvent carries one frame (or the stream's final error) from the
// reader goroutine into the update loop.
type streamEvent struct {
	frame StreamFrame
	err   error
	final bool
}

// JobSet tracks in-flight jobs, at most one per node. Jobs on different
// nodes run independently; each one only ever mutates its own node.
type JobSet struct {
	jobs map[string]*Job
}

func NewJobSet() *JobSet {
	return &JobSet{jobs: map[string]*Job{}}
}

func (js *JobSet) Get(nodeID string) *Job { return js.jobs[nodeID] }

// Begin registers a new job for the node. Refused while another job on
// the same node is in flight.
func (js *JobSet) Begin(nodeID, sourceID string, kind JobKind) (*Job, bool) {
	if _, busy := js.jobs[nodeID]; busy {
		return nil, false
	}
	ctx, cancel := context.WithCancel(context.Background())
	j := &Job{
		ID:       uuid.NewString(),
		NodeID:   nodeID,
		SourceID: sourceID,
		Kind:     kind,
		Phase:    JobQueued,
		ctx:      ctx,
		cancel:   cancel,
		events:   make(chan streamEvent, 16),
	}
	js.jobs[nodeID] = j
	return j, true
}

// Clear removes the job after a terminal transition.
func (js *JobSet) Clear(nodeID string) {
	if j, ok := js.jobs[nodeID]; ok {
		j.cancel()
		delete(js.jobs, nodeID)
	}
}

// CancelFor aborts any job whose node was just removed.
func (js *JobSet) CancelFor(nodeID string) { js.Clear(nodeID) }

// CancelAll aborts everything; session teardown.
func (js *JobSet) CancelAll() {
	for id := range js.jobs {
		js.Clear(id)
	}
}

// advanceSynthetic bumps progress by the synthetic increment when the
// backend reports none, capped below completion.
func (j *Job) advanceSynthetic() {
	if j.Progress < syntheticProgressCap {
		j.Progress = min(j.Progress+syntheticProgressStep, syntheticProgressCap)
	}
}

// observeProgress folds a backend-reported value in without regressing.
// Only synthetic advances are capped; a real value may go all the way.
func (j *Job) observeProgress(p int) {
	if p > j.Progress {
		j.Progress = min(p, 100)
	}
}

// --- job messages -----------------------------------------------------

type jobEnqueuedMsg struct {
	jobID        string
	nodeID       string
	backendJobID string
	err          error
}

type jobPollMsg struct {
	jobID  string
	nodeID string
	status JobStatus
	err    error
}

type jobStreamMsg struct {
	jobID  string
	nodeID string
	ev     streamEvent
}

// jobClearMsg removes the finished job badge after a short beat.
type jobClearMsg struct {
	jobID  string
	nodeID string
}

// --- job commands -----------------------------------------------------

// buildGenerateSpec validates a generator node and produces its job
// descriptor. Validation failures happen before any network call.
func buildGenerateSpec(n *Node) (GenerateRequest, error) {
	g := n.Generator
	if g == nil {
		return GenerateRequest{}, &ValidationError{Reason: "node has no generator settings"}
	}
	if g.Prompt == "" {
		return GenerateRequest{}, &ValidationError{Reason: "prompt is empty"}
	}
	// The request owns its slice: asset resolution rewrites entries in
	// place, and that must never reach the node.
	imgs := append([]string(nil), g.RefImages...)
	if len(imgs) > maxReferenceImages {
		imgs = imgs[:maxReferenceImages]
	}
	return GenerateRequest{
		Prompt:         g.Prompt,
		NegativePrompt: g.NegativePrompt,
		Width:          g.TargetWidth,
		Height:         g.TargetHeight,
		Steps:          g.Steps,
		CfgScale:       g.Cfg,
		Model:          g.Model,
		Images:         imgs,
	}, nil
}

// buildEditSpec validates an editor node against its target image.
func buildEditSpec(n *Node, target *Node) (GenerateRequest, error) {
	e := n.Editor
	if e == nil {
		return GenerateRequest{}, &ValidationError{Reason: "node has no editor settings"}
	}
	if target == nil {
		return GenerateRequest{}, &ValidationError{Reason: "no target image to edit"}
	}
	src := target.CurrentSrc()
	if src == "" {
		return GenerateRequest{}, &ValidationError{Reason: "target image has no content yet"}
	}
	if e.Prompt == "" {
		return GenerateRequest{}, &ValidationError{Reason: "edit instruction is empty"}
	}
	return GenerateRequest{
		Prompt:   e.Prompt,
		Steps:    e.Steps,
		CfgScale: e.Cfg,
		Images:   []string{src},
		EditMode: "edit",
	}, nil
}

func buildUpscaleSpec(target *Node) (GenerateRequest, error) {
	src := target.CurrentSrc()
	if src == "" {
		return GenerateRequest{}, &ValidationError{Reason: "image has no content yet"}
	}
	return GenerateRequest{
		Images:   []string{src},
		EditMode: "upscale",
	}, nil
}

// resolveSourceAsset uploads a local file to the backend and swaps the
// reference; remote references pass through untouched.
func resolveSourceAsset(ctx context.Context, c *QueueClient, ref string) (string, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		// Not a readable local file; assume the backend can fetch it.
		return ref, nil
	}
	return c.UploadAsset(ctx, data)
}

// enqueueCmd uploads any local source assets and submits the job.
func enqueueCmd(j *Job, c *QueueClient, spec GenerateRequest) tea.Cmd {
	return func() tea.Msg {
		for i, ref := range spec.Images {
			resolved, err := resolveSourceAsset(j.ctx, c, ref)
			if err != nil {
				return jobEnqueuedMsg{jobID: j.ID, nodeID: j.NodeID, err: err}
			}
			spec.Images[i] = resolved
		}
		backendID, err := c.Enqueue(j.ctx, spec)
		return jobEnqueuedMsg{jobID: j.ID, nodeID: j.NodeID, backendJobID: backendID, err: err}
	}
}

// pollCmd schedules the next status poll. The chain is strictly
// sequential: each tick is only issued from Update after the previous
// result arrived, so per-job progress can never arrive out of order.
func pollCmd(j *Job, c *QueueClient) tea.Cmd {
	jobID, nodeID, backendID, ctx := j.ID, j.NodeID, j.BackendJobID, j.ctx
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		if ctx.Err() != nil {
			return nil
		}
		st, err := c.PollStatus(ctx, backendID)
		return jobPollMsg{jobID: jobID, nodeID: nodeID, status: st, err: err}
	})
}

// startStreamCmd launches the streaming request. A reader goroutine owns
// the connection and pushes frames into the job's event channel; the
// update loop drains it one waitStreamCmd at a time.
func startStreamCmd(j *Job, c *StreamClient, spec GenerateRequest) tea.Cmd {
	return func() tea.Msg {
		go func() {
			err := c.Generate(j.ctx, spec, func(f StreamFrame) {
				select {
				case j.events <- streamEvent{frame: f}:
				case <-j.ctx.Done():
				}
			})
			select {
			case j.events <- streamEvent{err: err, final: true}:
			case <-j.ctx.Done():
			}
		}()
		return jobStreamMsg{jobID: j.ID, nodeID: j.NodeID, ev: <-j.events}
	}
}

// waitStreamCmd blocks on the next stream event.
func waitStreamCmd(j *Job) tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-j.events:
			return jobStreamMsg{jobID: j.ID, nodeID: j.NodeID, ev: ev}
		case <-j.ctx.Done():
			return nil
		}
	}
}

// clearJobCmd drops the 100% badge shortly after success.
func clearJobCmd(j *Job) tea.Cmd {
	jobID, nodeID := j.ID, j.NodeID
	return tea.Tick(600*time.Millisecond, func(time.Time) tea.Msg {
		return jobClearMsg{jobID: jobID, nodeID: nodeID}
	})
}

// historyEntryFor builds the single entry a successful job appends.
func historyEntryFor(spec GenerateRequest, src string) HistoryEntry {
	return HistoryEntry{
		Src:       src,
		Prompt:    spec.Prompt,
		Steps:     spec.Steps,
		Cfg:       spec.CfgScale,
		Model:     spec.Model,
		EditMode:  spec.EditMode,
		Timestamp: time.Now(),
	}
}

// describeJobError renders the taxonomy for the status bar.
func describeJobError(err error) string {
	switch e := err.(type) {
	case *ValidationError:
		return e.Reason
	case *BackendJobError:
		return "backend: " + e.Message
	case *TransportError:
		return fmt.Sprintf("request failed (%s)", e.Op)
	default:
		if err == errIncompleteResult {
			return "stream ended without a result"
		}
		return err.Error()
	}
}
