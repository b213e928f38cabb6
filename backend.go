package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GenerateRequest is the job descriptor handed to either backend shape.
type GenerateRequest struct {
	Prompt         string   `json:"prompt"`
	NegativePrompt string   `json:"negative_prompt,omitempty"`
	Width          int      `json:"width,omitempty"`
	Height         int      `json:"height,omitempty"`
	Steps          int      `json:"steps,omitempty"`
	CfgScale       float64  `json:"cfg_scale,omitempty"`
	Model          string   `json:"model,omitempty"`
	Images         []string `json:"images,omitempty"`
	EditMode       string   `json:"edit_mode,omitempty"`
}

// ValidationError rejects a job before any network traffic.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// TransportError wraps an upload/enqueue/poll/stream request failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// BackendJobError is a terminal failure reported by the backend itself.
type BackendJobError struct {
	Message string
}

func (e *BackendJobError) Error() string { return e.Message }

// errIncompleteResult marks a stream that ended without a usable result.
var errIncompleteResult = errors.New("generation finished without a result")

// QueueClient talks to the queue/poll backend: upload source assets,
// enqueue a job, then poll until a terminal status.
type QueueClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewQueueClient(baseURL string) *QueueClient {
	return &QueueClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// UploadAsset stores raw bytes with the backend and returns its asset
// reference.
func (c *QueueClient) UploadAsset(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/assets", bytes.NewReader(data))
	if err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &TransportError{Op: "upload", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	var out struct {
		AssetRef string `json:"asset_ref"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	return out.AssetRef, nil
}

// Enqueue submits the job descriptor and returns the backend job id.
func (c *QueueClient) Enqueue(ctx context.Context, spec GenerateRequest) (string, error) {
	body, err := json.Marshal(spec)
	if err != nil {
		return "", &TransportError{Op: "enqueue", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Op: "enqueue", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", &TransportError{Op: "enqueue", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", &TransportError{Op: "enqueue", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	var out struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &TransportError{Op: "enqueue", Err: err}
	}
	return out.JobID, nil
}

// JobStatus is one poll response.
type JobStatus struct {
	State    string `json:"state"` // "running", "success", "error"
	Progress int    `json:"progress,omitempty"`
	Outputs  []struct {
		AssetRef string `json:"asset_ref"`
	} `json:"outputs,omitempty"`
	Error string `json:"error,omitempty"`
}

func (st JobStatus) terminal() bool { return st.State == "success" || st.State == "error" }

// firstOutput returns the result asset; the engine only ever uses the
// first one.
func (st JobStatus) firstOutput() string {
	if len(st.Outputs) == 0 {
		return ""
	}
	return st.Outputs[0].AssetRef
}

// PollStatus fetches the current status of a job.
func (c *QueueClient) PollStatus(ctx context.Context, jobID string) (JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/jobs/"+jobID, nil)
	if err != nil {
		return JobStatus{}, &TransportError{Op: "poll", Err: err}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return JobStatus{}, &TransportError{Op: "poll", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return JobStatus{}, &TransportError{Op: "poll", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	var st JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return JobStatus{}, &TransportError{Op: "poll", Err: err}
	}
	return st, nil
}

// StreamFrame is one event record from the streaming backend.
type StreamFrame struct {
	Progress *int `json:"progress,omitempty"`
	Results  []struct {
		URL string `json:"url"`
	} `json:"results,omitempty"`
	Error string `json:"error,omitempty"`
	Done  bool   `json:"-"`
}

const streamDoneSentinel = "[DONE]"

// parseStreamFrame decodes one newline-delimited event line. Blank lines
// yield a zero frame; the [DONE] sentinel sets Done.
func parseStreamFrame(line []byte) (StreamFrame, error) {
	text := strings.TrimSpace(string(line))
	if text == "" {
		return StreamFrame{}, nil
	}
	// Tolerate SSE-style "data: " prefixes.
	text = strings.TrimPrefix(text, "data: ")
	if text == streamDoneSentinel {
		return StreamFrame{Done: true}, nil
	}
	var f StreamFrame
	if err := json.Unmarshal([]byte(text), &f); err != nil {
		return StreamFrame{}, fmt.Errorf("bad stream frame: %w", err)
	}
	return f, nil
}

// StreamClient talks to the single-request streaming backend. The
// response body is a sequence of newline-delimited frames.
type StreamClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewStreamClient(baseURL string) *StreamClient {
	// No overall timeout: the stream stays open for the whole job. The
	// per-job context handles cancellation.
	return &StreamClient{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: &http.Client{}}
}

// Generate issues the request and forwards each frame to emit in order.
// It returns once the stream terminates: nil after a [DONE] sentinel or
// EOF, a BackendJobError if the backend sent a terminal error frame, a
// TransportError for request or read failures.
func (c *StreamClient) Generate(ctx context.Context, spec GenerateRequest, emit func(StreamFrame)) error {
	body, err := json.Marshal(spec)
	if err != nil {
		return &TransportError{Op: "stream", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return &TransportError{Op: "stream", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &TransportError{Op: "stream", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &TransportError{Op: "stream", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		frame, err := parseStreamFrame(scanner.Bytes())
		if err != nil {
			return &TransportError{Op: "stream", Err: err}
		}
		if frame.Error != "" {
			return &BackendJobError{Message: frame.Error}
		}
		if frame.Done {
			return nil
		}
		emit(frame)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return &TransportError{Op: "stream", Err: err}
	}
	return nil
}
