package main

import tea "github.com/charmbracelet/bubbletea"

// The assistant collaborator speaks to the canvas over typed messages on
// the program's message loop, not ambient broadcasts. Inbound signals
// arrive as tea.Msgs (via Program.Send or the listen command below);
// outbound attachment requests go through the AttachFunc hook.

// InjectImageMsg asks the canvas to create a derived image node.
type InjectImageMsg struct {
	Src       string
	Prompt    string
	ParentIDs []string
}

// FocusNodeMsg asks the viewport to glide to a node.
type FocusNodeMsg struct {
	ID string
}

// AttachImage is emitted when the user sends a node's image to the
// assistant.
type AttachImage struct {
	Src string
	ID  string
}

// AttachFunc receives outbound attachments. Nil when no assistant is
// connected.
type AttachFunc func(AttachImage)

// AssistantConn is the inbound half: anything with a message channel can
// drive the canvas.
type AssistantConn struct {
	Inbox chan tea.Msg
}

func NewAssistantConn() *AssistantConn {
	return &AssistantConn{Inbox: make(chan tea.Msg, 8)}
}

// listenAssistantCmd waits for the next assistant signal. Re-issued from
// Update after each delivery.
func listenAssistantCmd(a *AssistantConn) tea.Cmd {
	if a == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-a.Inbox
		if !ok {
			return nil
		}
		return msg
	}
}
