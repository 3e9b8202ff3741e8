package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/voxhire/voxhire/backend/orchestrator"
	ws "github.com/voxhire/voxhire/backend/websocket"
)

const maxEmptyStrikes = 3

// ChatHandler drives the text transport: it feeds candidate frames into the
// turn pipeline and renders the results back as frames.
type ChatHandler struct {
	dispatcher *orchestrator.Dispatcher
	registry   *orchestrator.Registry
}

func NewChatHandler(dispatcher *orchestrator.Dispatcher, registry *orchestrator.Registry) *ChatHandler {
	return &ChatHandler{dispatcher: dispatcher, registry: registry}
}

// HandleConnect greets a freshly attached client with the session state.
func (h *ChatHandler) HandleConnect(client *ws.Client) {
	sess, err := h.registry.Get(client.SessionID)
	if err != nil {
		client.SendFrame(ws.Frame{Type: "error", Message: "Session not found"})
		return
	}

	greeting := ""
	if sess.TurnCount() == 0 {
		greeting, err = h.dispatcher.StartSession(context.Background(), client.SessionID)
		if err != nil {
			slog.Warn("Failed to generate greeting", "error", err, "session_id", client.SessionID)
		}
	}

	client.SendFrame(ws.Frame{
		Type:        "ready",
		Stage:       sess.Stage().String(),
		Content:     greeting,
		AvatarState: "idle",
	})
}

func (h *ChatHandler) HandleClose(client *ws.Client) {
	slog.Info("Chat client disconnected", "session_id", client.SessionID)
}

func (h *ChatHandler) HandleMessage(client *ws.Client, raw []byte) {
	var frame ws.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		slog.Error("Failed to unmarshal chat frame", "error", err, "session_id", client.SessionID)
		client.SendFrame(ws.Frame{Type: "error", Message: "Malformed message"})
		return
	}

	switch frame.Type {
	case "message":
		h.handleCandidateMessage(client, frame.Content)
	case "end":
		h.handleEnd(client)
	default:
		slog.Warn("Unknown chat frame type", "type", frame.Type, "session_id", client.SessionID)
	}
}

func (h *ChatHandler) handleCandidateMessage(client *ws.Client, content string) {
	if strings.TrimSpace(content) == "" {
		h.handleEmptyInput(client)
		return
	}
	client.ResetStrikes()

	client.SendFrame(ws.Frame{Type: "typing", AvatarState: "thinking"})

	result, err := h.dispatcher.SubmitTurn(context.Background(), client.SessionID, content)
	if err != nil {
		h.sendTurnError(client, err)
		return
	}

	h.renderResult(client, result)
}

// handleEmptyInput applies the empty-input policy: a warning for the first
// strikes, session end on the last.
func (h *ChatHandler) handleEmptyInput(client *ws.Client) {
	strikes := client.AddStrike()
	if strikes < maxEmptyStrikes {
		client.SendFrame(ws.Frame{
			Type:    "error",
			Message: "I didn't catch that. Could you try again?",
		})
		return
	}

	slog.Info("Ending session after repeated empty input", "session_id", client.SessionID, "strikes", strikes)
	if err := h.registry.End(context.Background(), client.SessionID, "unresponsive candidate"); err != nil {
		slog.Error("Failed to end unresponsive session", "error", err, "session_id", client.SessionID)
	}
	client.SendFrame(ws.Frame{
		Type:    "session_ended",
		Message: "The session has ended due to repeated empty responses. Please restart when you're ready.",
	})
}

func (h *ChatHandler) handleEnd(client *ws.Client) {
	if err := h.registry.End(context.Background(), client.SessionID, "ended by candidate"); err != nil {
		slog.Error("Failed to end session", "error", err, "session_id", client.SessionID)
	}
	client.SendFrame(ws.Frame{
		Type:    "session_ended",
		Message: "Thank you for your time. Your assessment has been recorded.",
	})
}

func (h *ChatHandler) renderResult(client *ws.Client, result *orchestrator.TurnResult) {
	client.SendFrame(ws.Frame{
		Type:        "response",
		Content:     result.AgentTurn.Content,
		Agent:       result.Agent,
		Stage:       result.Stage.String(),
		IsComplete:  result.Complete,
		AvatarState: "idle",
	})

	if result.StageChanged {
		client.SendFrame(ws.Frame{
			Type:  "stage_change",
			Stage: result.Stage.String(),
		})
	}

	if result.Opening != "" {
		client.SendFrame(ws.Frame{
			Type:        "response",
			Content:     result.Opening,
			Stage:       result.Stage.String(),
			AvatarState: "idle",
		})
	}

	if result.Stage.Terminal() {
		client.SendFrame(ws.Frame{
			Type:    "session_ended",
			Message: "Your assessment is complete. The hiring team will be in touch.",
		})
	}
}

func (h *ChatHandler) sendTurnError(client *ws.Client, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrTurnInProgress):
		client.SendFrame(ws.Frame{Type: "error", Message: "Please wait for the current response to finish."})
	case errors.Is(err, orchestrator.ErrSessionClosed), errors.Is(err, orchestrator.ErrSessionNotFound):
		client.SendFrame(ws.Frame{Type: "session_ended", Message: "This session has ended."})
	case errors.Is(err, orchestrator.ErrEmptyTurn):
		h.handleEmptyInput(client)
	case errors.Is(err, orchestrator.ErrAgentFailure):
		slog.Error("Agent failure on turn", "error", err, "session_id", client.SessionID)
		client.SendFrame(ws.Frame{Type: "error", Message: "I'm having trouble responding right now. Please try again."})
	default:
		slog.Error("Turn failed", "error", err, "session_id", client.SessionID)
		client.SendFrame(ws.Frame{Type: "error", Message: "Something went wrong. Please try again."})
	}
}
