package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/voxhire/voxhire/backend/llm"
	"github.com/voxhire/voxhire/backend/orchestrator"
	ws "github.com/voxhire/voxhire/backend/websocket"
)

// VoiceHandler drives the voice transport: audio in, transcription through
// the turn pipeline, synthesized speech out. Empty TTS output is a signal for
// the frontend to fall back to browser speech synthesis.
type VoiceHandler struct {
	dispatcher *orchestrator.Dispatcher
	registry   *orchestrator.Registry
	llmClient  *llm.Client
	tts        *ElevenLabsService
}

func NewVoiceHandler(dispatcher *orchestrator.Dispatcher, registry *orchestrator.Registry, llmClient *llm.Client, tts *ElevenLabsService) *VoiceHandler {
	return &VoiceHandler{
		dispatcher: dispatcher,
		registry:   registry,
		llmClient:  llmClient,
		tts:        tts,
	}
}

func (h *VoiceHandler) HandleConnect(client *ws.Client) {
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

	frame := ws.Frame{
		Type:        "ready",
		Stage:       sess.Stage().String(),
		Content:     greeting,
		AvatarState: "idle",
	}
	if greeting != "" {
		frame.AudioBase64 = h.synthesize(context.Background(), greeting)
		if frame.AudioBase64 != "" {
			frame.AvatarState = "speaking"
		}
	}
	client.SendFrame(frame)
}

func (h *VoiceHandler) HandleClose(client *ws.Client) {
	slog.Info("Voice client disconnected", "session_id", client.SessionID)
}

func (h *VoiceHandler) HandleMessage(client *ws.Client, raw []byte) {
	var frame ws.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		slog.Error("Failed to unmarshal voice frame", "error", err, "session_id", client.SessionID)
		client.SendFrame(ws.Frame{Type: "error", Message: "Malformed message"})
		return
	}

	switch frame.Type {
	case "audio":
		h.handleAudio(client, frame.AudioBase64)
	case "message":
		// Typed fallback on the voice channel goes through the same pipeline.
		h.processTurn(client, frame.Content, "")
	case "end":
		h.handleEnd(client)
	default:
		slog.Warn("Unknown voice frame type", "type", frame.Type, "session_id", client.SessionID)
	}
}

func (h *VoiceHandler) handleAudio(client *ws.Client, audioBase64 string) {
	audioData, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil || len(audioData) == 0 {
		client.SendFrame(ws.Frame{Type: "error", Message: "Could not decode audio"})
		return
	}

	client.SendFrame(ws.Frame{Type: "status", AvatarState: "listening"})

	transcript, err := h.llmClient.Transcribe(context.Background(), audioData, "")
	if err != nil {
		slog.Error("Transcription failed", "error", err, "session_id", client.SessionID)
		client.SendFrame(ws.Frame{Type: "error", Message: "Could not understand the audio. Please try again."})
		return
	}

	if strings.TrimSpace(transcript) == "" {
		h.handleEmptyInput(client)
		return
	}
	client.ResetStrikes()

	client.SendFrame(ws.Frame{Type: "transcription", Text: transcript})

	audioRef := "audio:" + uuid.New().String()
	h.processTurn(client, transcript, audioRef)
}

func (h *VoiceHandler) processTurn(client *ws.Client, transcript, audioRef string) {
	client.SendFrame(ws.Frame{Type: "status", AvatarState: "thinking"})

	result, err := h.dispatcher.SubmitVoiceTurn(context.Background(), client.SessionID, transcript, audioRef)
	if err != nil {
		h.sendTurnError(client, err)
		return
	}

	h.renderResult(client, result)
}

func (h *VoiceHandler) renderResult(client *ws.Client, result *orchestrator.TurnResult) {
	response := ws.Frame{
		Type:        "response",
		Content:     result.AgentTurn.Content,
		Agent:       result.Agent,
		Stage:       result.Stage.String(),
		IsComplete:  result.Complete,
		AvatarState: "idle",
	}
	response.AudioBase64 = h.synthesize(context.Background(), result.AgentTurn.Content)
	if response.AudioBase64 != "" {
		response.AvatarState = "speaking"
	}
	client.SendFrame(response)

	if result.StageChanged {
		client.SendFrame(ws.Frame{
			Type:  "stage_change",
			Stage: result.Stage.String(),
		})
	}

	if result.Opening != "" {
		opening := ws.Frame{
			Type:        "response",
			Content:     result.Opening,
			Stage:       result.Stage.String(),
			AvatarState: "idle",
		}
		opening.AudioBase64 = h.synthesize(context.Background(), result.Opening)
		if opening.AudioBase64 != "" {
			opening.AvatarState = "speaking"
		}
		client.SendFrame(opening)
	}

	if result.Stage.Terminal() {
		client.SendFrame(ws.Frame{
			Type:    "session_ended",
			Message: "Your assessment is complete. The hiring team will be in touch.",
		})
		return
	}

	client.SendFrame(ws.Frame{Type: "status", AvatarState: "idle"})
}

// synthesize returns base64 audio for the text, or empty when TTS is
// unavailable so the frontend falls back to browser speech.
func (h *VoiceHandler) synthesize(ctx context.Context, text string) string {
	if h.tts == nil || text == "" {
		return ""
	}
	audio, err := h.tts.TextToSpeech(ctx, text)
	if err != nil {
		slog.Warn("Text-to-speech failed, falling back to browser speech", "error", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(audio)
}

func (h *VoiceHandler) handleEmptyInput(client *ws.Client) {
	strikes := client.AddStrike()
	if strikes < maxEmptyStrikes {
		client.SendFrame(ws.Frame{
			Type:    "error",
			Message: "I couldn't hear anything. Could you repeat that?",
		})
		return
	}

	slog.Info("Ending voice session after repeated empty input", "session_id", client.SessionID, "strikes", strikes)
	if err := h.registry.End(context.Background(), client.SessionID, "unresponsive candidate"); err != nil {
		slog.Error("Failed to end unresponsive session", "error", err, "session_id", client.SessionID)
	}
	client.SendFrame(ws.Frame{
		Type:    "session_ended",
		Message: "The session has ended due to repeated empty responses. Please restart when you're ready.",
	})
}

func (h *VoiceHandler) handleEnd(client *ws.Client) {
	if err := h.registry.End(context.Background(), client.SessionID, "ended by candidate"); err != nil {
		slog.Error("Failed to end session", "error", err, "session_id", client.SessionID)
	}
	client.SendFrame(ws.Frame{
		Type:    "session_ended",
		Message: "Thank you for your time. Your assessment has been recorded.",
	})
}

func (h *VoiceHandler) sendTurnError(client *ws.Client, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrTurnInProgress):
		client.SendFrame(ws.Frame{Type: "error", Message: "Please wait for the current response to finish."})
	case errors.Is(err, orchestrator.ErrSessionClosed), errors.Is(err, orchestrator.ErrSessionNotFound):
		client.SendFrame(ws.Frame{Type: "session_ended", Message: "This session has ended."})
	case errors.Is(err, orchestrator.ErrEmptyTurn):
		h.handleEmptyInput(client)
	case errors.Is(err, orchestrator.ErrAgentFailure):
		slog.Error("Agent failure on voice turn", "error", err, "session_id", client.SessionID)
		client.SendFrame(ws.Frame{Type: "error", Message: "I'm having trouble responding right now. Please try again."})
	default:
		slog.Error("Voice turn failed", "error", err, "session_id", client.SessionID)
		client.SendFrame(ws.Frame{Type: "error", Message: "Something went wrong. Please try again."})
	}
}
