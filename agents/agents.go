// Package agents implements the interview agents bound to each assessment
// stage. Every agent is a thin prompt wrapper over the shared LLM client; the
// orchestrator decides when a stage is complete from the agent's reply signal.
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/voxhire/voxhire/backend/llm"
	"github.com/voxhire/voxhire/backend/orchestrator"
)

// Generator is the LLM surface the agents depend on. Satisfied by llm.Client;
// tests substitute scripted generators.
type Generator interface {
	Generate(ctx context.Context, system string, history []llm.Message, userMessage string) (string, error)
}

const historyWindow = 10

// transitionMarker is the in-band completion signal an agent embeds in its
// reply when its stage is done. It is stripped before the reply reaches the
// candidate.
const transitionMarker = "[TRANSITION]"

// parseReply strips the transition marker and reports whether it was present.
func parseReply(text string) orchestrator.Reply {
	done := strings.Contains(text, transitionMarker)
	clean := strings.TrimSpace(strings.ReplaceAll(text, transitionMarker, ""))
	return orchestrator.Reply{Text: clean, Done: done}
}

// conversation splits the knowledge context's recent turns into the history
// window and the latest candidate message.
func conversation(kc *orchestrator.KnowledgeContext) ([]llm.Message, string) {
	recent := kc.Recent(historyWindow)
	if len(recent) == 0 {
		return nil, ""
	}

	last := recent[len(recent)-1]
	userMessage := ""
	if last.Role == orchestrator.RoleCandidate {
		userMessage = last.Content
		recent = recent[:len(recent)-1]
	}

	history := make([]llm.Message, 0, len(recent))
	for _, t := range recent {
		role := "candidate"
		if t.Role == orchestrator.RoleAgent {
			role = "agent"
		}
		history = append(history, llm.Message{Role: role, Content: t.Content})
	}
	return history, userMessage
}

// profilePreamble renders the candidate context block prepended to every
// agent's system instruction.
func profilePreamble(kc *orchestrator.KnowledgeContext) string {
	return fmt.Sprintf("CANDIDATE PROFILE\nName: %s\nTarget Role: %s\n\n%s",
		kc.CandidateName, kc.TargetRole, kc.ProfileSummary)
}

// markerInstruction tells the model how to signal stage completion.
func markerInstruction(condition string) string {
	return fmt.Sprintf("\n\nWhen %s, end your reply with the exact token %s. Never mention the token otherwise.",
		condition, transitionMarker)
}
