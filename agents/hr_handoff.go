package agents

import (
	"context"
	"fmt"

	"github.com/voxhire/voxhire/backend/orchestrator"
)

const hrHandoffPrompt = `You are an HR Handoff Agent responsible for:
1. Answering the candidate's final logistical questions briefly
2. Confirming that their assessment has been handed to the HR team
3. Managing the handoff from automated assessment to human review

You ensure a smooth transition from AI assessment to human decision-making.
Never reveal scores, recommendations, or report contents.`

// HRHandoff is the terminal conversational stage. Any reply completes it and
// closes the session; the report was already built when this stage began.
type HRHandoff struct {
	gen Generator
}

func NewHRHandoff(gen Generator) *HRHandoff {
	return &HRHandoff{gen: gen}
}

func (a *HRHandoff) Name() string { return "hr_handoff" }

func (a *HRHandoff) Respond(ctx context.Context, kc *orchestrator.KnowledgeContext) (orchestrator.Reply, error) {
	system := profilePreamble(kc) + "\n\n" + hrHandoffPrompt

	prompt := fmt.Sprintf(`Respond to %s's final message, confirm the handoff to
the HR team is complete, and say goodbye. 1-2 sentences.`, kc.CandidateName)

	history, userMessage := conversation(kc)
	if userMessage != "" {
		prompt = userMessage + "\n\n" + prompt
	}
	text, err := a.gen.Generate(ctx, system, history, prompt)
	if err != nil {
		return orchestrator.Reply{}, err
	}
	return orchestrator.Reply{Text: parseReply(text).Text, Done: true}, nil
}
