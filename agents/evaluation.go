package agents

import (
	"context"
	"fmt"

	"github.com/voxhire/voxhire/backend/orchestrator"
)

const evaluationPrompt = `You are an Evaluation Agent responsible for closing out candidate assessments.

Your role is to:
1. Synthesize the interview into a cohesive closing message for the candidate
2. Thank them for their time without revealing scores or verdicts
3. Explain that their assessment is being prepared for human review
4. Be fair, balanced, and professional`

// Evaluation closes out the interview phase. A single reply always completes
// the stage; the report itself is derived by the engine, not by the model.
type Evaluation struct {
	gen Generator
}

func NewEvaluation(gen Generator) *Evaluation {
	return &Evaluation{gen: gen}
}

func (a *Evaluation) Name() string { return "evaluation" }

func (a *Evaluation) Respond(ctx context.Context, kc *orchestrator.KnowledgeContext) (orchestrator.Reply, error) {
	system := profilePreamble(kc) + "\n\n" + evaluationPrompt

	prompt := fmt.Sprintf(`The interview phase is over after %d exchanged messages.
Write a short closing message for %s: thank them, tell them their assessment
is being compiled for the hiring team, and that they will hear back soon.
Do not reveal any scores or decisions. 2-3 sentences.`, len(kc.Turns), kc.CandidateName)

	history, _ := conversation(kc)
	text, err := a.gen.Generate(ctx, system, history, prompt)
	if err != nil {
		return orchestrator.Reply{}, err
	}
	return orchestrator.Reply{Text: parseReply(text).Text, Done: true}, nil
}
