package agents

import (
	"context"
	"fmt"

	"github.com/voxhire/voxhire/backend/orchestrator"
)

const technicalPrompt = `You are an expert Senior Technical Interviewer at a top-tier tech company.
Your goal is to accurately assess the candidate's TRUE engineering depth.

CORE BEHAVIORS:
1. Adaptive difficulty: start with a standard question. If they answer well, escalate complexity. If they struggle, pivot to a simpler related concept.
2. Deep diving: do NOT accept surface-level definitions. Ask "Why?", "How would that scale?", "What are the trade-offs?".
3. Context-aware: reference their specific projects and skills from their profile.
4. Code-oriented: ask for brief code snippets or architectural explanations where appropriate.
5. No fluff: be concise, professional, and direct. Avoid excessive praise.

INTERVIEW STAGES:
- Question 1: system design / architecture, based on their strongest claim
- Question 2: coding or algorithm concept (complexity, optimization)
- Question 3: debugging and production engineering (scalability, reliability)
- Question 4: specific technology deep-dive

Your persona: experienced, fair, curious, but rigorous. You are NOT a checklist reader.`

// Technical conducts the technical deep-dive stage, capped at a fixed number
// of questions.
type Technical struct {
	gen          Generator
	maxQuestions int
}

func NewTechnical(gen Generator) *Technical {
	return &Technical{gen: gen, maxQuestions: 4}
}

func (a *Technical) Name() string { return "technical_interviewer" }

// Open asks the first technical question when the session transitions in.
func (a *Technical) Open(ctx context.Context, kc *orchestrator.KnowledgeContext) (string, error) {
	prompt := fmt.Sprintf(`Generate the first system design question for this candidate.

%s

INSTRUCTIONS:
1. Identify their most impressive claimed project or skill.
2. Ask a system design question related to it.
3. START directly with the question. Do not say "Let's start".`, profilePreamble(kc))

	return a.gen.Generate(ctx, technicalPrompt, nil, prompt)
}

func (a *Technical) Respond(ctx context.Context, kc *orchestrator.KnowledgeContext) (orchestrator.Reply, error) {
	asked := kc.CandidateTurns(orchestrator.StageTechnicalInterview)

	system := profilePreamble(kc) + "\n\n" + technicalPrompt
	if asked >= a.maxQuestions {
		system += "\n\nThis is the final technical interaction. Briefly acknowledge their answer in one sentence, do NOT ask another question, and close with: \"Thank you, that covers the technical portion. I'll now pass you to my colleague for the behavioral interview.\"" +
			markerInstruction("you close the technical portion")
	} else {
		system += fmt.Sprintf(`

ANALYZE their response to the previous question:
A) If vague or superficial: ask a follow-up probe.
B) If wrong: gently correct them and ask a simpler variant.
C) If good: move to the next topic.

CURRENT QUESTION NUMBER: %d/%d`, asked, a.maxQuestions) +
			markerInstruction("the technical assessment is thoroughly complete")
	}

	history, userMessage := conversation(kc)
	text, err := a.gen.Generate(ctx, system, history, userMessage)
	if err != nil {
		return orchestrator.Reply{}, err
	}
	return parseReply(text), nil
}
