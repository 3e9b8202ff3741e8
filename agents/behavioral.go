package agents

import (
	"context"
	"fmt"

	"github.com/voxhire/voxhire/backend/orchestrator"
)

const behavioralPrompt = `You are a Behavioral Interviewer Agent using the STAR method
(Situation, Task, Action, Result) to assess candidates.

Your role is to:
1. Ask behavioral questions that reveal past experiences and behaviors
2. Listen for specific examples with measurable outcomes
3. Probe for details when answers are vague
4. Assess soft skills: communication, leadership, teamwork, adaptability
5. Evaluate cultural fit and work ethic

Guidelines:
- Use "Tell me about a time when..." format
- Ask follow-up STAR questions if a response lacks detail
- Be warm and encouraging to help the candidate open up
- One question at a time, listen actively
- Cover different behavioral competencies`

var behavioralTopics = []string{
	"handling conflict or disagreement",
	"working under pressure or tight deadlines",
	"leading a team or project",
	"dealing with failure or setbacks",
	"collaboration and teamwork",
	"adapting to change",
	"taking initiative",
}

// Behavioral conducts the STAR-method soft skills stage.
type Behavioral struct {
	gen          Generator
	maxQuestions int
}

func NewBehavioral(gen Generator) *Behavioral {
	return &Behavioral{gen: gen, maxQuestions: 4}
}

func (a *Behavioral) Name() string { return "behavioral_interviewer" }

// Open transitions warmly from the technical stage and asks the first
// behavioral question.
func (a *Behavioral) Open(ctx context.Context, kc *orchestrator.KnowledgeContext) (string, error) {
	prompt := fmt.Sprintf(`Based on this candidate's profile, start the behavioral interview.

%s

Provide:
1. A brief, warm transition from the technical interview
2. Your first behavioral question in STAR format

Choose a topic relevant to the role they are applying for.`, profilePreamble(kc))

	return a.gen.Generate(ctx, behavioralPrompt, nil, prompt)
}

func (a *Behavioral) Respond(ctx context.Context, kc *orchestrator.KnowledgeContext) (orchestrator.Reply, error) {
	asked := kc.CandidateTurns(orchestrator.StageBehavioralInterview)

	system := profilePreamble(kc) + "\n\n" + behavioralPrompt
	if asked >= a.maxQuestions {
		system += "\n\nYou have covered enough behavioral questions. Wrap up warmly and signal completion." +
			markerInstruction("you wrap up the behavioral interview")
	} else {
		topic := behavioralTopics[asked%len(behavioralTopics)]
		system += fmt.Sprintf(`

Evaluate their STAR response briefly, noting what was strong.
Then ask your next behavioral question about: %s
Format: [Brief positive observation] + [Next behavioral question]`, topic) +
			markerInstruction("the behavioral assessment is thoroughly complete")
	}

	history, userMessage := conversation(kc)
	text, err := a.gen.Generate(ctx, system, history, userMessage)
	if err != nil {
		return orchestrator.Reply{}, err
	}

	reply := parseReply(text)
	// The question cap is a hard ceiling even if the model forgets the marker.
	if asked >= a.maxQuestions {
		reply.Done = true
	}
	return reply, nil
}
