package agents

import (
	"context"
	"fmt"

	"github.com/voxhire/voxhire/backend/orchestrator"
)

const profileAnalyzerPrompt = `You are a Profile Analyzer Agent for an AI-powered candidate assessment platform.
Your role is to:
1. Analyze the candidate's complete profile (LinkedIn, GitHub, Resume)
2. Identify key strengths and potential areas of concern
3. Validate their background briefly before the technical assessment
4. Be professional, thorough, and objective

You are chatting with the candidate directly.

DECISION LOGIC:
1. If the candidate's answer is brief or standard, move on.
2. If the candidate asks a question, answer briefly, then move on.
3. If the answer is very detailed, acknowledge one point, then move on.

Do NOT ask endless profile questions. Maximum 1-2 exchanges.`

// ProfileAnalyzer runs the opening stage: greets the candidate, validates
// their background against the ingested profile, and hands over quickly.
type ProfileAnalyzer struct {
	gen Generator
}

func NewProfileAnalyzer(gen Generator) *ProfileAnalyzer {
	return &ProfileAnalyzer{gen: gen}
}

func (a *ProfileAnalyzer) Name() string { return "profile_analyzer" }

// Open generates the personalized session greeting.
func (a *ProfileAnalyzer) Open(ctx context.Context, kc *orchestrator.KnowledgeContext) (string, error) {
	prompt := fmt.Sprintf(`Generate a personalized welcome for %s.

%s

INSTRUCTIONS:
1. Warmly welcome them to the assessment.
2. Mention one specific impressive detail from their profile.
3. Ask an open-ended icebreaker related to their most recent role.
4. Keep it under 3 sentences. Professional tone.`, kc.CandidateName, profilePreamble(kc))

	return a.gen.Generate(ctx, profileAnalyzerPrompt, nil, prompt)
}

func (a *ProfileAnalyzer) Respond(ctx context.Context, kc *orchestrator.KnowledgeContext) (orchestrator.Reply, error) {
	system := profilePreamble(kc) + "\n\n" + profileAnalyzerPrompt +
		markerInstruction("you are ready to hand the candidate to the technical interviewer")

	history, userMessage := conversation(kc)
	text, err := a.gen.Generate(ctx, system, history, userMessage)
	if err != nil {
		return orchestrator.Reply{}, err
	}
	return parseReply(text), nil
}
