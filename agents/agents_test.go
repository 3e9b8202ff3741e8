package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhire/voxhire/backend/llm"
	"github.com/voxhire/voxhire/backend/orchestrator"
)

// stubGenerator returns a canned response and records the last call.
type stubGenerator struct {
	response    string
	err         error
	lastSystem  string
	lastHistory []llm.Message
	lastMessage string
}

func (s *stubGenerator) Generate(ctx context.Context, system string, history []llm.Message, userMessage string) (string, error) {
	s.lastSystem = system
	s.lastHistory = history
	s.lastMessage = userMessage
	return s.response, s.err
}

func testContext(stage orchestrator.Stage, turns []orchestrator.Turn) *orchestrator.KnowledgeContext {
	return &orchestrator.KnowledgeContext{
		CandidateID:    "cand-1",
		CandidateName:  "Jordan",
		TargetRole:     "Backend Engineer",
		ProfileSummary: "8 years of distributed systems.",
		Stage:          stage,
		Turns:          turns,
		Scores:         map[string]float64{},
	}
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantText string
		wantDone bool
	}{
		{"no marker", "Tell me about your last project.", "Tell me about your last project.", false},
		{"marker at end", "Great, moving on. [TRANSITION]", "Great, moving on.", true},
		{"marker mid-text", "Done here [TRANSITION] thanks.", "Done here  thanks.", true},
		{"marker only", "[TRANSITION]", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := parseReply(tt.input)
			assert.Equal(t, tt.wantText, reply.Text)
			assert.Equal(t, tt.wantDone, reply.Done)
		})
	}
}

func TestConversationSplit(t *testing.T) {
	turns := []orchestrator.Turn{
		{Seq: 0, Role: orchestrator.RoleCandidate, Content: "hi"},
		{Seq: 1, Role: orchestrator.RoleAgent, Content: "welcome"},
		{Seq: 2, Role: orchestrator.RoleCandidate, Content: "my answer"},
	}
	kc := testContext(orchestrator.StageProfileAnalysis, turns)

	history, userMessage := conversation(kc)
	assert.Equal(t, "my answer", userMessage)
	require.Len(t, history, 2)
	assert.Equal(t, "candidate", history[0].Role)
	assert.Equal(t, "agent", history[1].Role)
}

func TestProfileAnalyzerTransition(t *testing.T) {
	gen := &stubGenerator{response: "Thanks for the context. Let's dive into technical. [TRANSITION]"}
	agent := NewProfileAnalyzer(gen)

	reply, err := agent.Respond(context.Background(), testContext(orchestrator.StageProfileAnalysis, []orchestrator.Turn{
		{Seq: 0, Role: orchestrator.RoleCandidate, Stage: orchestrator.StageProfileAnalysis, Content: "I led the payments migration."},
	}))
	require.NoError(t, err)

	assert.True(t, reply.Done)
	assert.NotContains(t, reply.Text, "[TRANSITION]")
	assert.Contains(t, gen.lastSystem, "CANDIDATE PROFILE")
	assert.Equal(t, "I led the payments migration.", gen.lastMessage)
}

func TestTechnicalForcesWrapUpAtQuestionCap(t *testing.T) {
	gen := &stubGenerator{response: "That covers it. [TRANSITION]"}
	agent := NewTechnical(gen)

	var turns []orchestrator.Turn
	for i := 0; i < 4; i++ {
		turns = append(turns,
			orchestrator.Turn{Seq: len(turns), Role: orchestrator.RoleCandidate, Stage: orchestrator.StageTechnicalInterview, Content: "answer"},
			orchestrator.Turn{Seq: len(turns) + 1, Role: orchestrator.RoleAgent, Stage: orchestrator.StageTechnicalInterview, Content: "question"},
		)
	}

	reply, err := agent.Respond(context.Background(), testContext(orchestrator.StageTechnicalInterview, turns))
	require.NoError(t, err)
	assert.True(t, reply.Done)
	assert.Contains(t, gen.lastSystem, "final technical interaction")
}

func TestBehavioralHardCapForcesCompletion(t *testing.T) {
	// Model forgets the marker; the cap still completes the stage.
	gen := &stubGenerator{response: "Thanks for sharing all those stories."}
	agent := NewBehavioral(gen)

	var turns []orchestrator.Turn
	for i := 0; i < 4; i++ {
		turns = append(turns, orchestrator.Turn{
			Seq: i, Role: orchestrator.RoleCandidate,
			Stage: orchestrator.StageBehavioralInterview, Content: "a story",
		})
	}

	reply, err := agent.Respond(context.Background(), testContext(orchestrator.StageBehavioralInterview, turns))
	require.NoError(t, err)
	assert.True(t, reply.Done)
}

func TestEvaluationAlwaysCompletes(t *testing.T) {
	gen := &stubGenerator{response: "Thank you, your assessment is being compiled."}
	agent := NewEvaluation(gen)

	reply, err := agent.Respond(context.Background(), testContext(orchestrator.StageEvaluation, nil))
	require.NoError(t, err)
	assert.True(t, reply.Done)
}

func TestBuildPolicyBindsEveryStage(t *testing.T) {
	gen := &stubGenerator{response: "ok"}
	policy := BuildPolicy(gen, 1)

	for _, stage := range []orchestrator.Stage{
		orchestrator.StageProfileAnalysis,
		orchestrator.StageTechnicalInterview,
		orchestrator.StageBehavioralInterview,
		orchestrator.StageEvaluation,
		orchestrator.StageHRHandoff,
	} {
		rule, err := policy.Rule(stage)
		require.NoError(t, err, "stage %s", stage)
		assert.NotNil(t, rule.Agent)
	}

	_, err := policy.Rule(orchestrator.StageClosed)
	assert.Error(t, err)
}
