package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopAgent struct{ name string }

func (a nopAgent) Name() string { return a.name }
func (a nopAgent) Respond(ctx context.Context, kc *KnowledgeContext) (Reply, error) {
	return Reply{}, nil
}

func contextWithCandidateTurns(stage Stage, n int) *KnowledgeContext {
	kc := &KnowledgeContext{Stage: stage, Scores: map[string]float64{}}
	for i := 0; i < n; i++ {
		kc.Turns = append(kc.Turns,
			Turn{Seq: len(kc.Turns), Role: RoleCandidate, Stage: stage, Content: "answer"},
			Turn{Seq: len(kc.Turns) + 1, Role: RoleAgent, Stage: stage, Content: "question"},
		)
	}
	return kc
}

func TestPolicyComplete(t *testing.T) {
	policy := NewPolicy()
	policy.Bind(StageTechnicalInterview, StageRule{Agent: nopAgent{"tech"}, MinTurns: 2})

	tests := []struct {
		name  string
		reply Reply
		turns int
		want  bool
	}{
		{"done but below floor", Reply{Done: true}, 1, false},
		{"done at floor", Reply{Done: true}, 2, true},
		{"done above floor", Reply{Done: true}, 5, true},
		{"not done above floor", Reply{Done: false}, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kc := contextWithCandidateTurns(StageTechnicalInterview, tt.turns)
			assert.Equal(t, tt.want, policy.Complete(StageTechnicalInterview, tt.reply, kc))
		})
	}
}

func TestPolicyRuleUnbound(t *testing.T) {
	policy := NewPolicy()
	_, err := policy.Rule(StageEvaluation)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStageScore(t *testing.T) {
	score := StageScore(StageTechnicalInterview, []string{"cache", "latency"})

	t.Run("sparse answer gets base score", func(t *testing.T) {
		kc := &KnowledgeContext{Turns: []Turn{
			{Role: RoleCandidate, Stage: StageTechnicalInterview, Content: "yes"},
		}}
		assert.Equal(t, 60.0, score(kc))
	})

	t.Run("detailed answer with keywords scores higher", func(t *testing.T) {
		kc := &KnowledgeContext{Turns: []Turn{
			{Role: RoleCandidate, Stage: StageTechnicalInterview, Content: "I designed and built a strong caching layer. We used a cache in front of the primary store to cut latency, which improved throughput significantly and led to a good outcome for the whole team across several quarters of iteration."},
		}}
		got := score(kc)
		require.Greater(t, got, 60.0)
		assert.LessOrEqual(t, got, 95.0)
	})

	t.Run("other stages do not contribute", func(t *testing.T) {
		kc := &KnowledgeContext{Turns: []Turn{
			{Role: RoleCandidate, Stage: StageBehavioralInterview, Content: "cache latency built designed led improved"},
		}}
		assert.Equal(t, 60.0, score(kc))
	})
}
