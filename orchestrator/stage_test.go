package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance(t *testing.T) {
	tests := []struct {
		name     string
		current  Stage
		complete bool
		want     Stage
		wantErr  bool
	}{
		{"incomplete stays put", StageProfileAnalysis, false, StageProfileAnalysis, false},
		{"profile to technical", StageProfileAnalysis, true, StageTechnicalInterview, false},
		{"technical to behavioral", StageTechnicalInterview, true, StageBehavioralInterview, false},
		{"behavioral to evaluation", StageBehavioralInterview, true, StageEvaluation, false},
		{"evaluation to hr handoff", StageEvaluation, true, StageHRHandoff, false},
		{"hr handoff to closed", StageHRHandoff, true, StageClosed, false},
		{"closed rejects advance", StageClosed, true, StageClosed, true},
		{"closed rejects even incomplete", StageClosed, false, StageClosed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Advance(tt.current, tt.complete)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdvanceIsPure(t *testing.T) {
	// Same inputs always yield the same output.
	for i := 0; i < 5; i++ {
		got, err := Advance(StageTechnicalInterview, true)
		require.NoError(t, err)
		assert.Equal(t, StageBehavioralInterview, got)
	}
}

func TestParseStage(t *testing.T) {
	for stage, name := range stageNames {
		parsed, err := ParseStage(name)
		require.NoError(t, err)
		assert.Equal(t, stage, parsed)
	}

	_, err := ParseStage("waterfall")
	assert.Error(t, err)
}

func TestStageTerminal(t *testing.T) {
	assert.False(t, StageProfileAnalysis.Terminal())
	assert.False(t, StageHRHandoff.Terminal())
	assert.True(t, StageClosed.Terminal())
}
