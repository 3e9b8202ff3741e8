package orchestrator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReportScores(t *testing.T) {
	kc := &KnowledgeContext{
		CandidateID:   "cand-1",
		CandidateName: "Jordan",
		TargetRole:    "Backend Engineer",
		Scores: map[string]float64{
			"profile":    70,
			"technical":  90,
			"behavioral": 80,
		},
	}

	report := BuildReport(kc, "sess-1", false)
	require.NotNil(t, report)

	assert.Equal(t, "cand-1", report.CandidateID)
	assert.Equal(t, "sess-1", report.SessionID)
	assert.InDelta(t, 90*0.40+80*0.35+70*0.25, report.OverallScore, 0.001)
	assert.InDelta(t, 80*0.9, report.CommunicationScore, 0.001)
	assert.False(t, report.Partial)
	assert.NotEmpty(t, report.ID)
}

func TestBuildReportDefaultsMissingScores(t *testing.T) {
	kc := &KnowledgeContext{CandidateID: "cand-2", Scores: map[string]float64{}}

	report := BuildReport(kc, "sess-2", true)
	assert.Equal(t, 75.0, report.TechnicalScore)
	assert.Equal(t, 75.0, report.BehavioralScore)
	assert.InDelta(t, 75.0, report.OverallScore, 0.001)
	assert.True(t, report.Partial)
	assert.Contains(t, report.ExecutiveSummary, "ended before")
}

func TestRecommendationBands(t *testing.T) {
	tests := []struct {
		overall float64
		want    string
	}{
		{95, "STRONG HIRE"},
		{80, "STRONG HIRE"},
		{79.9, "HIRE"},
		{65, "HIRE"},
		{64.9, "CONSIDER"},
		{50, "CONSIDER"},
		{49.9, "NO HIRE"},
		{10, "NO HIRE"},
	}

	for _, tt := range tests {
		got := Recommendation(tt.overall)
		assert.True(t, strings.HasPrefix(got, tt.want), "overall %.1f: got %q, want prefix %q", tt.overall, got, tt.want)
	}
}

func TestBuildReportPartialRisks(t *testing.T) {
	kc := &KnowledgeContext{Scores: map[string]float64{}}

	full := BuildReport(kc, "s", false)
	partial := BuildReport(kc, "s", true)
	assert.Greater(t, len(partial.Risks), len(full.Risks))
}
