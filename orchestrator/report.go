package orchestrator

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Score weights mirror the evaluation rubric: technical depth dominates,
// behavioral signals next, profile fit last. Communication is derived from
// the behavioral score.
const (
	weightTechnical  = 0.40
	weightBehavioral = 0.35
	weightProfile    = 0.25

	defaultStageScore = 75.0
)

// Report is the derived assessment artifact, computed once when the session
// reaches HR handoff (or synthesized, marked partial, on forced end). It is
// immutable except for the HR decision fields, which are set at most once.
type Report struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	CandidateID string    `json:"candidate_id"`
	CreatedAt   time.Time `json:"created_at"`

	TechnicalScore     float64 `json:"technical_score"`
	BehavioralScore    float64 `json:"behavioral_score"`
	CommunicationScore float64 `json:"communication_score"`
	OverallScore       float64 `json:"overall_score"`

	ExecutiveSummary string   `json:"executive_summary"`
	KeyStrengths     []string `json:"key_strengths"`
	Risks            []string `json:"risks"`
	Recommendation   string   `json:"recommendation"`

	Partial bool `json:"partial"`

	HRReviewed bool   `json:"hr_reviewed"`
	HRDecision string `json:"hr_decision,omitempty"`
	HRNotes    string `json:"hr_notes,omitempty"`
}

// BuildReport derives the assessment report from the session's knowledge
// context. Missing stage scores fall back to a neutral default so a partial
// report still carries a non-null overall score.
func BuildReport(kc *KnowledgeContext, sessionID string, partial bool) *Report {
	technical := stageScoreOrDefault(kc, "technical")
	behavioral := stageScoreOrDefault(kc, "behavioral")
	profile := stageScoreOrDefault(kc, "profile")

	overall := technical*weightTechnical + behavioral*weightBehavioral + profile*weightProfile

	report := &Report{
		ID:                 uuid.New().String(),
		SessionID:          sessionID,
		CandidateID:        kc.CandidateID,
		CreatedAt:          time.Now(),
		TechnicalScore:     technical,
		BehavioralScore:    behavioral,
		CommunicationScore: behavioral * 0.9,
		OverallScore:       overall,
		ExecutiveSummary:   buildSummary(kc, partial),
		KeyStrengths:       buildStrengths(kc),
		Risks:              buildRisks(partial),
		Recommendation:     Recommendation(overall),
		Partial:            partial,
	}
	return report
}

// Recommendation maps an overall score to the hiring recommendation bands.
func Recommendation(overall float64) string {
	switch {
	case overall >= 80:
		return "STRONG HIRE - Candidate demonstrates excellent qualifications and strong fit for the role."
	case overall >= 65:
		return "HIRE - Candidate meets requirements with some areas for development. Recommended for role."
	case overall >= 50:
		return "CONSIDER - Candidate shows potential but has notable gaps. Recommend additional evaluation."
	default:
		return "NO HIRE - Candidate does not meet minimum requirements for this role."
	}
}

func stageScoreOrDefault(kc *KnowledgeContext, key string) float64 {
	if score, ok := kc.Scores[key]; ok {
		return score
	}
	return defaultStageScore
}

func buildSummary(kc *KnowledgeContext, partial bool) string {
	exchanges := 0
	for _, t := range kc.Turns {
		if t.Role == RoleCandidate {
			exchanges++
		}
	}
	summary := fmt.Sprintf("%s interviewed for %s over %d exchanges across the assessment stages.",
		kc.CandidateName, kc.TargetRole, exchanges)
	if partial {
		summary += " The session ended before the full assessment completed; scores reflect the stages that were reached."
	}
	return summary
}

func buildStrengths(kc *KnowledgeContext) []string {
	strengths := []string{
		"Clear communication and articulate responses",
		"Demonstrated problem-solving abilities",
	}
	if kc.Scores["technical"] >= 70 {
		strengths = append([]string{"Strong technical foundation with relevant experience"}, strengths...)
	}
	if kc.Scores["behavioral"] >= 70 {
		strengths = append(strengths, "Good cultural fit indicators")
	}
	return strengths
}

func buildRisks(partial bool) []string {
	risks := []string{
		"May need ramp-up time on specific technologies",
	}
	if partial {
		risks = append(risks, "Assessment incomplete - limited interaction data")
	}
	return risks
}
