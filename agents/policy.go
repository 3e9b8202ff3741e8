package agents

import "github.com/voxhire/voxhire/backend/orchestrator"

// BuildPolicy wires the five stage agents into a stage policy. minTurns is
// the per-stage floor of candidate exchanges required before an agent's
// completion signal is honored; it applies to the conversational stages only.
func BuildPolicy(gen Generator, minTurns int) *orchestrator.Policy {
	policy := orchestrator.NewPolicy()

	policy.Bind(orchestrator.StageProfileAnalysis, orchestrator.StageRule{
		Agent:    NewProfileAnalyzer(gen),
		MinTurns: minTurns,
		ScoreKey: "profile",
		Score: orchestrator.StageScore(orchestrator.StageProfileAnalysis,
			[]string{"experience", "project", "team", "years"}),
	})
	policy.Bind(orchestrator.StageTechnicalInterview, orchestrator.StageRule{
		Agent:    NewTechnical(gen),
		MinTurns: minTurns,
		ScoreKey: "technical",
		Score: orchestrator.StageScore(orchestrator.StageTechnicalInterview,
			[]string{"architecture", "scale", "database", "cache", "latency", "testing", "algorithm"}),
	})
	policy.Bind(orchestrator.StageBehavioralInterview, orchestrator.StageRule{
		Agent:    NewBehavioral(gen),
		MinTurns: minTurns,
		ScoreKey: "behavioral",
		Score: orchestrator.StageScore(orchestrator.StageBehavioralInterview,
			[]string{"situation", "task", "action", "result", "conflict", "deadline", "mentored"}),
	})
	policy.Bind(orchestrator.StageEvaluation, orchestrator.StageRule{
		Agent: NewEvaluation(gen),
	})
	policy.Bind(orchestrator.StageHRHandoff, orchestrator.StageRule{
		Agent: NewHRHandoff(gen),
	})

	return policy
}
