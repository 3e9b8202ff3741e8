package orchestrator

import (
	"fmt"
	"strings"
)

// ScoreFunc produces a stage's scoring contribution from the knowledge
// context accumulated when the stage completes.
type ScoreFunc func(kc *KnowledgeContext) float64

// StageRule binds a stage to its agent, its completion floor, and its scoring
// contribution. MinTurns is the number of candidate turns required in the
// stage before the agent's completion signal is honored; the default of zero
// lets an agent complete its stage on the very first reply.
type StageRule struct {
	Agent    Agent
	MinTurns int
	ScoreKey string
	Score    ScoreFunc
}

// Policy is the table-driven stage policy: stage -> (agent binding,
// completion predicate, scoring contribution).
type Policy struct {
	rules map[Stage]StageRule
}

func NewPolicy() *Policy {
	return &Policy{rules: make(map[Stage]StageRule)}
}

// Bind installs the rule for a stage, replacing any previous binding.
func (p *Policy) Bind(stage Stage, rule StageRule) {
	p.rules[stage] = rule
}

// Rule returns the binding for a stage.
func (p *Policy) Rule(stage Stage) (StageRule, error) {
	rule, ok := p.rules[stage]
	if !ok {
		return StageRule{}, fmt.Errorf("%w: no rule bound for stage %s", ErrInvalidTransition, stage)
	}
	return rule, nil
}

// Complete evaluates the stage's completion predicate: the agent signalled
// done and the minimum-exchange floor (if any) has been met.
func (p *Policy) Complete(stage Stage, reply Reply, kc *KnowledgeContext) bool {
	if !reply.Done {
		return false
	}
	rule, ok := p.rules[stage]
	if !ok {
		return true
	}
	return kc.CandidateTurns(stage) >= rule.MinTurns
}

// StageScore builds a heuristic scorer for a stage: a base score adjusted for
// engagement and keyword signals in the candidate's contributions, capped
// below a perfect score.
func StageScore(stage Stage, keywords []string) ScoreFunc {
	return func(kc *KnowledgeContext) float64 {
		content := strings.ToLower(kc.StageContent(stage))
		score := 60.0
		if len(content) > 200 {
			score += 10.0
		}
		for _, kw := range []string{"good", "strong", "built", "designed", "led", "improved"} {
			if strings.Contains(content, kw) {
				score += 2.0
			}
		}
		for _, kw := range keywords {
			if strings.Contains(content, strings.ToLower(kw)) {
				score += 3.0
			}
		}
		if score > 95.0 {
			score = 95.0
		}
		return score
	}
}
