package orchestrator

import "fmt"

// Stage is one phase of the interview state machine. Stages form a strict
// linear progression with no back-edges; Closed is terminal.
type Stage int

const (
	StageProfileAnalysis Stage = iota
	StageTechnicalInterview
	StageBehavioralInterview
	StageEvaluation
	StageHRHandoff
	StageClosed
)

var stageNames = map[Stage]string{
	StageProfileAnalysis:     "profile_analysis",
	StageTechnicalInterview:  "technical_interview",
	StageBehavioralInterview: "behavioral_interview",
	StageEvaluation:          "evaluation",
	StageHRHandoff:           "hr_handoff",
	StageClosed:              "closed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Terminal reports whether the stage accepts no further turns.
func (s Stage) Terminal() bool {
	return s == StageClosed
}

// ParseStage converts a stored stage name back to its Stage value.
func ParseStage(name string) (Stage, error) {
	for stage, n := range stageNames {
		if n == name {
			return stage, nil
		}
	}
	return StageClosed, fmt.Errorf("unknown stage %q", name)
}

// Advance is the state machine's transition function. It is a pure function
// of the current stage and the completion signal: a true signal moves to the
// next stage in the fixed order (HRHandoff completes into Closed), a false
// signal stays put. Advancing a closed session is a policy bug.
func Advance(current Stage, complete bool) (Stage, error) {
	if current == StageClosed {
		return StageClosed, fmt.Errorf("%w: advance from closed", ErrInvalidTransition)
	}
	if !complete {
		return current, nil
	}
	return current + 1, nil
}
