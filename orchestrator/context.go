package orchestrator

import "time"

// TurnRole identifies who produced a turn.
type TurnRole string

const (
	RoleCandidate TurnRole = "candidate"
	RoleAgent     TurnRole = "agent"
)

// Modality is the delivery channel of a session.
type Modality string

const (
	ModalityChat  Modality = "chat"
	ModalityVoice Modality = "voice"
)

// Turn is one immutable, sequenced message in a session's history. Sequence
// numbers are gapless and strictly increasing per session. Voice turns carry
// a reference to the raw audio payload alongside the transcription.
type Turn struct {
	Seq      int       `json:"seq"`
	Role     TurnRole  `json:"role"`
	Stage    Stage     `json:"-"`
	Content  string    `json:"content"`
	AudioRef string    `json:"audio_ref,omitempty"`
	At       time.Time `json:"at"`
}

// ProfileSeed is the candidate context handed over by the ingestion
// subsystem. The orchestrator never re-fetches or mutates it.
type ProfileSeed struct {
	CandidateID string
	Name        string
	TargetRole  string
	Summary     string
}

// KnowledgeContext is the accumulated per-session knowledge passed to each
// agent call: the profile seed, the turn history so far, and the scratch
// scores contributed by finished stages. Snapshots are value copies; an agent
// call never observes concurrent mutation.
type KnowledgeContext struct {
	CandidateID    string
	CandidateName  string
	TargetRole     string
	ProfileSummary string
	Stage          Stage
	Turns          []Turn
	Scores         map[string]float64
}

// CandidateTurns counts the candidate's turns produced while in the given
// stage. Used by the stage policy's minimum-exchange floor.
func (kc *KnowledgeContext) CandidateTurns(stage Stage) int {
	n := 0
	for _, t := range kc.Turns {
		if t.Role == RoleCandidate && t.Stage == stage {
			n++
		}
	}
	return n
}

// Recent returns the last n turns, oldest first.
func (kc *KnowledgeContext) Recent(n int) []Turn {
	if len(kc.Turns) <= n {
		return kc.Turns
	}
	return kc.Turns[len(kc.Turns)-n:]
}

// StageContent concatenates the candidate's contributions in a stage. Used by
// the heuristic stage scorers.
func (kc *KnowledgeContext) StageContent(stage Stage) string {
	var out string
	for _, t := range kc.Turns {
		if t.Role == RoleCandidate && t.Stage == stage {
			if out != "" {
				out += "\n"
			}
			out += t.Content
		}
	}
	return out
}
