package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the in-memory state of one live assessment. All mutable state is
// guarded by mu; the turn semaphore serializes whole turns so that at most one
// candidate input is in flight per session.
type Session struct {
	ID          string
	CandidateID string
	Modality    Modality

	seed    ProfileSeed
	turnSem chan struct{}

	mu           sync.RWMutex
	stage        Stage
	turns        []Turn
	scores       map[string]float64
	report       *Report
	closeReason  string
	createdAt    time.Time
	lastActivity time.Time
}

func newSession(seed ProfileSeed, modality Modality) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.New().String(),
		CandidateID:  seed.CandidateID,
		Modality:     modality,
		seed:         seed,
		turnSem:      make(chan struct{}, 1),
		stage:        StageProfileAnalysis,
		scores:       make(map[string]float64),
		createdAt:    now,
		lastActivity: now,
	}
}

func (s *Session) Stage() Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stage
}

func (s *Session) Closed() bool {
	return s.Stage() == StageClosed
}

func (s *Session) Report() *Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

func (s *Session) CloseReason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closeReason
}

func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// Touch records candidate activity for idle-timeout purposes.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

func (s *Session) TurnCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Turns returns a copy of the session history.
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Snapshot builds the knowledge context handed to an agent call: a value copy
// of everything the agent may read, so the call holds no session lock.
func (s *Session) Snapshot() *KnowledgeContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	scores := make(map[string]float64, len(s.scores))
	for k, v := range s.scores {
		scores[k] = v
	}
	return &KnowledgeContext{
		CandidateID:    s.seed.CandidateID,
		CandidateName:  s.seed.Name,
		TargetRole:     s.seed.TargetRole,
		ProfileSummary: s.seed.Summary,
		Stage:          s.stage,
		Turns:          turns,
		Scores:         scores,
	}
}

// acquireTurn takes the session's turn semaphore. Under the queue policy the
// caller blocks until the in-flight turn finishes or ctx is done; under the
// reject policy a busy session fails fast with ErrTurnInProgress.
func (s *Session) acquireTurn(ctx context.Context, policy QueuePolicy) error {
	if policy == QueueReject {
		select {
		case s.turnSem <- struct{}{}:
			return nil
		default:
			return ErrTurnInProgress
		}
	}
	select {
	case s.turnSem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) releaseTurn() {
	<-s.turnSem
}

// appendTurn commits a turn to the history, assigning the next sequence
// number. Sequence numbers are gapless because appends only happen while the
// turn semaphore is held. The stage check and the append share one lock
// acquisition so a force-close can never land between them: a closed
// session refuses the append and the caller discards the content.
func (s *Session) appendTurn(role TurnRole, content, audioRef string) (Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage == StageClosed {
		return Turn{}, false
	}
	t := Turn{
		Seq:      len(s.turns),
		Role:     role,
		Stage:    s.stage,
		Content:  content,
		AudioRef: audioRef,
		At:       time.Now(),
	}
	s.turns = append(s.turns, t)
	return t, true
}

func (s *Session) addScore(key string, value float64) {
	s.mu.Lock()
	s.scores[key] = value
	s.mu.Unlock()
}

// advance applies the transition function under the session lock and reports
// the stage pair so the caller can react to a change.
func (s *Session) advance(complete bool) (from, to Stage, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from = s.stage
	to, err = Advance(from, complete)
	if err != nil {
		return from, from, err
	}
	s.stage = to
	return from, to, nil
}

func (s *Session) setCloseReason(reason string) {
	s.mu.Lock()
	s.closeReason = reason
	s.mu.Unlock()
}

func (s *Session) setReport(r *Report) {
	s.mu.Lock()
	s.report = r
	s.mu.Unlock()
}

// forceClose moves the session to Closed regardless of its current stage. If
// no report exists yet a partial one is synthesized so every closed session
// carries a report. Returns the partial report created (nil if one already
// existed) and whether any state changed; closing a closed session is a no-op.
func (s *Session) forceClose(reason string) (*Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage == StageClosed {
		return nil, false
	}

	var created *Report
	if s.report == nil {
		turns := make([]Turn, len(s.turns))
		copy(turns, s.turns)
		scores := make(map[string]float64, len(s.scores))
		for k, v := range s.scores {
			scores[k] = v
		}
		kc := &KnowledgeContext{
			CandidateID:    s.seed.CandidateID,
			CandidateName:  s.seed.Name,
			TargetRole:     s.seed.TargetRole,
			ProfileSummary: s.seed.Summary,
			Stage:          s.stage,
			Turns:          turns,
			Scores:         scores,
		}
		created = BuildReport(kc, s.ID, true)
		s.report = created
	}

	s.stage = StageClosed
	s.closeReason = reason
	return created, true
}
