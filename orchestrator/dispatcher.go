package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// QueuePolicy controls what happens when a candidate submits input while a
// previous turn is still in flight on the same session.
type QueuePolicy string

const (
	// QueueWait blocks the new submission until the in-flight turn finishes.
	QueueWait QueuePolicy = "queue"
	// QueueReject fails the new submission immediately with ErrTurnInProgress.
	QueueReject QueuePolicy = "reject"
)

// Config holds the dispatcher tunables.
type Config struct {
	// AgentTimeout bounds each individual agent call attempt.
	AgentTimeout time.Duration
	// AgentRetries is the total number of attempts per agent call.
	AgentRetries int
	// QueuePolicy selects queue-or-reject behavior for concurrent submissions.
	QueuePolicy QueuePolicy
}

func (c Config) withDefaults() Config {
	if c.AgentTimeout <= 0 {
		c.AgentTimeout = 30 * time.Second
	}
	if c.AgentRetries <= 0 {
		c.AgentRetries = 3
	}
	if c.QueuePolicy != QueueReject {
		c.QueuePolicy = QueueWait
	}
	return c
}

// TurnResult is everything a transport needs to render one completed turn.
type TurnResult struct {
	Session       string
	CandidateTurn Turn
	AgentTurn     Turn
	Agent         string
	Stage         Stage
	StageChanged  bool
	Complete      bool
	// Opening is the next stage agent's opening question, set only when the
	// turn caused a transition into a stage whose agent introduces itself.
	Opening string
	// Report is set when this turn produced the assessment report.
	Report *Report
}

// Dispatcher runs the turn pipeline: admit input, commit the candidate turn,
// call the stage agent against a snapshot, commit the reply, and apply the
// stage policy. One dispatcher serves all sessions.
type Dispatcher struct {
	registry *Registry
	policy   *Policy
	store    Store
	cfg      Config
}

func NewDispatcher(registry *Registry, policy *Policy, store Store, cfg Config) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		policy:   policy,
		store:    store,
		cfg:      cfg.withDefaults(),
	}
}

// SubmitTurn processes one candidate chat input end to end.
func (d *Dispatcher) SubmitTurn(ctx context.Context, sessionID, content string) (*TurnResult, error) {
	return d.submit(ctx, sessionID, content, "")
}

// SubmitVoiceTurn processes one transcribed voice input, keeping a reference
// to the audio payload on the committed turn.
func (d *Dispatcher) SubmitVoiceTurn(ctx context.Context, sessionID, transcript, audioRef string) (*TurnResult, error) {
	return d.submit(ctx, sessionID, transcript, audioRef)
}

func (d *Dispatcher) submit(ctx context.Context, sessionID, content, audioRef string) (*TurnResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyTurn
	}

	sess, err := d.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sess.acquireTurn(ctx, d.cfg.QueuePolicy); err != nil {
		return nil, err
	}
	defer sess.releaseTurn()

	// Re-check after acquiring: the session may have been closed while this
	// submission waited in the queue.
	if sess.Closed() {
		return nil, fmt.Errorf("%w: %s", ErrSessionClosed, sessionID)
	}
	sess.Touch()

	stage := sess.Stage()
	rule, err := d.policy.Rule(stage)
	if err != nil {
		return nil, d.failSession(ctx, sess, err)
	}

	candidateTurn, ok := sess.appendTurn(RoleCandidate, content, audioRef)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionClosed, sessionID)
	}
	d.saveTurn(ctx, sess.ID, candidateTurn)

	kc := sess.Snapshot()
	reply, err := d.callAgent(ctx, rule.Agent, kc)
	if err != nil {
		return nil, err
	}

	// The registry may have force-closed the session while the agent call ran
	// (idle sweep, explicit end). A closed session refuses the append, the
	// reply is discarded, and the partial report already reflects the history
	// up to the candidate turn.
	agentTurn, ok := sess.appendTurn(RoleAgent, reply.Text, "")
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionClosed, sessionID)
	}
	d.saveTurn(ctx, sess.ID, agentTurn)

	complete := d.policy.Complete(stage, reply, sess.Snapshot())
	from, to, err := sess.advance(complete)
	if err != nil {
		return nil, d.failSession(ctx, sess, err)
	}

	result := &TurnResult{
		Session:       sess.ID,
		CandidateTurn: candidateTurn,
		AgentTurn:     agentTurn,
		Agent:         rule.Agent.Name(),
		Stage:         to,
		StageChanged:  from != to,
		Complete:      complete,
	}

	if from != to {
		d.onStageChange(ctx, sess, from, to, rule, result)
	}
	return result, nil
}

func (d *Dispatcher) onStageChange(ctx context.Context, sess *Session, from, to Stage, fromRule StageRule, result *TurnResult) {
	if fromRule.Score != nil && fromRule.ScoreKey != "" {
		sess.addScore(fromRule.ScoreKey, fromRule.Score(sess.Snapshot()))
	}

	slog.Info("session stage advanced",
		"session_id", sess.ID,
		"from", from.String(),
		"to", to.String())

	if d.store != nil && to != StageClosed {
		if err := d.store.UpdateSessionStage(ctx, sess.ID, to); err != nil {
			slog.Warn("failed to persist stage change", "session_id", sess.ID, "error", err)
		}
	}

	if to == StageHRHandoff && sess.Report() == nil {
		report := BuildReport(sess.Snapshot(), sess.ID, false)
		sess.setReport(report)
		result.Report = report
		if d.store != nil {
			if err := d.store.SaveReport(ctx, report); err != nil {
				slog.Error("failed to persist report", "session_id", sess.ID, "error", err)
			}
		}
	}

	if to == StageClosed {
		sess.setCloseReason("assessment complete")
		d.registry.finalize(ctx, sess, "assessment complete", nil)
		return
	}

	nextRule, err := d.policy.Rule(to)
	if err != nil {
		slog.Warn("no rule for next stage", "stage", to.String(), "error", err)
		return
	}
	if opener, ok := nextRule.Agent.(Opener); ok {
		opening, err := opener.Open(ctx, sess.Snapshot())
		if err != nil {
			slog.Warn("stage opener failed", "session_id", sess.ID, "stage", to.String(), "error", err)
			return
		}
		openingTurn, ok := sess.appendTurn(RoleAgent, opening, "")
		if !ok {
			return
		}
		d.saveTurn(ctx, sess.ID, openingTurn)
		result.Opening = opening
	}
}

// failSession handles stage policy corruption. An invalid transition is not
// recoverable for the session, so it is force-closed with a partial report
// rather than left stuck rejecting every future turn the same way.
func (d *Dispatcher) failSession(ctx context.Context, sess *Session, err error) error {
	if !errors.Is(err, ErrInvalidTransition) {
		return err
	}
	slog.Error("invalid stage transition, closing session", "session_id", sess.ID, "error", err)
	if endErr := d.registry.End(ctx, sess.ID, "invalid transition"); endErr != nil {
		slog.Error("failed to close broken session", "session_id", sess.ID, "error", endErr)
	}
	return err
}

// callAgent invokes the stage agent with bounded retries. Each attempt gets
// its own timeout; exhausting all attempts surfaces ErrAgentFailure with the
// session state untouched beyond the already-committed candidate turn.
func (d *Dispatcher) callAgent(ctx context.Context, agent Agent, kc *KnowledgeContext) (Reply, error) {
	var lastErr error
	for attempt := 1; attempt <= d.cfg.AgentRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, d.cfg.AgentTimeout)
		reply, err := agent.Respond(callCtx, kc)
		cancel()
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		slog.Warn("agent call failed",
			"agent", agent.Name(),
			"attempt", attempt,
			"error", err)
	}
	return Reply{}, fmt.Errorf("%w: agent %s after %d attempts: %v",
		ErrAgentFailure, agent.Name(), d.cfg.AgentRetries, lastErr)
}

func (d *Dispatcher) saveTurn(ctx context.Context, sessionID string, t Turn) {
	if d.store == nil {
		return
	}
	if err := d.store.SaveTurn(ctx, sessionID, t); err != nil {
		slog.Error("failed to persist turn", "session_id", sessionID, "seq", t.Seq, "error", err)
	}
}

// StartSession returns the profile agent's greeting for a freshly created
// session. The greeting is conversational dressing, not part of the assessed
// history, so it is not committed as a turn.
func (d *Dispatcher) StartSession(ctx context.Context, sessionID string) (string, error) {
	sess, err := d.registry.Get(sessionID)
	if err != nil {
		return "", err
	}
	rule, err := d.policy.Rule(sess.Stage())
	if err != nil {
		return "", err
	}
	opener, ok := rule.Agent.(Opener)
	if !ok {
		return "", nil
	}
	greeting, err := opener.Open(ctx, sess.Snapshot())
	if err != nil {
		return "", fmt.Errorf("%w: opening greeting: %v", ErrAgentFailure, err)
	}
	return greeting, nil
}
