package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Registry owns the live session set. It enforces one active session per
// candidate, evicts idle sessions on a cron schedule, and guarantees every
// session that leaves the registry has been closed with a report.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	byCandidate map[string]string

	idleTimeout time.Duration
	store       Store
	cron        *cron.Cron
}

func NewRegistry(idleTimeout time.Duration, store Store) *Registry {
	if idleTimeout <= 0 {
		idleTimeout = 10 * time.Minute
	}
	return &Registry{
		sessions:    make(map[string]*Session),
		byCandidate: make(map[string]string),
		idleTimeout: idleTimeout,
		store:       store,
	}
}

// Create registers a new session for the candidate. An existing active
// session for the same candidate is ended first so a candidate never holds
// two live assessments.
func (r *Registry) Create(seed ProfileSeed, modality Modality) *Session {
	sess := newSession(seed, modality)

	// Lookup and insert happen under a single write lock so two concurrent
	// creates for the same candidate cannot both observe an empty slot. The
	// lock is dropped around End, which locks again to finalize, so after
	// every eviction the slot is re-checked before inserting.
	for {
		r.mu.Lock()
		existing, ok := r.byCandidate[seed.CandidateID]
		if !ok {
			r.sessions[sess.ID] = sess
			r.byCandidate[seed.CandidateID] = sess.ID
			r.mu.Unlock()
			break
		}
		r.mu.Unlock()

		if err := r.End(context.Background(), existing, "superseded by new session"); err != nil {
			slog.Warn("failed to end superseded session", "session_id", existing, "error", err)
		}
	}

	slog.Info("session created",
		"session_id", sess.ID,
		"candidate_id", seed.CandidateID,
		"modality", string(modality))
	return sess
}

// Get returns the live session or ErrSessionNotFound once it has been evicted.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Active returns the number of live sessions.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep ends every session idle past the timeout and returns how many were
// evicted.
func (r *Registry) Sweep() int {
	cutoff := time.Now().Add(-r.idleTimeout)

	r.mu.RLock()
	var idle []string
	for id, sess := range r.sessions {
		if sess.LastActivity().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range idle {
		if err := r.End(context.Background(), id, "idle timeout"); err != nil {
			slog.Error("failed to end idle session", "session_id", id, "error", err)
		}
	}
	if len(idle) > 0 {
		slog.Info("idle sessions swept", "count", len(idle))
	}
	return len(idle)
}

// StartSweeper schedules Sweep on the given cron expression.
func (r *Registry) StartSweeper(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { r.Sweep() }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	r.cron = c
	slog.Info("session sweeper started", "schedule", schedule, "idle_timeout", r.idleTimeout.String())
	return nil
}

func (r *Registry) StopSweeper() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

// End closes a session and removes it from the registry. Ending an unknown or
// already-evicted session is a no-op, which makes transport-level end
// requests idempotent.
func (r *Registry) End(ctx context.Context, id, reason string) error {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	partial, changed := sess.forceClose(reason)
	if !changed {
		partial = nil
	}
	r.finalize(ctx, sess, reason, partial)
	return nil
}

// finalize removes the session from the registry maps and persists the close.
// newReport is the report created by this very close, if any; reports created
// earlier in the session's life were persisted when they were built.
func (r *Registry) finalize(ctx context.Context, sess *Session, reason string, newReport *Report) {
	r.mu.Lock()
	delete(r.sessions, sess.ID)
	if r.byCandidate[sess.CandidateID] == sess.ID {
		delete(r.byCandidate, sess.CandidateID)
	}
	r.mu.Unlock()

	if r.store != nil {
		if newReport != nil {
			if err := r.store.SaveReport(ctx, newReport); err != nil {
				slog.Error("failed to persist report on close", "session_id", sess.ID, "error", err)
			}
		}
		if err := r.store.CloseSession(ctx, sess.ID, sess.Stage(), reason); err != nil {
			slog.Error("failed to persist session close", "session_id", sess.ID, "error", err)
		}
	}

	slog.Info("session ended",
		"session_id", sess.ID,
		"candidate_id", sess.CandidateID,
		"reason", reason)
}
