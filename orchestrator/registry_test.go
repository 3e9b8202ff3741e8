package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	turns   map[string][]Turn
	reports []*Report
	closes  map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		turns:  make(map[string][]Turn),
		closes: make(map[string]string),
	}
}

func (m *memoryStore) SaveTurn(ctx context.Context, sessionID string, t Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[sessionID] = append(m.turns[sessionID], t)
	return nil
}

func (m *memoryStore) SaveReport(ctx context.Context, r *Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return nil
}

func (m *memoryStore) UpdateSessionStage(ctx context.Context, sessionID string, stage Stage) error {
	return nil
}

func (m *memoryStore) CloseSession(ctx context.Context, sessionID string, stage Stage, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes[sessionID] = reason
	return nil
}

func (m *memoryStore) reportCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}

func (m *memoryStore) closeReason(sessionID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes[sessionID]
}

func TestRegistrySweepEvictsIdleSessions(t *testing.T) {
	store := newMemoryStore()
	registry := NewRegistry(10*time.Millisecond, store)

	sess := registry.Create(testSeed(), ModalityChat)
	time.Sleep(25 * time.Millisecond)

	swept := registry.Sweep()
	assert.Equal(t, 1, swept)

	// The session left the registry closed and with a partial report.
	_, err := registry.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, StageClosed, sess.Stage())
	assert.Equal(t, "idle timeout", sess.CloseReason())

	report := sess.Report()
	require.NotNil(t, report)
	assert.True(t, report.Partial)
	assert.False(t, report.HRReviewed)

	assert.Equal(t, 1, store.reportCount())
	assert.Equal(t, "idle timeout", store.closeReason(sess.ID))
}

func TestRegistrySweepSkipsActiveSessions(t *testing.T) {
	registry := NewRegistry(time.Hour, nil)
	sess := registry.Create(testSeed(), ModalityChat)

	assert.Equal(t, 0, registry.Sweep())
	got, err := registry.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestRegistryOneActiveSessionPerCandidate(t *testing.T) {
	registry := NewRegistry(time.Hour, nil)

	first := registry.Create(testSeed(), ModalityChat)
	second := registry.Create(testSeed(), ModalityVoice)

	assert.Equal(t, 1, registry.Active())
	assert.Equal(t, StageClosed, first.Stage())
	assert.Equal(t, "superseded by new session", first.CloseReason())

	got, err := registry.Get(second.ID)
	require.NoError(t, err)
	assert.Equal(t, ModalityVoice, got.Modality)
}

func TestRegistryConcurrentCreateSingleActive(t *testing.T) {
	registry := NewRegistry(time.Hour, nil)

	const creators = 8
	start := make(chan struct{})
	sessions := make([]*Session, creators)
	var wg sync.WaitGroup
	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			sessions[n] = registry.Create(testSeed(), ModalityChat)
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, registry.Active())

	live := 0
	for _, sess := range sessions {
		if sess.Closed() {
			assert.Equal(t, "superseded by new session", sess.CloseReason())
			continue
		}
		live++
		_, err := registry.Get(sess.ID)
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, live, "exactly one session survives for the candidate")
}

func TestRegistryEndIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	registry := NewRegistry(time.Hour, store)
	sess := registry.Create(testSeed(), ModalityChat)

	require.NoError(t, registry.End(context.Background(), sess.ID, "first end"))
	require.NoError(t, registry.End(context.Background(), sess.ID, "second end"))
	require.NoError(t, registry.End(context.Background(), "never-existed", "noop"))

	assert.Equal(t, "first end", sess.CloseReason())
	assert.Equal(t, 1, store.reportCount())
}

func TestRegistryEndKeepsExistingReport(t *testing.T) {
	store := newMemoryStore()
	registry := NewRegistry(time.Hour, store)
	sess := registry.Create(testSeed(), ModalityChat)

	existing := BuildReport(sess.Snapshot(), sess.ID, false)
	sess.setReport(existing)

	require.NoError(t, registry.End(context.Background(), sess.ID, "wrap up"))

	// No second report is synthesized over the real one.
	assert.Same(t, existing, sess.Report())
	assert.Equal(t, 0, store.reportCount())
}

func TestRegistrySweeperSchedule(t *testing.T) {
	registry := NewRegistry(time.Hour, nil)
	defer registry.StopSweeper()

	assert.NoError(t, registry.StartSweeper("@every 1h"))
	assert.Error(t, registry.StartSweeper("not a schedule"))
}
