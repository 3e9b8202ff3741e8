package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/voxhire/voxhire/backend/models"
	"github.com/voxhire/voxhire/backend/orchestrator"
)

func newTestRepository(t *testing.T) *GORMRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	repo := NewGORMRepository(db)
	require.NoError(t, repo.AutoMigrate())
	return repo
}

func seedCandidate(t *testing.T, repo *GORMRepository, email string) *models.Candidate {
	t.Helper()
	candidate := &models.Candidate{
		Name:       "Jordan Rivera",
		Email:      email,
		TargetRole: "Backend Engineer",
		ResumeText: "Go, Postgres, distributed systems.",
		Status:     "registered",
	}
	require.NoError(t, repo.CreateCandidate(context.Background(), candidate))
	return candidate
}

func seedSession(t *testing.T, repo *GORMRepository, candidateID string) *models.AssessmentSession {
	t.Helper()
	session := &models.AssessmentSession{
		CandidateID: candidateID,
		Modality:    "chat",
		Stage:       "profile_analysis",
		StartedAt:   time.Now(),
	}
	require.NoError(t, repo.CreateSession(context.Background(), session))
	return session
}

func TestCandidateRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := seedCandidate(t, repo, "jordan@example.com")
	require.NotEmpty(t, created.ID)

	byID, err := repo.GetCandidateByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "jordan@example.com", byID.Email)

	byEmail, err := repo.GetCandidateByEmail(ctx, "jordan@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, created.ID, byEmail.ID)

	missing, err := repo.GetCandidateByID(ctx, "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSaveTurnAndList(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	candidate := seedCandidate(t, repo, "turns@example.com")
	session := seedSession(t, repo, candidate.ID)

	now := time.Now()
	turns := []orchestrator.Turn{
		{Seq: 0, Role: orchestrator.RoleCandidate, Stage: orchestrator.StageProfileAnalysis, Content: "hello", At: now},
		{Seq: 1, Role: orchestrator.RoleAgent, Stage: orchestrator.StageProfileAnalysis, Content: "welcome", At: now},
		{Seq: 2, Role: orchestrator.RoleCandidate, Stage: orchestrator.StageProfileAnalysis, Content: "thanks", AudioRef: "audio:abc", At: now},
	}
	for _, turn := range turns {
		require.NoError(t, repo.SaveTurn(ctx, session.ID, turn))
	}

	stored, err := repo.ListTurns(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i, row := range stored {
		assert.Equal(t, i, row.Seq)
	}
	assert.Equal(t, "audio:abc", stored[2].AudioRef)

	// Duplicate sequence numbers violate the per-session unique index.
	err = repo.SaveTurn(ctx, session.ID, turns[0])
	assert.Error(t, err)
}

func TestCloseSessionPersistsFinalState(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	candidate := seedCandidate(t, repo, "close@example.com")
	session := seedSession(t, repo, candidate.ID)

	require.NoError(t, repo.CloseSession(ctx, session.ID, orchestrator.StageClosed, "idle timeout"))

	stored, err := repo.GetSessionByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "closed", stored.Stage)
	assert.Equal(t, "idle timeout", stored.CloseReason)
	assert.NotNil(t, stored.EndedAt)
}

func TestSaveReportAndDecision(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	candidate := seedCandidate(t, repo, "report@example.com")
	session := seedSession(t, repo, candidate.ID)

	report := &orchestrator.Report{
		ID:                 "11111111-1111-1111-1111-111111111111",
		SessionID:          session.ID,
		CandidateID:        candidate.ID,
		TechnicalScore:     88,
		BehavioralScore:    80,
		CommunicationScore: 72,
		OverallScore:       82.2,
		ExecutiveSummary:   "Strong candidate.",
		KeyStrengths:       []string{"Systems depth", "Clear communication"},
		Risks:              []string{"Limited frontend exposure"},
		Recommendation:     "STRONG HIRE",
	}
	require.NoError(t, repo.SaveReport(ctx, report))

	stored, err := repo.GetReportBySession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 88.0, stored.TechnicalScore)
	assert.Contains(t, stored.KeyStrengths, "Systems depth")
	assert.False(t, stored.HRReviewed)

	// First decision lands.
	require.NoError(t, repo.RecordDecision(ctx, report.ID, "approve", "fast-track"))

	decided, err := repo.GetReportBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, decided.HRReviewed)
	require.NotNil(t, decided.HRDecision)
	assert.Equal(t, "approve", *decided.HRDecision)

	// A second decision is rejected.
	err = repo.RecordDecision(ctx, report.ID, "reject", "changed my mind")
	assert.ErrorIs(t, err, orchestrator.ErrDecisionAlreadyRecorded)

	// The candidate status follows the decision.
	updated, err := repo.GetCandidateByID(ctx, candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", updated.Status)
}

func TestRecordDecisionUnknownReport(t *testing.T) {
	repo := newTestRepository(t)
	err := repo.RecordDecision(context.Background(), "22222222-2222-2222-2222-222222222222", "hold", "")
	assert.ErrorIs(t, err, orchestrator.ErrReportNotFound)
}

func TestDashboardStats(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := seedCandidate(t, repo, "one@example.com")
	second := seedCandidate(t, repo, "two@example.com")

	seedSession(t, repo, first.ID)
	endedSession := seedSession(t, repo, second.ID)
	require.NoError(t, repo.CloseSession(ctx, endedSession.ID, orchestrator.StageClosed, "assessment complete"))

	report := &orchestrator.Report{
		ID:          "33333333-3333-3333-3333-333333333333",
		SessionID:   endedSession.ID,
		CandidateID: second.ID,
	}
	require.NoError(t, repo.SaveReport(ctx, report))

	stats, err := repo.GetDashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalCandidates)
	assert.Equal(t, int64(1), stats.PendingReview)
	assert.Equal(t, int64(1), stats.InProgress)
	assert.Equal(t, int64(0), stats.Approved)

	require.NoError(t, repo.RecordDecision(ctx, report.ID, "approve", ""))
	stats, err = repo.GetDashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Approved)
	assert.Equal(t, int64(0), stats.PendingReview)
}

func TestListCandidatesWithLatestReport(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	withReport := seedCandidate(t, repo, "reported@example.com")
	seedCandidate(t, repo, "fresh@example.com")

	session := seedSession(t, repo, withReport.ID)
	older := &orchestrator.Report{
		ID:          "44444444-4444-4444-4444-444444444444",
		SessionID:   session.ID,
		CandidateID: withReport.ID,
		CreatedAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.SaveReport(ctx, older))

	entries, err := repo.ListCandidatesWithLatestReport(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byEmail := map[string]CandidateWithReport{}
	for _, entry := range entries {
		byEmail[entry.Candidate.Email] = entry
	}
	assert.NotNil(t, byEmail["reported@example.com"].Report)
	assert.Nil(t, byEmail["fresh@example.com"].Report)
}
