package repository

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/voxhire/voxhire/backend/models"
	"github.com/voxhire/voxhire/backend/orchestrator"
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.Candidate{},
		&models.AssessmentSession{},
		&models.Turn{},
		&models.AssessmentReport{},
	)
}

// Candidate operations
func (r *GORMRepository) CreateCandidate(ctx context.Context, candidate *models.Candidate) error {
	if err := r.db.WithContext(ctx).Create(candidate).Error; err != nil {
		slog.Error("Failed to create candidate", "error", err)
		return err
	}
	slog.Info("Candidate created", "candidate_id", candidate.ID, "email", candidate.Email)
	return nil
}

func (r *GORMRepository) GetCandidateByID(ctx context.Context, id string) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&candidate).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get candidate by ID", "error", err, "candidate_id", id)
		return nil, err
	}
	return &candidate, nil
}

func (r *GORMRepository) GetCandidateByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&candidate).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get candidate by email", "error", err, "email", email)
		return nil, err
	}
	return &candidate, nil
}

func (r *GORMRepository) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	var candidates []models.Candidate
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&candidates).Error; err != nil {
		slog.Error("Failed to list candidates", "error", err)
		return nil, err
	}
	return candidates, nil
}

func (r *GORMRepository) DeleteCandidate(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Candidate{})
	if result.Error != nil {
		slog.Error("Failed to delete candidate", "error", result.Error, "candidate_id", id)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	slog.Info("Candidate deleted", "candidate_id", id)
	return nil
}

func (r *GORMRepository) UpdateCandidateStatus(ctx context.Context, id, status string) error {
	if err := r.db.WithContext(ctx).Model(&models.Candidate{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		slog.Error("Failed to update candidate status", "error", err, "candidate_id", id)
		return err
	}
	return nil
}

// Session operations
func (r *GORMRepository) CreateSession(ctx context.Context, session *models.AssessmentSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		slog.Error("Failed to create session", "error", err)
		return err
	}
	slog.Info("Session created", "session_id", session.ID, "candidate_id", session.CandidateID)
	return nil
}

func (r *GORMRepository) GetSessionByID(ctx context.Context, id string) (*models.AssessmentSession, error) {
	var session models.AssessmentSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get session by ID", "error", err, "session_id", id)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) ListSessions(ctx context.Context) ([]models.AssessmentSession, error) {
	var sessions []models.AssessmentSession
	if err := r.db.WithContext(ctx).Order("started_at DESC").Find(&sessions).Error; err != nil {
		slog.Error("Failed to list sessions", "error", err)
		return nil, err
	}
	return sessions, nil
}

func (r *GORMRepository) ListSessionsByCandidate(ctx context.Context, candidateID string) ([]models.AssessmentSession, error) {
	var sessions []models.AssessmentSession
	if err := r.db.WithContext(ctx).Where("candidate_id = ?", candidateID).Order("started_at DESC").Find(&sessions).Error; err != nil {
		slog.Error("Failed to list sessions", "error", err, "candidate_id", candidateID)
		return nil, err
	}
	return sessions, nil
}

func (r *GORMRepository) ListTurns(ctx context.Context, sessionID string) ([]models.Turn, error) {
	var turns []models.Turn
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("seq ASC").Find(&turns).Error; err != nil {
		slog.Error("Failed to list turns", "error", err, "session_id", sessionID)
		return nil, err
	}
	return turns, nil
}

// Report operations
func (r *GORMRepository) GetReportByID(ctx context.Context, id string) (*models.AssessmentReport, error) {
	var report models.AssessmentReport
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get report by ID", "error", err, "report_id", id)
		return nil, err
	}
	return &report, nil
}

func (r *GORMRepository) GetReportBySession(ctx context.Context, sessionID string) (*models.AssessmentReport, error) {
	var report models.AssessmentReport
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&report).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get report by session", "error", err, "session_id", sessionID)
		return nil, err
	}
	return &report, nil
}

func (r *GORMRepository) ListReportsByCandidate(ctx context.Context, candidateID string) ([]models.AssessmentReport, error) {
	var reports []models.AssessmentReport
	if err := r.db.WithContext(ctx).Where("candidate_id = ?", candidateID).Order("created_at DESC").Find(&reports).Error; err != nil {
		slog.Error("Failed to list reports", "error", err, "candidate_id", candidateID)
		return nil, err
	}
	return reports, nil
}

// Store implementation. The orchestrator writes through this narrow surface;
// the richer read methods above serve the HTTP handlers.

func (r *GORMRepository) SaveTurn(ctx context.Context, sessionID string, t orchestrator.Turn) error {
	row := models.Turn{
		SessionID: sessionID,
		Seq:       t.Seq,
		Role:      string(t.Role),
		Stage:     t.Stage.String(),
		Content:   t.Content,
		AudioRef:  t.AudioRef,
		At:        t.At,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		slog.Error("Failed to save turn", "error", err, "session_id", sessionID, "seq", t.Seq)
		return err
	}
	return nil
}

func (r *GORMRepository) SaveReport(ctx context.Context, rep *orchestrator.Report) error {
	row := models.AssessmentReport{
		ID:                 rep.ID,
		SessionID:          rep.SessionID,
		CandidateID:        rep.CandidateID,
		TechnicalScore:     rep.TechnicalScore,
		BehavioralScore:    rep.BehavioralScore,
		CommunicationScore: rep.CommunicationScore,
		OverallScore:       rep.OverallScore,
		ExecutiveSummary:   rep.ExecutiveSummary,
		KeyStrengths:       strings.Join(rep.KeyStrengths, "\n"),
		Risks:              strings.Join(rep.Risks, "\n"),
		Recommendation:     rep.Recommendation,
		Partial:            rep.Partial,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		slog.Error("Failed to save report", "error", err, "session_id", rep.SessionID)
		return err
	}
	slog.Info("Report saved", "report_id", rep.ID, "session_id", rep.SessionID, "partial", rep.Partial)
	return nil
}

func (r *GORMRepository) CloseSession(ctx context.Context, sessionID string, stage orchestrator.Stage, reason string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"stage":        stage.String(),
		"close_reason": reason,
		"ended_at":     &now,
	}
	if err := r.db.WithContext(ctx).Model(&models.AssessmentSession{}).Where("id = ?", sessionID).Updates(updates).Error; err != nil {
		slog.Error("Failed to close session", "error", err, "session_id", sessionID)
		return err
	}
	return nil
}

// UpdateSessionStage records the live stage for observers reading the
// database while a session is still active.
func (r *GORMRepository) UpdateSessionStage(ctx context.Context, sessionID string, stage orchestrator.Stage) error {
	if err := r.db.WithContext(ctx).Model(&models.AssessmentSession{}).Where("id = ?", sessionID).Update("stage", stage.String()).Error; err != nil {
		slog.Error("Failed to update session stage", "error", err, "session_id", sessionID)
		return err
	}
	return nil
}
