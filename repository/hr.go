package repository

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/voxhire/voxhire/backend/models"
	"github.com/voxhire/voxhire/backend/orchestrator"
)

// DashboardStats aggregates candidate pipeline state for the HR dashboard.
type DashboardStats struct {
	TotalCandidates int64 `json:"total_candidates"`
	PendingReview   int64 `json:"pending_review"`
	Approved        int64 `json:"approved"`
	Rejected        int64 `json:"rejected"`
	InProgress      int64 `json:"in_progress"`
}

func (r *GORMRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Candidate{}).Count(&stats.TotalCandidates).Error; err != nil {
		slog.Error("Failed to count candidates", "error", err)
		return nil, err
	}
	if err := db.Model(&models.AssessmentReport{}).Where("hr_reviewed = ?", false).Count(&stats.PendingReview).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.AssessmentReport{}).Where("hr_decision = ?", "approve").Count(&stats.Approved).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.AssessmentReport{}).Where("hr_decision = ?", "reject").Count(&stats.Rejected).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.AssessmentSession{}).Where("ended_at IS NULL").Count(&stats.InProgress).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// CandidateWithReport pairs a candidate with their most recent report, if any.
type CandidateWithReport struct {
	Candidate models.Candidate         `json:"candidate"`
	Report    *models.AssessmentReport `json:"report,omitempty"`
}

// ListCandidatesWithLatestReport returns every candidate alongside their most
// recent report for the HR review queue.
func (r *GORMRepository) ListCandidatesWithLatestReport(ctx context.Context) ([]CandidateWithReport, error) {
	candidates, err := r.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]CandidateWithReport, 0, len(candidates))
	for _, c := range candidates {
		entry := CandidateWithReport{Candidate: c}
		var report models.AssessmentReport
		err := r.db.WithContext(ctx).
			Where("candidate_id = ?", c.ID).
			Order("created_at DESC").
			First(&report).Error
		if err == nil {
			entry.Report = &report
		} else if err != gorm.ErrRecordNotFound {
			slog.Error("Failed to load latest report", "error", err, "candidate_id", c.ID)
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

// RecordDecision stores the HR decision on a report. A report accepts exactly
// one decision; later attempts fail with ErrDecisionAlreadyRecorded.
func (r *GORMRepository) RecordDecision(ctx context.Context, reportID, decision, notes string) error {
	var report models.AssessmentReport
	err := r.db.WithContext(ctx).Where("id = ?", reportID).First(&report).Error
	if err == gorm.ErrRecordNotFound {
		return fmt.Errorf("%w: %s", orchestrator.ErrReportNotFound, reportID)
	}
	if err != nil {
		slog.Error("Failed to load report for decision", "error", err, "report_id", reportID)
		return err
	}
	if report.HRReviewed {
		return fmt.Errorf("%w: report %s", orchestrator.ErrDecisionAlreadyRecorded, reportID)
	}

	updates := map[string]interface{}{
		"hr_reviewed": true,
		"hr_decision": decision,
		"hr_notes":    notes,
	}
	if err := r.db.WithContext(ctx).Model(&report).Updates(updates).Error; err != nil {
		slog.Error("Failed to record decision", "error", err, "report_id", reportID)
		return err
	}

	status := "on_hold"
	switch decision {
	case "approve":
		status = "approved"
	case "reject":
		status = "rejected"
	}
	if err := r.UpdateCandidateStatus(ctx, report.CandidateID, status); err != nil {
		slog.Warn("Failed to update candidate status after decision", "error", err, "candidate_id", report.CandidateID)
	}

	slog.Info("HR decision recorded", "report_id", reportID, "decision", decision)
	return nil
}
