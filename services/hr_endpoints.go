package services

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/voxhire/voxhire/backend/orchestrator"
	"github.com/voxhire/voxhire/backend/repository"
)

// HREndpoints serves the human review surface: dashboard stats, the review
// queue, and the final decision on a report.
type HREndpoints struct {
	repo     *repository.GORMRepository
	validate *validator.Validate
}

func NewHREndpoints(repo *repository.GORMRepository) *HREndpoints {
	return &HREndpoints{
		repo:     repo,
		validate: validator.New(),
	}
}

func (e *HREndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/hr", func(r chi.Router) {
		r.Get("/dashboard/stats", e.DashboardHandler)
		r.Get("/candidates", e.ReviewQueueHandler)
		r.Get("/report/{id}/detailed", e.DetailedReportHandler)
		r.Post("/decision/{id}", e.DecisionHandler)
	})
}

func (e *HREndpoints) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := e.repo.GetDashboardStats(r.Context())
	if err != nil {
		http.Error(w, "Failed to load dashboard stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (e *HREndpoints) ReviewQueueHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := e.repo.ListCandidatesWithLatestReport(r.Context())
	if err != nil {
		http.Error(w, "Failed to load review queue", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"candidates": entries,
		"count":      len(entries),
	})
}

// DetailedReportHandler returns the report plus the candidate profile and the
// full session transcript for the HR review screen.
func (e *HREndpoints) DetailedReportHandler(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "id")

	report, err := e.repo.GetReportByID(r.Context(), reportID)
	if err != nil {
		http.Error(w, "Failed to load report", http.StatusInternalServerError)
		return
	}
	if report == nil {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	}

	candidate, err := e.repo.GetCandidateByID(r.Context(), report.CandidateID)
	if err != nil {
		http.Error(w, "Failed to load candidate", http.StatusInternalServerError)
		return
	}

	turns, err := e.repo.ListTurns(r.Context(), report.SessionID)
	if err != nil {
		http.Error(w, "Failed to load transcript", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"report":     report,
		"candidate":  candidate,
		"transcript": turns,
	})
}

type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject hold"`
	Notes    string `json:"notes,omitempty"`
}

func (e *HREndpoints) DecisionHandler(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "id")

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := e.validate.Struct(req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := e.repo.RecordDecision(r.Context(), reportID, req.Decision, req.Notes); err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrReportNotFound):
			http.Error(w, "Report not found", http.StatusNotFound)
		case errors.Is(err, orchestrator.ErrDecisionAlreadyRecorded):
			http.Error(w, "Decision already recorded for this report", http.StatusConflict)
		default:
			http.Error(w, "Failed to record decision", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"report_id": reportID,
		"decision":  req.Decision,
		"status":    "recorded",
	})
}
