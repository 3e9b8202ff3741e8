package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/voxhire/voxhire/backend/models"
	"github.com/voxhire/voxhire/backend/repository"
)

type CandidateEndpoints struct {
	repo     *repository.GORMRepository
	validate *validator.Validate
}

func NewCandidateEndpoints(repo *repository.GORMRepository) *CandidateEndpoints {
	return &CandidateEndpoints{
		repo:     repo,
		validate: validator.New(),
	}
}

type RegisterCandidateRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=255"`
	Email           string `json:"email" validate:"required,email"`
	TargetRole      string `json:"target_role" validate:"required,min=2,max=255"`
	ResumeText      string `json:"resume_text,omitempty"`
	LinkedInSummary string `json:"linkedin_summary,omitempty"`
	GitHubSummary   string `json:"github_summary,omitempty"`
}

func (e *CandidateEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/candidates", func(r chi.Router) {
		r.Post("/", e.RegisterCandidateHandler)
		r.Get("/", e.ListCandidatesHandler)
		r.Get("/{id}", e.GetCandidateHandler)
		r.Delete("/{id}", e.DeleteCandidateHandler)
	})
}

func (e *CandidateEndpoints) RegisterCandidateHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := e.validate.Struct(req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	existing, err := e.repo.GetCandidateByEmail(r.Context(), req.Email)
	if err != nil {
		http.Error(w, "Failed to check existing candidate", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "Candidate with this email already exists", http.StatusConflict)
		return
	}

	candidate := &models.Candidate{
		Name:            req.Name,
		Email:           req.Email,
		TargetRole:      req.TargetRole,
		ResumeText:      req.ResumeText,
		LinkedInSummary: req.LinkedInSummary,
		GitHubSummary:   req.GitHubSummary,
		Status:          "registered",
	}
	if err := e.repo.CreateCandidate(r.Context(), candidate); err != nil {
		http.Error(w, "Failed to create candidate", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(candidate)
}

func (e *CandidateEndpoints) ListCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	candidates, err := e.repo.ListCandidates(r.Context())
	if err != nil {
		http.Error(w, "Failed to list candidates", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"candidates": candidates,
		"count":      len(candidates),
	})
}

func (e *CandidateEndpoints) GetCandidateHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	candidate, err := e.repo.GetCandidateByID(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get candidate", "error", err, "candidate_id", id)
		http.Error(w, "Failed to get candidate", http.StatusInternalServerError)
		return
	}
	if candidate == nil {
		http.Error(w, "Candidate not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(candidate)
}

func (e *CandidateEndpoints) DeleteCandidateHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := e.repo.DeleteCandidate(r.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Candidate not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete candidate", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"candidate_id": id,
		"status":       "deleted",
	})
}
