package services

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/voxhire/voxhire/backend/models"
	"github.com/voxhire/voxhire/backend/orchestrator"
	"github.com/voxhire/voxhire/backend/repository"
	ws "github.com/voxhire/voxhire/backend/websocket"
)

type AssessmentEndpoints struct {
	repo       *repository.GORMRepository
	registry   *orchestrator.Registry
	dispatcher *orchestrator.Dispatcher
	hub        *ws.Hub
	validate   *validator.Validate
}

func NewAssessmentEndpoints(repo *repository.GORMRepository, registry *orchestrator.Registry, dispatcher *orchestrator.Dispatcher, hub *ws.Hub) *AssessmentEndpoints {
	return &AssessmentEndpoints{
		repo:       repo,
		registry:   registry,
		dispatcher: dispatcher,
		hub:        hub,
		validate:   validator.New(),
	}
}

type StartAssessmentRequest struct {
	CandidateID string `json:"candidate_id" validate:"required,uuid"`
	Modality    string `json:"modality" validate:"required,oneof=chat voice"`
}

type StartAssessmentResponse struct {
	SessionID string `json:"session_id"`
	Stage     string `json:"stage"`
	Greeting  string `json:"greeting,omitempty"`
}

func (e *AssessmentEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/assessment", func(r chi.Router) {
		r.Post("/start", e.StartAssessmentHandler)
		r.Get("/sessions", e.ListSessionsHandler)
		r.Get("/session/{id}", e.GetSessionHandler)
		r.Get("/session/{id}/turns", e.GetTurnsHandler)
		r.Get("/session/{id}/report", e.GetReportHandler)
		r.Post("/session/{id}/end", e.EndSessionHandler)
		r.Get("/candidate/{id}/reports", e.ListCandidateReportsHandler)
	})
}

func (e *AssessmentEndpoints) StartAssessmentHandler(w http.ResponseWriter, r *http.Request) {
	var req StartAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := e.validate.Struct(req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	candidate, err := e.repo.GetCandidateByID(r.Context(), req.CandidateID)
	if err != nil {
		http.Error(w, "Failed to load candidate", http.StatusInternalServerError)
		return
	}
	if candidate == nil {
		http.Error(w, "Candidate not found", http.StatusNotFound)
		return
	}

	seed := orchestrator.ProfileSeed{
		CandidateID: candidate.ID,
		Name:        candidate.Name,
		TargetRole:  candidate.TargetRole,
		Summary:     candidate.ProfileContext(),
	}
	sess := e.registry.Create(seed, orchestrator.Modality(req.Modality))

	row := &models.AssessmentSession{
		ID:          sess.ID,
		CandidateID: candidate.ID,
		Modality:    req.Modality,
		Stage:       sess.Stage().String(),
		StartedAt:   sess.CreatedAt(),
	}
	if err := e.repo.CreateSession(r.Context(), row); err != nil {
		slog.Error("Failed to persist session", "error", err, "session_id", sess.ID)
	}
	if err := e.repo.UpdateCandidateStatus(r.Context(), candidate.ID, "in_assessment"); err != nil {
		slog.Warn("Failed to update candidate status", "error", err, "candidate_id", candidate.ID)
	}

	greeting, err := e.dispatcher.StartSession(r.Context(), sess.ID)
	if err != nil {
		slog.Warn("Failed to generate greeting", "error", err, "session_id", sess.ID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(StartAssessmentResponse{
		SessionID: sess.ID,
		Stage:     sess.Stage().String(),
		Greeting:  greeting,
	})
}

func (e *AssessmentEndpoints) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	var (
		sessions []models.AssessmentSession
		err      error
	)
	if candidateID := r.URL.Query().Get("candidate_id"); candidateID != "" {
		sessions, err = e.repo.ListSessionsByCandidate(r.Context(), candidateID)
	} else {
		sessions, err = e.repo.ListSessions(r.Context())
	}
	if err != nil {
		http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
		"active":   e.registry.Active(),
	})
}

func (e *AssessmentEndpoints) ListCandidateReportsHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reports, err := e.repo.ListReportsByCandidate(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to list reports", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

func (e *AssessmentEndpoints) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Prefer the live session; fall back to the persisted row once evicted.
	if sess, err := e.registry.Get(id); err == nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"session_id":    sess.ID,
			"candidate_id":  sess.CandidateID,
			"modality":      string(sess.Modality),
			"stage":         sess.Stage().String(),
			"turn_count":    sess.TurnCount(),
			"started_at":    sess.CreatedAt().Format(time.RFC3339),
			"last_activity": sess.LastActivity().Format(time.RFC3339),
			"live":          true,
		})
		return
	}

	row, err := e.repo.GetSessionByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to get session", http.StatusInternalServerError)
		return
	}
	if row == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(row)
}

func (e *AssessmentEndpoints) GetTurnsHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if sess, err := e.registry.Get(id); err == nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"turns": sess.Turns(),
			"count": sess.TurnCount(),
		})
		return
	}

	turns, err := e.repo.ListTurns(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to list turns", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"turns": turns,
		"count": len(turns),
	})
}

func (e *AssessmentEndpoints) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if sess, err := e.registry.Get(id); err == nil {
		if report := sess.Report(); report != nil {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(report)
			return
		}
		http.Error(w, "Report not available yet", http.StatusNotFound)
		return
	}

	report, err := e.repo.GetReportBySession(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to get report", http.StatusInternalServerError)
		return
	}
	if report == nil {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

type EndSessionRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (e *AssessmentEndpoints) EndSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req EndSessionRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	reason := req.Reason
	if reason == "" {
		reason = "ended by request"
	}

	// Ending an unknown or already-closed session is a no-op.
	if err := e.registry.End(r.Context(), id, reason); err != nil {
		http.Error(w, "Failed to end session", http.StatusInternalServerError)
		return
	}

	// A client may still be connected over the websocket transport.
	if e.hub != nil {
		for _, client := range e.hub.SessionClients(id) {
			client.SendFrame(ws.Frame{Type: "session_ended", Message: reason})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"session_id": id,
		"status":     "ended",
	})
}
