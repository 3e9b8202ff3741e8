package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssessmentReport stores the derived report for a session plus the HR
// decision. Partial reports come from sessions that ended before the full
// assessment completed.
type AssessmentReport struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID   string `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	CandidateID string `gorm:"type:uuid;not null;index" json:"candidate_id"`

	TechnicalScore     float64 `gorm:"type:decimal(5,2);not null" json:"technical_score"`
	BehavioralScore    float64 `gorm:"type:decimal(5,2);not null" json:"behavioral_score"`
	CommunicationScore float64 `gorm:"type:decimal(5,2);not null" json:"communication_score"`
	OverallScore       float64 `gorm:"type:decimal(5,2);not null" json:"overall_score"`

	ExecutiveSummary string `gorm:"type:text" json:"executive_summary"`
	KeyStrengths     string `gorm:"type:text" json:"key_strengths,omitempty"` // Newline-separated
	Risks            string `gorm:"type:text" json:"risks,omitempty"`         // Newline-separated
	Recommendation   string `gorm:"type:text" json:"recommendation"`

	Partial bool `gorm:"not null;default:false" json:"partial"`

	HRReviewed bool           `gorm:"not null;default:false" json:"hr_reviewed"`
	HRDecision *string        `gorm:"check:hr_decision IN ('approve', 'reject', 'hold')" json:"hr_decision,omitempty"`
	HRNotes    string         `gorm:"type:text" json:"hr_notes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Candidate Candidate `gorm:"foreignKey:CandidateID" json:"candidate,omitempty"`
}

func (r *AssessmentReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
