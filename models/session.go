package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssessmentSession records one assessment run. Stage tracks the live stage
// while the session is active and the final stage once it closes.
type AssessmentSession struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	CandidateID string         `gorm:"type:uuid;not null;index" json:"candidate_id"`
	Modality    string         `gorm:"not null;check:modality IN ('chat', 'voice')" json:"modality"`
	Stage       string         `gorm:"not null;default:'profile_analysis'" json:"stage"`
	CloseReason string         `gorm:"size:255" json:"close_reason,omitempty"`
	StartedAt   time.Time      `gorm:"not null" json:"started_at"`
	EndedAt     *time.Time     `json:"ended_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Candidate Candidate `gorm:"foreignKey:CandidateID" json:"candidate,omitempty"`
	Turns     []Turn    `gorm:"foreignKey:SessionID" json:"turns,omitempty"`
}

func (s *AssessmentSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// Turn stores one committed message of a session transcript. Seq is gapless
// per session; the unique index rejects duplicate commits of the same turn.
type Turn struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID string         `gorm:"type:uuid;not null;uniqueIndex:idx_session_seq" json:"session_id"`
	Seq       int            `gorm:"not null;uniqueIndex:idx_session_seq" json:"seq"`
	Role      string         `gorm:"not null;check:role IN ('candidate', 'agent')" json:"role"`
	Stage     string         `gorm:"not null" json:"stage"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	AudioRef  string         `gorm:"size:500" json:"audio_ref,omitempty"`
	At        time.Time      `gorm:"not null" json:"at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Session AssessmentSession `gorm:"foreignKey:SessionID" json:"session,omitempty"`
}

func (t *Turn) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
