package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Candidate holds the profile assembled by the ingestion pipeline before any
// assessment starts. The orchestrator treats these fields as read-only input.
type Candidate struct {
	ID              string         `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string         `gorm:"size:255;not null" json:"name"`
	Email           string         `gorm:"uniqueIndex;not null" json:"email"`
	TargetRole      string         `gorm:"size:255;not null" json:"target_role"`
	ResumeText      string         `gorm:"type:text" json:"resume_text,omitempty"`
	LinkedInSummary string         `gorm:"type:text" json:"linkedin_summary,omitempty"`
	GitHubSummary   string         `gorm:"type:text" json:"github_summary,omitempty"`
	Status          string         `gorm:"default:'registered'" json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Sessions []AssessmentSession `gorm:"foreignKey:CandidateID" json:"sessions,omitempty"`
	Reports  []AssessmentReport  `gorm:"foreignKey:CandidateID" json:"reports,omitempty"`
}

func (c *Candidate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// ProfileContext renders the candidate's profile in the flat text format the
// interview agents consume as background knowledge.
func (c *Candidate) ProfileContext() string {
	ctx := fmt.Sprintf("CANDIDATE PROFILE\nName: %s\nTarget Role: %s\n", c.Name, c.TargetRole)
	if c.ResumeText != "" {
		ctx += fmt.Sprintf("\nRESUME:\n%s\n", c.ResumeText)
	}
	if c.LinkedInSummary != "" {
		ctx += fmt.Sprintf("\nLINKEDIN:\n%s\n", c.LinkedInSummary)
	}
	if c.GitHubSummary != "" {
		ctx += fmt.Sprintf("\nGITHUB:\n%s\n", c.GitHubSummary)
	}
	return ctx
}
