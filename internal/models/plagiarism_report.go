package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PlagiarismReport stores one plagiarism scan of a submission.
type PlagiarismReport struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	SubmissionID string         `gorm:"size:36;index;not null" json:"submission_id"`
	RiskScore    int            `json:"risk_score"`
	RiskLevel    string         `gorm:"size:16" json:"risk_level"`
	Report       datatypes.JSON `json:"report"`
	Degraded     bool           `json:"degraded"`
	CreatedAt    time.Time      `json:"created_at"`
}

// BeforeCreate assigns a UUID when none was provided.
func (r *PlagiarismReport) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
