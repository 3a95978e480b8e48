package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StudentFeedbackAnalysis is the single current sentiment analysis for a student.
type StudentFeedbackAnalysis struct {
	ID                string         `gorm:"primaryKey;size:36" json:"id"`
	StudentID         string         `gorm:"size:36;uniqueIndex;not null" json:"student_id"`
	SentimentAnalysis datatypes.JSON `json:"sentiment_analysis"`
	FeedbackCount     int            `json:"feedback_count"`
	AnalyzedAt        time.Time      `json:"analyzed_at"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// TableName matches the portal schema.
func (StudentFeedbackAnalysis) TableName() string {
	return "student_feedback_analysis"
}

// BeforeCreate assigns a UUID when none was provided.
func (a *StudentFeedbackAnalysis) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
