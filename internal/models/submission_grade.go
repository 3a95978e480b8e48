package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Grade sources distinguish model output from locally computed approximations.
const (
	GradeSourceAI       = "ai"
	GradeSourceFallback = "fallback"
)

// SubmissionGrade stores one grading run. Rows are append-only; the latest wins for display.
type SubmissionGrade struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	SubmissionID    string          `gorm:"size:36;index;not null" json:"submission_id"`
	RubricID        *string         `gorm:"size:36" json:"rubric_id"`
	AIReview        string          `gorm:"type:text" json:"ai_review"`
	AIGrade         float64         `json:"ai_grade"`
	AIFeedback      string          `gorm:"type:text" json:"ai_feedback"`
	Strengths       datatypes.JSON  `json:"strengths"`
	Improvements    datatypes.JSON  `json:"improvements"`
	GrammarScore    float64         `json:"grammar_score"`
	ContentScore    float64         `json:"content_score"`
	StructureScore  float64         `json:"structure_score"`
	CreativityScore float64         `json:"creativity_score"`
	OverallScore    float64         `json:"overall_score"`
	RubricBreakdown datatypes.JSON  `json:"rubric_breakdown"`
	Source          string          `gorm:"size:16;not null" json:"source"`
	CreatedAt       time.Time       `json:"created_at"`
	CriteriaGrades  []CriteriaGrade `gorm:"foreignKey:SubmissionGradeID" json:"criteria_grades,omitempty"`
}

// CriteriaGrade stores the score one rubric criterion received in a grading run.
type CriteriaGrade struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	SubmissionGradeID string    `gorm:"size:36;index;not null" json:"submission_grade_id"`
	CriteriaID        string    `gorm:"size:36;not null" json:"criteria_id"`
	AIScore           float64   `json:"ai_score"`
	AIComment         string    `gorm:"type:text" json:"ai_comment"`
	CreatedAt         time.Time `json:"created_at"`
}

// BeforeCreate assigns a UUID when none was provided.
func (g *SubmissionGrade) BeforeCreate(*gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate assigns a UUID when none was provided.
func (g *CriteriaGrade) BeforeCreate(*gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}
