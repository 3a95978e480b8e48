package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission represents a file submitted by a student for an assignment.
type Submission struct {
	ID               string         `gorm:"primaryKey;size:36" json:"id"`
	AssignmentID     string         `gorm:"size:36;index;not null" json:"assignment_id"`
	StudentID        string         `gorm:"size:36;index;not null" json:"student_id"`
	FileURL          string         `gorm:"size:1024" json:"file_url"`
	FileName         string         `gorm:"size:255" json:"file_name"`
	Status           string         `gorm:"size:32;not null" json:"status"`
	Grade            *float64       `json:"grade"`
	Feedback         string         `gorm:"type:text" json:"feedback"`
	PlagiarismScore  *int           `json:"plagiarism_score"`
	PlagiarismReport datatypes.JSON `json:"plagiarism_report"`
	TeacherComments  string         `gorm:"type:text" json:"teacher_comments"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Assignment       Assignment     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
}

const (
	// SubmissionStatusSubmitted indicates the submission has been uploaded but not analysed.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusPlagiarismChecked indicates a plagiarism scan has completed.
	SubmissionStatusPlagiarismChecked = "plagiarism_checked"
	// SubmissionStatusGraded indicates the submission has been evaluated.
	SubmissionStatusGraded = "graded"
)

// BeforeCreate assigns a UUID when none was provided.
func (s *Submission) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// IsGraded reports whether the submission has a final grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// StatusAfterPlagiarismCheck returns the status a submission moves to once a
// plagiarism scan completes. Graded submissions never move back.
func (s Submission) StatusAfterPlagiarismCheck() string {
	if s.IsGraded() {
		return SubmissionStatusGraded
	}
	return SubmissionStatusPlagiarismChecked
}

// StatusAfterGrading returns the status a submission moves to once graded.
func (s Submission) StatusAfterGrading() string {
	return SubmissionStatusGraded
}
