package dto

import (
	"github.com/noah-isme/gema-assess-api/internal/analysis"
)

// GradeSubmissionRequest asks for an AI grade of one submission.
type GradeSubmissionRequest struct {
	SubmissionID string `json:"submissionId" validate:"required"`
	AssignmentID string `json:"assignmentId" validate:"omitempty"`
	RubricID     string `json:"rubricId" validate:"omitempty"`
}

// GradeSubmissionResponse is returned after a grade has been stored.
type GradeSubmissionResponse struct {
	Success         bool                               `json:"success"`
	GradeID         string                             `json:"gradeId"`
	AIGrade         float64                            `json:"aiGrade"`
	MaxPoints       int                                `json:"maxPoints"`
	Feedback        string                             `json:"feedback"`
	Strengths       []string                           `json:"strengths"`
	Improvements    []string                           `json:"improvements"`
	RubricBreakdown map[string]analysis.CriterionScore `json:"rubricBreakdown,omitempty"`
	Message         string                             `json:"message"`
	Note            string                             `json:"note,omitempty"`
	Source          analysis.Source                    `json:"source"`
}

// PlagiarismCheckRequest asks for a plagiarism indicator scan.
type PlagiarismCheckRequest struct {
	SubmissionID string `json:"submissionId" validate:"required"`
}

// PlagiarismCheckResponse wraps the scan result.
type PlagiarismCheckResponse struct {
	Success            bool                      `json:"success"`
	PlagiarismAnalysis analysis.PlagiarismResult `json:"plagiarismAnalysis"`
}

// FeedbackSentimentRequest asks for a reading of teacher feedback.
type FeedbackSentimentRequest struct {
	StudentID    string `json:"studentId" validate:"required"`
	FeedbackText string `json:"feedbackText" validate:"required"`
}

// FeedbackSentimentResponse carries the stored analysis.
type FeedbackSentimentResponse struct {
	Success           bool                       `json:"success"`
	SentimentAnalysis analysis.SentimentAnalysis `json:"sentimentAnalysis"`
	AnalysisID        string                     `json:"analysisId"`
}
