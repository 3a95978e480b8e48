package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-assess-api/internal/models"
)

// FeedbackAnalysisRepository stores the current sentiment analysis per student.
type FeedbackAnalysisRepository interface {
	// Upsert inserts or replaces the student's analysis and returns the stored row.
	Upsert(ctx context.Context, analysis models.StudentFeedbackAnalysis) (models.StudentFeedbackAnalysis, error)
	GetByStudentID(ctx context.Context, studentID string) (models.StudentFeedbackAnalysis, error)
}

type feedbackAnalysisRepository struct {
	db *gorm.DB
}

// NewFeedbackAnalysisRepository instantiates the repository.
func NewFeedbackAnalysisRepository(db *gorm.DB) FeedbackAnalysisRepository {
	return &feedbackAnalysisRepository{db: db}
}

func (r *feedbackAnalysisRepository) Upsert(ctx context.Context, analysis models.StudentFeedbackAnalysis) (models.StudentFeedbackAnalysis, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sentiment_analysis", "feedback_count", "analyzed_at", "updated_at"}),
	}).Create(&analysis).Error
	if err != nil {
		return models.StudentFeedbackAnalysis{}, err
	}

	return r.GetByStudentID(ctx, analysis.StudentID)
}

func (r *feedbackAnalysisRepository) GetByStudentID(ctx context.Context, studentID string) (models.StudentFeedbackAnalysis, error) {
	var analysis models.StudentFeedbackAnalysis
	if err := r.db.WithContext(ctx).Where("student_id = ?", studentID).First(&analysis).Error; err != nil {
		return models.StudentFeedbackAnalysis{}, err
	}

	return analysis, nil
}
