package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-assess-api/internal/models"
)

// GradeRepository stores grading runs.
type GradeRepository interface {
	// Record inserts the grade with its criteria rows and applies update to the
	// graded submission in one transaction.
	Record(ctx context.Context, grade *models.SubmissionGrade, update SubmissionUpdate) error
	ListBySubmission(ctx context.Context, submissionID string) ([]models.SubmissionGrade, error)
}

type gradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository instantiates the repository.
func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) Record(ctx context.Context, grade *models.SubmissionGrade, update SubmissionUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(grade).Error; err != nil {
			return err
		}
		return applySubmissionUpdate(tx, grade.SubmissionID, update)
	})
}

func (r *gradeRepository) ListBySubmission(ctx context.Context, submissionID string) ([]models.SubmissionGrade, error) {
	var grades []models.SubmissionGrade
	err := r.db.WithContext(ctx).
		Preload("CriteriaGrades").
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Find(&grades).Error
	if err != nil {
		return nil, err
	}

	return grades, nil
}
