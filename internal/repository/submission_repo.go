package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assess-api/internal/models"
)

// SubmissionUpdate lists the submission columns an analysis run writes. Nil
// fields are left untouched.
type SubmissionUpdate struct {
	Status           string
	Grade            *float64
	Feedback         *string
	PlagiarismScore  *int
	PlagiarismReport datatypes.JSON
	TeacherComments  *string
}

func (u SubmissionUpdate) columns() map[string]interface{} {
	values := map[string]interface{}{}
	if u.Status != "" {
		values["status"] = u.Status
	}
	if u.Grade != nil {
		values["grade"] = *u.Grade
	}
	if u.Feedback != nil {
		values["feedback"] = *u.Feedback
	}
	if u.PlagiarismScore != nil {
		values["plagiarism_score"] = *u.PlagiarismScore
	}
	if u.PlagiarismReport != nil {
		values["plagiarism_report"] = u.PlagiarismReport
	}
	if u.TeacherComments != nil {
		values["teacher_comments"] = *u.TeacherComments
	}
	return values
}

// SubmissionRepository reads submissions.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id string) (models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).Preload("Assignment").Where("id = ?", id).First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func applySubmissionUpdate(tx *gorm.DB, submissionID string, update SubmissionUpdate) error {
	columns := update.columns()
	if len(columns) == 0 {
		return nil
	}

	result := tx.Model(&models.Submission{}).Where("id = ?", submissionID).Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
