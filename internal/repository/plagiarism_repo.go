package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-assess-api/internal/models"
)

// PlagiarismReportRepository stores plagiarism scans.
type PlagiarismReportRepository interface {
	Record(ctx context.Context, report *models.PlagiarismReport, update SubmissionUpdate) error
	ListBySubmission(ctx context.Context, submissionID string) ([]models.PlagiarismReport, error)
}

type plagiarismReportRepository struct {
	db *gorm.DB
}

// NewPlagiarismReportRepository instantiates the repository.
func NewPlagiarismReportRepository(db *gorm.DB) PlagiarismReportRepository {
	return &plagiarismReportRepository{db: db}
}

func (r *plagiarismReportRepository) Record(ctx context.Context, report *models.PlagiarismReport, update SubmissionUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(report).Error; err != nil {
			return err
		}
		return applySubmissionUpdate(tx, report.SubmissionID, update)
	})
}

func (r *plagiarismReportRepository) ListBySubmission(ctx context.Context, submissionID string) ([]models.PlagiarismReport, error) {
	var reports []models.PlagiarismReport
	if err := r.db.WithContext(ctx).Where("submission_id = ?", submissionID).Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, err
	}

	return reports, nil
}
