package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-assess-api/internal/models"
	"github.com/noah-isme/gema-assess-api/internal/repository"
)

// ContentLoader returns the text behind a submission file URL.
type ContentLoader interface {
	Load(ctx context.Context, fileURL string) (string, error)
}

func loadSubmission(ctx context.Context, repo repository.SubmissionRepository, id string) (models.Submission, error) {
	submission, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, &NotFoundError{Entity: "Submission", ID: id}
		}
		return models.Submission{}, err
	}
	return submission, nil
}

func loadText(ctx context.Context, loader ContentLoader, submission models.Submission) (string, error) {
	text, err := loader.Load(ctx, submission.FileURL)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}
