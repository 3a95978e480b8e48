package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-assess-api/internal/models"
)

// AssignmentRepository reads assignment definitions.
type AssignmentRepository interface {
	GetByID(ctx context.Context, id string) (models.Assignment, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&assignment).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}
