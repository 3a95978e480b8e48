package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-assess-api/internal/models"
)

// RubricRepository reads rubrics with their criteria.
type RubricRepository interface {
	GetByID(ctx context.Context, id string) (models.Rubric, error)
}

type rubricRepository struct {
	db *gorm.DB
}

// NewRubricRepository instantiates the repository.
func NewRubricRepository(db *gorm.DB) RubricRepository {
	return &rubricRepository{db: db}
}

func (r *rubricRepository) GetByID(ctx context.Context, id string) (models.Rubric, error) {
	var rubric models.Rubric
	err := r.db.WithContext(ctx).
		Preload("Criteria", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("order_index ASC")
		}).
		Where("id = ?", id).
		First(&rubric).Error
	if err != nil {
		return models.Rubric{}, err
	}

	return rubric, nil
}
