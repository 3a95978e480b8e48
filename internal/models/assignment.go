package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultMaxPoints is used when an assignment does not declare a maximum score.
const DefaultMaxPoints = 100

// Assignment represents a course assignment definition owned by a teacher.
type Assignment struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	CourseName   string    `gorm:"size:255" json:"course_name"`
	Instructions string    `gorm:"type:text" json:"instructions"`
	MaxPoints    int       `json:"max_points"`
	RubricID     *string   `gorm:"size:36" json:"rubric_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when none was provided.
func (a *Assignment) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// EffectiveMaxPoints returns the maximum score, falling back to DefaultMaxPoints.
func (a Assignment) EffectiveMaxPoints() int {
	if a.MaxPoints <= 0 {
		return DefaultMaxPoints
	}
	return a.MaxPoints
}
