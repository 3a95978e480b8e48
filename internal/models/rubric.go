package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rubric groups weighted grading criteria defined by a teacher.
type Rubric struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	Name        string            `gorm:"size:255;not null" json:"name"`
	Description string            `gorm:"type:text" json:"description"`
	TotalPoints int               `json:"total_points"`
	Criteria    []RubricCriterion `gorm:"foreignKey:RubricID" json:"rubric_criteria"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// RubricCriterion is one scoring dimension of a rubric.
type RubricCriterion struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	RubricID    string `gorm:"size:36;index;not null" json:"rubric_id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	MaxPoints   int    `json:"max_points"`
	OrderIndex  int    `json:"order_index"`
}

// TableName matches the portal schema.
func (RubricCriterion) TableName() string {
	return "rubric_criteria"
}

// BeforeCreate assigns a UUID when none was provided.
func (r *Rubric) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate assigns a UUID when none was provided.
func (c *RubricCriterion) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// OrderedCriteria returns the criteria sorted by their order index.
func (r Rubric) OrderedCriteria() []RubricCriterion {
	criteria := make([]RubricCriterion, len(r.Criteria))
	copy(criteria, r.Criteria)
	sort.SliceStable(criteria, func(i, j int) bool {
		return criteria[i].OrderIndex < criteria[j].OrderIndex
	})
	return criteria
}
