package analysis

import (
	"fmt"
	"strings"

	"github.com/noah-isme/gema-assess-api/internal/models"
)

// FallbackNote is attached to every locally computed grade.
const FallbackNote = "This grade was generated using fallback logic due to AI service being temporarily unavailable."

const (
	basePercent    = 70
	structureBonus = 10
	lengthBonus    = 10
	brevityPenalty = 10
	minPercent     = 60
	maxPercent     = 90
	longWordCount  = 250
	shortWordCount = 50
)

var structureMarkers = []string{"introduction", "conclusion"}

// ContentSignals are the surface features the fallback grade is derived from.
type ContentSignals struct {
	Length       int
	WordCount    int
	HasStructure bool
}

// ReadSignals measures a submission's text.
func ReadSignals(content string) ContentSignals {
	trimmed := strings.TrimSpace(content)
	lower := strings.ToLower(trimmed)

	signals := ContentSignals{
		Length:    len(trimmed),
		WordCount: len(strings.Fields(trimmed)),
	}
	for _, marker := range structureMarkers {
		if strings.Contains(lower, marker) {
			signals.HasStructure = true
			break
		}
	}
	return signals
}

// Percent is the share of the maximum score the signals earn, in [60, 90].
func (s ContentSignals) Percent() int {
	percent := basePercent
	if s.HasStructure {
		percent += structureBonus
	}
	if s.WordCount >= longWordCount {
		percent += lengthBonus
	}
	if s.WordCount < shortWordCount {
		percent -= brevityPenalty
	}

	if percent < minPercent {
		return minPercent
	}
	if percent > maxPercent {
		return maxPercent
	}
	return percent
}

// FallbackGrade computes a deterministic approximate grade from content
// signals alone. It is used only when the model cannot be reached.
func FallbackGrade(assignment models.Assignment, content string, rubric *models.Rubric) GradingResult {
	maxPoints := assignment.EffectiveMaxPoints()
	signals := ReadSignals(content)
	percent := signals.Percent()

	structureScore := 16.0
	if signals.HasStructure {
		structureScore = 20
	}

	result := GradingResult{
		Source:       SourceFallback,
		OverallScore: float64(maxPoints * percent / 100),
		MaxPoints:    maxPoints,
		Dimensions: DimensionScores{
			Content:    19,
			Structure:  structureScore,
			Grammar:    18,
			Creativity: 17,
		},
		Feedback: fallbackFeedback(signals),
		Strengths: []string{
			"Completed the assignment submission",
			"Demonstrated effort in addressing the topic",
			"Showed understanding of basic concepts",
		},
		Improvements: []string{
			"Consider adding more specific examples",
			"Review grammar and sentence structure",
			"Expand on key points with more detail",
		},
		Note: FallbackNote,
	}

	if rubric != nil && len(rubric.Criteria) > 0 {
		criteria := rubric.OrderedCriteria()
		result.RubricBreakdown = make(map[string]CriterionScore, len(criteria))
		for _, criterion := range criteria {
			result.RubricBreakdown[criterion.Name] = CriterionScore{
				CriterionID: criterion.ID,
				Score:       float64(criterion.MaxPoints * percent / 100),
				MaxPoints:   criterion.MaxPoints,
				Feedback:    fmt.Sprintf("Preliminary score for %s based on submission length and organization.", criterion.Name),
			}
		}
	}

	return result
}

func fallbackFeedback(signals ContentSignals) string {
	organization := "could benefit from better organization"
	if signals.HasStructure {
		organization = "shows good organization"
	}

	return fmt.Sprintf("Your submission has been reviewed using automated grading. "+
		"The content shows effort and addresses the assignment requirements. "+
		"The submission contains %d words and %s. "+
		"Consider expanding on key points and providing more detailed examples to strengthen your work. "+
		"Please note that this is a preliminary grade and may be reviewed by your instructor.",
		signals.WordCount, organization)
}
