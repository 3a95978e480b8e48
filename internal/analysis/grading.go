package analysis

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/noah-isme/gema-assess-api/internal/models"
)

// Source tells where a grade came from.
type Source string

const (
	SourceAI       Source = models.GradeSourceAI
	SourceFallback Source = models.GradeSourceFallback
)

const defaultFeedback = "No feedback provided"

// DimensionScores holds the four generic dimension scores, each out of DimensionMaxPoints.
type DimensionScores struct {
	Content    float64 `json:"content"`
	Structure  float64 `json:"structure"`
	Grammar    float64 `json:"grammar"`
	Creativity float64 `json:"creativity"`
}

// CriterionScore is the score one rubric criterion received.
type CriterionScore struct {
	CriterionID string  `json:"-"`
	Score       float64 `json:"score"`
	MaxPoints   int     `json:"max_points"`
	Feedback    string  `json:"feedback"`
}

// GradingResult is a normalized grade, independent of where it came from.
type GradingResult struct {
	Source       Source
	OverallScore float64
	MaxPoints    int
	Dimensions   DimensionScores
	Feedback     string
	Strengths    []string
	Improvements []string
	// RubricBreakdown is keyed by criterion name; nil when no rubric applied.
	RubricBreakdown map[string]CriterionScore
	Note            string
}

// DecodeGrading reads a model grading reply. Scores are clamped to their
// ranges; fields that are missing or unreadable get neutral defaults. When no
// JSON object can be read, the raw text becomes the feedback and the result is
// marked degraded.
func DecodeGrading(raw string, maxPoints int, rubric *models.Rubric) Decoded[GradingResult] {
	if maxPoints <= 0 {
		maxPoints = models.DefaultMaxPoints
	}
	maxScore := float64(maxPoints)
	neutralOverall := math.Floor(0.8 * maxScore)
	neutralDimension := math.Floor(0.8 * DimensionMaxPoints)

	fields, reason := decodeFields(raw)
	if fields == nil {
		feedback := strings.TrimSpace(raw)
		if feedback == "" {
			feedback = defaultFeedback
		}
		return Decoded[GradingResult]{
			Value: GradingResult{
				Source:       SourceAI,
				OverallScore: neutralOverall,
				MaxPoints:    maxPoints,
				Dimensions: DimensionScores{
					Content:    neutralDimension,
					Structure:  neutralDimension,
					Grammar:    neutralDimension,
					Creativity: neutralDimension,
				},
				Feedback:     feedback,
				Strengths:    []string{},
				Improvements: []string{},
			},
			Outcome: OutcomeDegraded,
			Reason:  reason,
		}
	}

	dimension := func(keys ...string) float64 {
		value, ok := fields.number(keys...)
		if !ok {
			return neutralDimension
		}
		return clamp(value, 0, DimensionMaxPoints)
	}

	result := GradingResult{
		Source:    SourceAI,
		MaxPoints: maxPoints,
		Dimensions: DimensionScores{
			Content:    dimension("content_score", "contentScore"),
			Structure:  dimension("structure_score", "structureScore"),
			Grammar:    dimension("grammar_score", "grammarScore"),
			Creativity: dimension("creativity_score", "creativityScore"),
		},
		Strengths:    fields.strings("strengths"),
		Improvements: fields.strings("improvements"),
	}

	if overall, ok := fields.number("overall_score", "overallScore", "score"); ok {
		result.OverallScore = clamp(overall, 0, maxScore)
	} else {
		result.OverallScore = neutralOverall
	}

	if feedback, ok := fields.text("detailed_feedback", "detailedFeedback", "feedback"); ok {
		result.Feedback = feedback
	} else {
		result.Feedback = defaultFeedback
	}

	if rubric != nil && len(rubric.Criteria) > 0 {
		result.RubricBreakdown = decodeBreakdown(fields, rubric.OrderedCriteria())
	}

	return Decoded[GradingResult]{Value: result, Outcome: OutcomeParsed}
}

type breakdownEntry struct {
	Score    json.RawMessage `json:"score"`
	Feedback string          `json:"feedback"`
}

func decodeBreakdown(fields fieldSet, criteria []models.RubricCriterion) map[string]CriterionScore {
	entries := map[string]breakdownEntry{}
	if value, ok := fields.lookup("rubric_breakdown", "rubricBreakdown"); ok {
		var parsed map[string]breakdownEntry
		if err := json.Unmarshal(value, &parsed); err == nil {
			for name, entry := range parsed {
				entries[strings.ToLower(strings.TrimSpace(name))] = entry
			}
		}
	}

	breakdown := make(map[string]CriterionScore, len(criteria))
	found := 0
	for _, criterion := range criteria {
		limit := float64(criterion.MaxPoints)
		score := CriterionScore{
			CriterionID: criterion.ID,
			Score:       math.Floor(0.8 * limit),
			MaxPoints:   criterion.MaxPoints,
		}

		entry, hasEntry := entries[strings.ToLower(strings.TrimSpace(criterion.Name))]
		if hasEntry {
			score.Feedback = strings.TrimSpace(entry.Feedback)
		}

		value, ok := 0.0, false
		if hasEntry && len(entry.Score) > 0 {
			value, ok = parseNumber(entry.Score)
		}
		if !ok {
			value, ok = fields.number(CriterionScoreKey(criterion.Name))
		}
		if ok {
			score.Score = clamp(value, 0, limit)
			found++
		}

		breakdown[criterion.Name] = score
	}

	if found == 0 {
		return nil
	}
	return breakdown
}
