package analysis

import (
	"math"
	"strings"
)

// Sentiment values and tones reported for teacher feedback.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"

	ToneSupportive   = "supportive"
	ToneConstructive = "constructive"
	ToneCritical     = "critical"
	ToneNeutral      = "neutral"

	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// SentimentAnalysis is the student-facing reading of a teacher's feedback.
type SentimentAnalysis struct {
	Sentiment           string   `json:"sentiment"`
	ConfidenceScore     int      `json:"confidenceScore"`
	KeyThemes           []string `json:"keyThemes"`
	FocusAreas          []string `json:"focusAreas"`
	Encouragements      []string `json:"encouragements"`
	PersonalizedMessage string   `json:"personalizedMessage"`
	EmotionalTone       string   `json:"emotionalTone"`
	ImprovementPriority string   `json:"improvementPriority"`
}

var (
	positiveWords    = []string{"good", "excellent", "great", "well done", "impressive", "clear", "strong"}
	negativeWords    = []string{"poor", "weak", "unclear", "needs improvement", "lacking", "insufficient"}
	improvementWords = []string{"improve", "focus", "work on", "develop", "strengthen", "enhance"}

	sentiments = map[string]bool{SentimentPositive: true, SentimentNeutral: true, SentimentNegative: true}
	tones      = map[string]bool{ToneSupportive: true, ToneConstructive: true, ToneCritical: true, ToneNeutral: true}
	priorities = map[string]bool{PriorityHigh: true, PriorityMedium: true, PriorityLow: true}
)

func countMatches(text string, words []string) int {
	count := 0
	for _, word := range words {
		if strings.Contains(text, word) {
			count++
		}
	}
	return count
}

// KeywordSentiment derives an analysis from keyword counts alone.
func KeywordSentiment(feedback string) SentimentAnalysis {
	lower := strings.ToLower(feedback)
	positive := countMatches(lower, positiveWords)
	negative := countMatches(lower, negativeWords)
	improvement := countMatches(lower, improvementWords)

	sentiment := SentimentNeutral
	switch {
	case positive > negative:
		sentiment = SentimentPositive
	case negative > positive:
		sentiment = SentimentNegative
	}

	confidence := (positive + negative) * 20
	if confidence < 30 {
		confidence = 30
	}
	if confidence > 85 {
		confidence = 85
	}

	focusAreas := []string{}
	if improvement > 0 {
		focusAreas = append(focusAreas, "Review areas mentioned for improvement")
	}
	if negative > 0 {
		focusAreas = append(focusAreas, "Address specific concerns raised")
	}

	encouragements := []string{}
	if positive > 0 {
		encouragements = append(encouragements, "You have demonstrated strong skills in several areas")
	}
	encouragements = append(encouragements, "Keep working hard and stay focused on your goals")

	message := "Your teacher has provided valuable feedback. Take time to review it carefully and focus on the key points mentioned."
	switch sentiment {
	case SentimentPositive:
		message = "Great work! Your teacher recognizes your efforts. Keep up the good work and continue building on your strengths."
	case SentimentNegative:
		message = "Your teacher has identified some areas for improvement. Don't be discouraged - use this feedback as a roadmap for growth."
	}

	tone := ToneNeutral
	switch {
	case positive > negative:
		tone = ToneSupportive
	case improvement > 0:
		tone = ToneConstructive
	}

	priority := PriorityLow
	switch {
	case negative > 1:
		priority = PriorityHigh
	case improvement > 0:
		priority = PriorityMedium
	}

	return SentimentAnalysis{
		Sentiment:           sentiment,
		ConfidenceScore:     confidence,
		KeyThemes:           []string{"Academic Writing", "Content Quality", "Structure"},
		FocusAreas:          focusAreas,
		Encouragements:      encouragements,
		PersonalizedMessage: message,
		EmotionalTone:       tone,
		ImprovementPriority: priority,
	}
}

// DecodeSentiment reads a model sentiment reply. When no object can be read,
// the keyword analysis of feedback is returned as a degraded result.
// Enumerated fields outside their vocabulary become neutral, neutral and medium.
func DecodeSentiment(raw, feedback string) Decoded[SentimentAnalysis] {
	keyword := KeywordSentiment(feedback)

	fields, reason := decodeFields(raw)
	if fields == nil {
		return Decoded[SentimentAnalysis]{Value: keyword, Outcome: OutcomeDegraded, Reason: reason}
	}

	enum := func(allowed map[string]bool, fallback string, keys ...string) string {
		value, ok := fields.text(keys...)
		value = strings.ToLower(value)
		if !ok || !allowed[value] {
			return fallback
		}
		return value
	}

	result := SentimentAnalysis{
		Sentiment:           enum(sentiments, SentimentNeutral, "sentiment"),
		ConfidenceScore:     keyword.ConfidenceScore,
		KeyThemes:           fields.strings("keyThemes", "key_themes"),
		FocusAreas:          fields.strings("focusAreas", "focus_areas"),
		Encouragements:      fields.strings("encouragements"),
		PersonalizedMessage: keyword.PersonalizedMessage,
		EmotionalTone:       enum(tones, ToneNeutral, "emotionalTone", "emotional_tone"),
		ImprovementPriority: enum(priorities, PriorityMedium, "improvementPriority", "improvement_priority"),
	}

	if confidence, ok := fields.number("confidenceScore", "confidence_score"); ok {
		result.ConfidenceScore = int(math.Round(clamp(confidence, 0, 100)))
	}
	if message, ok := fields.text("personalizedMessage", "personalized_message"); ok {
		result.PersonalizedMessage = message
	}

	return Decoded[SentimentAnalysis]{Value: result, Outcome: OutcomeParsed}
}
