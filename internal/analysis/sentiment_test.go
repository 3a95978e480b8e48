package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeywordSentimentPositive(t *testing.T) {
	result := KeywordSentiment("Excellent work, your argument is clear and strong.")

	require.Equal(t, SentimentPositive, result.Sentiment)
	require.Equal(t, 60, result.ConfidenceScore)
	require.Equal(t, ToneSupportive, result.EmotionalTone)
	require.Equal(t, PriorityLow, result.ImprovementPriority)
	require.Equal(t, []string{"Academic Writing", "Content Quality", "Structure"}, result.KeyThemes)
	require.Empty(t, result.FocusAreas)
	require.Len(t, result.Encouragements, 2)
	require.Contains(t, result.PersonalizedMessage, "Great work")
}

func TestKeywordSentimentNegative(t *testing.T) {
	result := KeywordSentiment("The thesis is weak and lacking evidence. Work on your citations.")

	require.Equal(t, SentimentNegative, result.Sentiment)
	require.Equal(t, 40, result.ConfidenceScore)
	require.Equal(t, ToneConstructive, result.EmotionalTone)
	require.Equal(t, PriorityHigh, result.ImprovementPriority)
	require.Equal(t, []string{"Review areas mentioned for improvement", "Address specific concerns raised"}, result.FocusAreas)
	require.Equal(t, []string{"Keep working hard and stay focused on your goals"}, result.Encouragements)
}

func TestKeywordSentimentNeutralBounds(t *testing.T) {
	result := KeywordSentiment("See attached notes.")

	require.Equal(t, SentimentNeutral, result.Sentiment)
	require.Equal(t, 30, result.ConfidenceScore)
	require.Equal(t, ToneNeutral, result.EmotionalTone)
	require.Equal(t, PriorityLow, result.ImprovementPriority)

	saturated := KeywordSentiment("good excellent great well done impressive clear strong")
	require.Equal(t, 85, saturated.ConfidenceScore)
}

func TestDecodeSentimentParsed(t *testing.T) {
	raw := `{"sentiment": "Positive", "confidenceScore": 140, "keyThemes": ["clarity"], "focusAreas": [], "encouragements": ["nice flow"], "personalizedMessage": "Keep going!", "emotionalTone": "cheerful", "improvementPriority": "LOW"}`

	decoded := DecodeSentiment(raw, "good work")

	require.False(t, decoded.Degraded())
	result := decoded.Value
	require.Equal(t, SentimentPositive, result.Sentiment)
	require.Equal(t, 100, result.ConfidenceScore)
	require.Equal(t, []string{"clarity"}, result.KeyThemes)
	require.Empty(t, result.FocusAreas)
	require.Equal(t, "Keep going!", result.PersonalizedMessage)
	require.Equal(t, ToneNeutral, result.EmotionalTone)
	require.Equal(t, PriorityLow, result.ImprovementPriority)
}

func TestDecodeSentimentDegradesToKeywords(t *testing.T) {
	feedback := "Good effort, but focus on structure."

	decoded := DecodeSentiment("Sorry, something went wrong.", feedback)

	require.True(t, decoded.Degraded())
	require.Equal(t, KeywordSentiment(feedback), decoded.Value)
}

func TestDecodeSentimentNonFiniteConfidenceUsesKeywords(t *testing.T) {
	feedback := "Excellent and clear work."
	for _, token := range []string{"NaN", "Inf", "-Infinity"} {
		result := DecodeSentiment(`{"sentiment": "positive", "confidenceScore": "`+token+`"}`, feedback).Value

		require.Equal(t, KeywordSentiment(feedback).ConfidenceScore, result.ConfidenceScore, token)
	}
}
