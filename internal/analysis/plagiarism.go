package analysis

import (
	"encoding/json"
	"math"
	"strings"
)

// RiskLevel buckets a plagiarism risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// PlagiarizedThreshold is the score above which a submission is flagged.
const PlagiarizedThreshold = 70

const mediumThreshold = 30

// ClassifyRisk maps a score to its level: above 70 high, above 30 medium.
func ClassifyRisk(score int) RiskLevel {
	switch {
	case score > PlagiarizedThreshold:
		return RiskHigh
	case score > mediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// SuspiciousSection is an excerpt the model considered suspicious.
type SuspiciousSection struct {
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// MarshalJSON writes the passage under both "text" and "excerpt" so portal
// clients reading either name see it.
func (s SuspiciousSection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Text    string `json:"text"`
		Excerpt string `json:"excerpt"`
		Reason  string `json:"reason"`
	}{Text: s.Text, Excerpt: s.Text, Reason: s.Reason})
}

// PlagiarismResult is the normalized plagiarism indicator report.
type PlagiarismResult struct {
	RiskScore          int                 `json:"riskScore"`
	RiskLevel          RiskLevel           `json:"riskLevel"`
	SuspiciousSections []SuspiciousSection `json:"suspiciousSections"`
	Recommendations    []string            `json:"recommendations"`
	OverallAssessment  string              `json:"overallAssessment"`
}

// IsPlagiarized reports whether the score crosses the flagging threshold.
func (r PlagiarismResult) IsPlagiarized() bool {
	return r.RiskScore > PlagiarizedThreshold
}

const neutralRiskScore = 50

// DegradedPlagiarism is the report used when the model reply cannot be read.
// The raw reply is kept as the assessment so a reviewer can still read it.
func DegradedPlagiarism(raw string) PlagiarismResult {
	assessment := strings.TrimSpace(raw)
	if assessment == "" {
		assessment = "Automated plagiarism analysis was inconclusive."
	}
	return PlagiarismResult{
		RiskScore:          neutralRiskScore,
		RiskLevel:          ClassifyRisk(neutralRiskScore),
		SuspiciousSections: []SuspiciousSection{},
		Recommendations:    []string{"Manual review recommended: the automated analysis could not be interpreted."},
		OverallAssessment:  assessment,
	}
}

// DecodePlagiarism reads a model plagiarism reply, clamping the score to [0, 100].
func DecodePlagiarism(raw string) Decoded[PlagiarismResult] {
	fields, reason := decodeFields(raw)
	if fields == nil {
		return Decoded[PlagiarismResult]{Value: DegradedPlagiarism(raw), Outcome: OutcomeDegraded, Reason: reason}
	}

	score := neutralRiskScore
	if value, ok := fields.number("riskScore", "risk_score"); ok {
		score = int(math.Round(clamp(value, 0, 100)))
	}

	result := PlagiarismResult{
		RiskScore:          score,
		RiskLevel:          ClassifyRisk(score),
		SuspiciousSections: decodeSections(fields),
		Recommendations:    fields.strings("recommendations"),
	}
	if assessment, ok := fields.text("overallAssessment", "overall_assessment"); ok {
		result.OverallAssessment = assessment
	}

	return Decoded[PlagiarismResult]{Value: result, Outcome: OutcomeParsed}
}

func decodeSections(fields fieldSet) []SuspiciousSection {
	sections := []SuspiciousSection{}
	value, ok := fields.lookup("suspiciousSections", "suspicious_sections")
	if !ok {
		return sections
	}

	var items []json.RawMessage
	if err := json.Unmarshal(value, &items); err != nil {
		return sections
	}

	for _, item := range items {
		var plain string
		if err := json.Unmarshal(item, &plain); err == nil {
			if plain = strings.TrimSpace(plain); plain != "" {
				sections = append(sections, SuspiciousSection{Text: plain})
			}
			continue
		}

		var entry map[string]json.RawMessage
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		section := fieldSet(entry)
		text, _ := section.text("text", "excerpt")
		why, _ := section.text("reason")
		if text == "" && why == "" {
			continue
		}
		sections = append(sections, SuspiciousSection{Text: text, Reason: why})
	}

	return sections
}
