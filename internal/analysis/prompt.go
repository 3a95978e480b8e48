package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/noah-isme/gema-assess-api/internal/models"
)

// DimensionMaxPoints is the ceiling of each generic scoring dimension.
const DimensionMaxPoints = 25

var whitespaceRun = regexp.MustCompile(`\s+`)

type subjectRule struct {
	keywords []string
	guidance string
}

var subjectRules = []subjectRule{
	{
		keywords: []string{"essay", "english", "writing", "literature"},
		guidance: "Focus on argument quality, evidence, organization, and writing mechanics.",
	},
	{
		keywords: []string{"computer", "programming", "code"},
		guidance: "Evaluate code correctness, logic, efficiency, style, and documentation.",
	},
	{
		keywords: []string{"math", "algebra", "calculus", "geometry"},
		guidance: "Assess problem-solving approach, mathematical reasoning, accuracy of calculations, and clarity of explanations.",
	},
	{
		keywords: []string{"science", "biology", "chemistry", "physics"},
		guidance: "Consider scientific understanding, data analysis, methodology, and communication of findings.",
	},
}

const genericGuidance = "Evaluate based on subject-specific standards and assignment requirements."

// SubjectGuidance picks grading emphasis from keywords in the course name or title.
func SubjectGuidance(courseName, title string) string {
	haystack := strings.ToLower(courseName + " " + title)
	for _, rule := range subjectRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(haystack, keyword) {
				return rule.guidance
			}
		}
	}
	return genericGuidance
}

// CriterionScoreKey is the flat JSON key requested for a rubric criterion score.
func CriterionScoreKey(name string) string {
	key := whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	return key + "_score"
}

// BuildGradingPrompt renders the grading instruction for one submission.
func BuildGradingPrompt(assignment models.Assignment, content string, rubric *models.Rubric) string {
	maxPoints := assignment.EffectiveMaxPoints()
	course := assignment.CourseName
	if strings.TrimSpace(course) == "" {
		course = "this course"
	}

	instructions := strings.TrimSpace(assignment.Instructions)
	if instructions == "" {
		instructions = "No specific instructions provided"
	}

	var criteria []models.RubricCriterion
	if rubric != nil {
		criteria = rubric.OrderedCriteria()
	}

	b := strings.Builder{}
	fmt.Fprintf(&b, "You are an expert educator grading a student submission for %s. %s\n\n", course, SubjectGuidance(assignment.CourseName, assignment.Title))

	b.WriteString("Assignment Details:\n")
	fmt.Fprintf(&b, "- Title: %s\n", assignment.Title)
	fmt.Fprintf(&b, "- Course: %s\n", course)
	fmt.Fprintf(&b, "- Instructions: %s\n", instructions)
	fmt.Fprintf(&b, "- Maximum Points: %d\n\n", maxPoints)

	b.WriteString("Student Submission Content:\n")
	b.WriteString(strings.TrimSpace(content))
	b.WriteString("\n\n")

	if len(criteria) > 0 {
		b.WriteString("IMPORTANT: Use this specific grading rubric for assessment:\n")
		fmt.Fprintf(&b, "Rubric: %s - %s\n", rubric.Name, rubric.Description)
		fmt.Fprintf(&b, "Total Points: %d\n\n", rubric.TotalPoints)
		b.WriteString("Criteria to evaluate:\n")
		for _, criterion := range criteria {
			fmt.Fprintf(&b, "- %s (%d pts): %s\n", criterion.Name, criterion.MaxPoints, criterion.Description)
		}
		b.WriteString("\nScore every criterion individually, never above its points, and give specific feedback for each one.\n\n")
	} else {
		fmt.Fprintf(&b, "Since no specific rubric is provided, score these four dimensions out of %d points each:\n", DimensionMaxPoints)
		b.WriteString("- Content: depth, accuracy and relevance\n")
		b.WriteString("- Structure: organization and flow\n")
		b.WriteString("- Grammar: mechanics, spelling and style\n")
		b.WriteString("- Creativity: originality and insight\n\n")
	}

	b.WriteString("Respond with ONLY a JSON object in the following format:\n{\n")
	fmt.Fprintf(&b, "  \"overall_score\": <number between 0 and %d>,\n", maxPoints)
	if len(criteria) > 0 {
		for _, criterion := range criteria {
			fmt.Fprintf(&b, "  \"%s\": <number between 0 and %d>,\n", CriterionScoreKey(criterion.Name), criterion.MaxPoints)
		}
	} else {
		for _, key := range []string{"content_score", "structure_score", "grammar_score", "creativity_score"} {
			fmt.Fprintf(&b, "  \"%s\": <number between 0 and %d>,\n", key, DimensionMaxPoints)
		}
	}
	b.WriteString("  \"detailed_feedback\": \"<comprehensive feedback explaining the grade>\",\n")
	b.WriteString("  \"strengths\": [\"<specific strength>\", \"<specific strength>\", \"<specific strength>\"],\n")
	b.WriteString("  \"improvements\": [\"<specific improvement>\", \"<specific improvement>\", \"<specific improvement>\"],\n")
	if len(criteria) > 0 {
		b.WriteString("  \"rubric_breakdown\": {\n")
		for i, criterion := range criteria {
			fmt.Fprintf(&b, "    %q: {\"score\": <points earned>, \"max_points\": %d, \"feedback\": \"<feedback for this criterion>\"}", criterion.Name, criterion.MaxPoints)
			if i < len(criteria)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString("  }\n")
	} else {
		b.WriteString("  \"rubric_breakdown\": null\n")
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "Be constructive and specific. The overall_score is out of %d points regardless of the rubric total.", maxPoints)

	return b.String()
}

// BuildPlagiarismPrompt renders the plagiarism indicator instruction.
func BuildPlagiarismPrompt(content string) string {
	return fmt.Sprintf(`You are a plagiarism detection assistant. Analyze the given text and identify:
1. Potential plagiarized sections (sentences that seem copied without attribution)
2. Suspicious patterns (overly formal language inconsistent with student writing)
3. Missing citations where they should be present
4. Overall plagiarism risk score (0-100)

Return ONLY a JSON object with:
{
  "riskScore": <integer 0-100>,
  "suspiciousSections": [{"text": "<excerpt>", "reason": "<why it is suspicious>"}],
  "recommendations": ["<recommendation>", "<recommendation>"],
  "overallAssessment": "<one paragraph assessment>"
}

Student submission to analyze:

%s`, strings.TrimSpace(content))
}

// BuildSentimentPrompt renders the teacher-feedback sentiment instruction.
func BuildSentimentPrompt(feedback string) string {
	return fmt.Sprintf(`You are a feedback sentiment analyzer for educational purposes. Analyze the following teacher feedback and provide insights for the student.

Teacher Feedback:
"""
%s
"""

Provide ONLY a JSON object with the following structure:
{
  "sentiment": "positive" | "neutral" | "negative",
  "confidenceScore": <integer 0-100>,
  "keyThemes": ["theme1", "theme2", "theme3"],
  "focusAreas": ["specific area to improve", "another area"],
  "encouragements": ["positive point 1", "positive point 2"],
  "personalizedMessage": "<a direct, encouraging message with specific actionable advice>",
  "emotionalTone": "constructive" | "critical" | "supportive" | "neutral",
  "improvementPriority": "high" | "medium" | "low"
}

Be specific and actionable. Focus on what the student can do better next time.`, strings.TrimSpace(feedback))
}
