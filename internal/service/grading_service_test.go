package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-assess-api/internal/analysis"
	"github.com/noah-isme/gema-assess-api/internal/dto"
	"github.com/noah-isme/gema-assess-api/internal/events"
	"github.com/noah-isme/gema-assess-api/internal/models"
	"github.com/noah-isme/gema-assess-api/pkg/ai"
)

type gradingFixture struct {
	submissions *memorySubmissions
	assignments *memoryAssignments
	rubrics     *memoryRubrics
	grades      *recordingGrades
	events      *capturedEvents
}

func newGradingFixture() *gradingFixture {
	rubricID := "rubric-1"
	assignment := models.Assignment{ID: "assignment-1", Title: "Persuasive Essay", CourseName: "English", MaxPoints: 50, RubricID: &rubricID}
	rubric := models.Rubric{ID: rubricID, Name: "Essay", TotalPoints: 50, Criteria: []models.RubricCriterion{
		{ID: "crit-2", RubricID: rubricID, Name: "Evidence", MaxPoints: 20, OrderIndex: 2},
		{ID: "crit-1", RubricID: rubricID, Name: "Thesis", MaxPoints: 30, OrderIndex: 1},
	}}
	submission := models.Submission{ID: "sub-1", AssignmentID: assignment.ID, StudentID: "student-1", FileURL: "https://files/essay.txt", Status: models.SubmissionStatusPlagiarismChecked, Assignment: assignment}

	return &gradingFixture{
		submissions: &memorySubmissions{items: map[string]models.Submission{submission.ID: submission}},
		assignments: &memoryAssignments{items: map[string]models.Assignment{assignment.ID: assignment}},
		rubrics:     &memoryRubrics{items: map[string]models.Rubric{rubricID: rubric}},
		grades:      &recordingGrades{},
		events:      &capturedEvents{},
	}
}

func (f *gradingFixture) service(loader ContentLoader, generator ai.Generator) GradingService {
	return NewGradingService(f.submissions, f.assignments, f.rubrics, f.grades, loader, generator, f.events, newValidator(), zerolog.Nop())
}

const rubricReply = "```json\n" + `{
  "overall_score": 44,
  "thesis_score": 27,
  "evidence_score": 17,
  "detailed_feedback": "Persuasive and well sourced.",
  "strengths": ["clear claim"],
  "improvements": ["vary sentence length"],
  "rubric_breakdown": {
    "Thesis": {"score": 27, "max_points": 30, "feedback": "Focused"},
    "Evidence": {"score": 17, "max_points": 20, "feedback": "Good sources"}
  }
}` + "\n```"

func TestGradingServiceGradesWithAssignmentRubric(t *testing.T) {
	fixture := newGradingFixture()
	generator := &replyGenerator{replies: []string{rubricReply}}
	svc := fixture.service(staticLoader{text: "My essay argues for renewable energy."}, generator)

	resp, err := svc.Grade(context.Background(), dto.GradeSubmissionRequest{SubmissionID: "sub-1"})
	require.NoError(t, err)

	require.True(t, resp.Success)
	require.Equal(t, "grade-1", resp.GradeID)
	require.Equal(t, 44.0, resp.AIGrade)
	require.Equal(t, 50, resp.MaxPoints)
	require.Equal(t, analysis.SourceAI, resp.Source)
	require.Empty(t, resp.Note)
	require.Equal(t, "AI grading completed successfully. Score: 44/50", resp.Message)
	require.Equal(t, 27.0, resp.RubricBreakdown["Thesis"].Score)

	require.Len(t, generator.prompts, 1)
	request := generator.prompts[0]
	require.Equal(t, float32(0.3), request.Temperature)
	require.Equal(t, 40, request.TopK)
	require.Equal(t, 2048, request.MaxOutputTokens)
	require.Contains(t, request.Prompt, "My essay argues for renewable energy.")
	require.Contains(t, request.Prompt, `"thesis_score"`)

	require.Len(t, fixture.grades.records, 1)
	record := fixture.grades.records[0]
	require.Equal(t, models.SubmissionStatusGraded, record.update.Status)
	require.Equal(t, 44.0, *record.update.Grade)
	require.Equal(t, "Persuasive and well sourced.", *record.update.Feedback)
	require.Equal(t, models.GradeSourceAI, record.grade.Source)
	require.Equal(t, "rubric-1", *record.grade.RubricID)
	require.Equal(t, rubricReply, record.grade.AIReview)
	require.JSONEq(t, `["clear claim"]`, string(record.grade.Strengths))
	require.Len(t, record.grade.CriteriaGrades, 2)
	require.Equal(t, "crit-1", record.grade.CriteriaGrades[0].CriteriaID)
	require.Equal(t, 27.0, record.grade.CriteriaGrades[0].AIScore)
	require.Equal(t, "Focused", record.grade.CriteriaGrades[0].AIComment)

	require.Len(t, fixture.events.events, 1)
	require.Equal(t, events.KindGrading, fixture.events.events[0].Kind)
	require.Equal(t, "grade-1", fixture.events.events[0].RecordID)
}

func TestGradingServiceRetriesOverloadedProviderThenGrades(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"The model is overloaded"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"overall_score\": 38, \"detailed_feedback\": \"Good\"}"}]}}]}`))
	}))
	defer server.Close()

	gemini, err := ai.NewGeminiClient(ai.GeminiConfig{APIKey: "key", BaseURL: server.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)

	var waits []time.Duration
	retrier := ai.NewRetrier(gemini, ai.RetryConfig{
		Logger: zerolog.Nop(),
		Sleep: func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	})

	fixture := newGradingFixture()
	svc := fixture.service(staticLoader{text: "Essay body"}, retrier)

	resp, err := svc.Grade(context.Background(), dto.GradeSubmissionRequest{SubmissionID: "sub-1", RubricID: ""})
	require.NoError(t, err)

	require.Equal(t, int32(3), hits.Load())
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, waits)
	require.Equal(t, analysis.SourceAI, resp.Source)
	require.Equal(t, 38.0, resp.AIGrade)
	require.Len(t, fixture.grades.records, 1)
}

func TestGradingServiceFallsBackWhenProviderExhausted(t *testing.T) {
	fixture := newGradingFixture()
	exhausted := &ai.ExhaustedError{Attempts: 3, Last: &ai.TransientError{Provider: "stub", StatusCode: 503, Err: errors.New("busy")}}
	generator := &replyGenerator{errs: []error{exhausted}}
	text := "Introduction " + strings.Repeat("word ", 300) + "Conclusion"
	svc := fixture.service(staticLoader{text: text}, generator)

	first, err := svc.Grade(context.Background(), dto.GradeSubmissionRequest{SubmissionID: "sub-1"})
	require.NoError(t, err)

	require.Equal(t, analysis.SourceFallback, first.Source)
	require.Equal(t, 45.0, first.AIGrade)
	require.Equal(t, analysis.FallbackNote, first.Note)
	require.Equal(t, "Fallback grading completed (AI service temporarily unavailable). Score: 45/50", first.Message)
	require.Equal(t, 27.0, first.RubricBreakdown["Thesis"].Score)
	require.Equal(t, 18.0, first.RubricBreakdown["Evidence"].Score)
	require.Len(t, first.Strengths, 3)

	record := fixture.grades.records[0]
	require.Equal(t, models.GradeSourceFallback, record.grade.Source)
	require.Empty(t, record.grade.AIReview)
	require.Equal(t, 20.0, record.grade.StructureScore)

	generator.errs = append(generator.errs, exhausted)
	second, err := svc.Grade(context.Background(), dto.GradeSubmissionRequest{SubmissionID: "sub-1"})
	require.NoError(t, err)
	require.Equal(t, first.AIGrade, second.AIGrade)
	require.Equal(t, first.RubricBreakdown, second.RubricBreakdown)
	require.Len(t, fixture.grades.records, 2)
}

func TestGradingServiceSurfacesPermanentUpstreamError(t *testing.T) {
	fixture := newGradingFixture()
	generator := &replyGenerator{errs: []error{&ai.UpstreamError{Provider: "stub", StatusCode: 400, Body: "bad request"}}}
	svc := fixture.service(staticLoader{text: "Essay"}, generator)

	_, err := svc.Grade(context.Background(), dto.GradeSubmissionRequest{SubmissionID: "sub-1"})
	require.Error(t, err)

	var upstream *ai.UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.Equal(t, 400, upstream.StatusCode)
	require.Empty(t, fixture.grades.records)
}

func TestGradingServiceDegradedReplyUsesDefaults(t *testing.T) {
	fixture := newGradingFixture()
	generator := &replyGenerator{replies: []string{"This essay deserves a B."}}
	svc := fixture.service(staticLoader{text: "Essay"}, generator)

	resp, err := svc.Grade(context.Background(), dto.GradeSubmissionRequest{SubmissionID: "sub-1"})
	require.NoError(t, err)

	require.Equal(t, analysis.SourceAI, resp.Source)
	require.Equal(t, 40.0, resp.AIGrade)
	require.Equal(t, "This essay deserves a B.", resp.Feedback)
	require.NotNil(t, resp.Strengths)
	require.Empty(t, resp.Strengths)
	require.Nil(t, resp.RubricBreakdown)
	require.Empty(t, fixture.grades.records[0].grade.CriteriaGrades)
}

func TestGradingServiceLookups(t *testing.T) {
	t.Run("missing submission", func(t *testing.T) {
		fixture := newGradingFixture()
		svc := fixture.service(staticLoader{text: "Essay"}, &replyGenerator{})

		_, err := svc.Grade(context.Background(), dto.GradeSubmissionRequest{SubmissionID: "nope"})
		require.ErrorIs(t, err, ErrNotFound)
		require.Equal(t, "Submission not found", err.Error())
	})

	t.Run("explicit rubric must exist", func(t *testing.T) {
		fixture := newGradingFixture()
		svc := fixture.service(staticLoader{text: "Essay"}, &replyGenerator{})

		_, err := svc.Grade(context.Background(), dto.GradeSubmissionRequest{SubmissionID: "sub-1", RubricID: "rubric-x"})
		require.ErrorIs(t, err, ErrNotFound)
		require.Equal(t, "Rubric not found", err.Error())
	})

	t.Run("missing assignment rubric is ignored", func(t *testing.T) {
		fixture := newGradingFixture()
		delete(fixture.rubrics.items, "rubric-1")
		generator := &replyGenerator{replies: []string{`{"overall_score": 30}`}}
		svc := fixture.service(staticLoader{text: "Essay"}, generator)

		resp, err := svc.Grade(context.Background(), dto.GradeSubmissionRequest{SubmissionID: "sub-1"})
		require.NoError(t, err)
		require.Nil(t, resp.RubricBreakdown)
		require.Nil(t, fixture.grades.records[0].grade.RubricID)
		require.Contains(t, generator.prompts[0].Prompt, "creativity_score")
	})

	t.Run("explicit assignment", func(t *testing.T) {
		fixture := newGradingFixture()
		fixture.assignments.items["assignment-2"] = models.Assignment{ID: "assignment-2", Title: "Lab", MaxPoints: 10}
		generator := &replyGenerator{replies: []string{`{"overall_score": 99}`}}
		svc := fixture.service(staticLoader{text: "Essay"}, generator)

		resp, err := svc.Grade(context.Background(), dto.GradeSubmissionRequest{SubmissionID: "sub-1", AssignmentID: "assignment-2"})
		require.NoError(t, err)
		require.Equal(t, 10.0, resp.AIGrade)
		require.Equal(t, 10, resp.MaxPoints)

		_, err = svc.Grade(context.Background(), dto.GradeSubmissionRequest{SubmissionID: "sub-1", AssignmentID: "ghost"})
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGradingServiceRejectsBadInput(t *testing.T) {
	fixture := newGradingFixture()
	generator := &replyGenerator{}

	_, err := fixture.service(staticLoader{text: "Essay"}, generator).Grade(context.Background(), dto.GradeSubmissionRequest{})
	var validationErrs validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrs))

	_, err = fixture.service(staticLoader{text: "  \n"}, generator).Grade(context.Background(), dto.GradeSubmissionRequest{SubmissionID: "sub-1"})
	require.ErrorIs(t, err, ErrEmptyContent)
	require.Empty(t, generator.prompts)
}

func TestGradingServiceWrapsPersistenceFailure(t *testing.T) {
	fixture := newGradingFixture()
	fixture.grades.err = errDatabaseDown
	svc := fixture.service(staticLoader{text: "Essay"}, &replyGenerator{replies: []string{`{"overall_score": 30}`}})

	_, err := svc.Grade(context.Background(), dto.GradeSubmissionRequest{SubmissionID: "sub-1"})
	var persistence *PersistenceError
	require.True(t, errors.As(err, &persistence))
	require.Equal(t, "store grade", persistence.Op)
	require.ErrorIs(t, err, errDatabaseDown)
	require.Empty(t, fixture.events.events)
}
