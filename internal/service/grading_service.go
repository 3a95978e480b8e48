package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assess-api/internal/analysis"
	"github.com/noah-isme/gema-assess-api/internal/dto"
	"github.com/noah-isme/gema-assess-api/internal/events"
	"github.com/noah-isme/gema-assess-api/internal/models"
	"github.com/noah-isme/gema-assess-api/internal/repository"
	"github.com/noah-isme/gema-assess-api/pkg/ai"
)

var gradingRequest = ai.Request{Temperature: 0.3, TopK: 40, TopP: 0.95, MaxOutputTokens: 2048}

// GradingService grades submissions with the AI provider, falling back to a
// heuristic grade when the provider stays unavailable.
type GradingService interface {
	Grade(ctx context.Context, req dto.GradeSubmissionRequest) (dto.GradeSubmissionResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	rubrics     repository.RubricRepository
	grades      repository.GradeRepository
	content     ContentLoader
	generator   ai.Generator
	publisher   events.Publisher
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewGradingService constructs a grading service. publisher may be nil.
func NewGradingService(submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, rubrics repository.RubricRepository, grades repository.GradeRepository, loader ContentLoader, generator ai.Generator, publisher events.Publisher, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: submissions,
		assignments: assignments,
		rubrics:     rubrics,
		grades:      grades,
		content:     loader,
		generator:   generator,
		publisher:   publisher,
		validator:   validate,
		logger:      logger.With().Str("component", "grading_service").Logger(),
	}
}

func (s *gradingService) Grade(ctx context.Context, req dto.GradeSubmissionRequest) (dto.GradeSubmissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.GradeSubmissionResponse{}, err
	}

	ctx, span := tracer.Start(ctx, "grading.grade")
	defer span.End()
	span.SetAttributes(attribute.String("submission_id", req.SubmissionID))

	response, err := s.grade(ctx, req)
	if err != nil {
		analysisResults.WithLabelValues("grading", outcomeFailed).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.GradeSubmissionResponse{}, err
	}
	return response, nil
}

func (s *gradingService) grade(ctx context.Context, req dto.GradeSubmissionRequest) (dto.GradeSubmissionResponse, error) {
	submission, err := loadSubmission(ctx, s.submissions, req.SubmissionID)
	if err != nil {
		return dto.GradeSubmissionResponse{}, err
	}

	assignment, err := s.resolveAssignment(ctx, submission, req.AssignmentID)
	if err != nil {
		return dto.GradeSubmissionResponse{}, err
	}

	rubric, err := s.resolveRubric(ctx, assignment, req.RubricID)
	if err != nil {
		return dto.GradeSubmissionResponse{}, err
	}

	text, err := loadText(ctx, s.content, submission)
	if err != nil {
		return dto.GradeSubmissionResponse{}, err
	}

	logger := s.logger.With().Str("submission_id", submission.ID).Logger()

	request := gradingRequest
	request.Prompt = analysis.BuildGradingPrompt(assignment, text, rubric)

	var (
		result  analysis.GradingResult
		raw     string
		outcome = outcomeParsed
	)
	raw, err = s.generator.Generate(ctx, request)
	switch {
	case err == nil:
		decoded := analysis.DecodeGrading(raw, assignment.EffectiveMaxPoints(), rubric)
		if decoded.Degraded() {
			outcome = outcomeDegraded
			logger.Warn().Str("reason", decoded.Reason).Msg("grading reply could not be decoded, using defaults")
		}
		result = decoded.Value
	case errors.Is(err, ai.ErrUpstreamUnavailable):
		outcome = outcomeFallback
		logger.Warn().Err(err).Msg("ai provider unavailable, using fallback grading")
		result = analysis.FallbackGrade(assignment, text, rubric)
	default:
		return dto.GradeSubmissionResponse{}, fmt.Errorf("generating grade: %w", err)
	}

	grade, err := buildGradeRecord(submission.ID, rubric, raw, result)
	if err != nil {
		return dto.GradeSubmissionResponse{}, &PersistenceError{Op: "encode grade", Err: err}
	}

	score := result.OverallScore
	feedback := result.Feedback
	update := repository.SubmissionUpdate{
		Status:   submission.StatusAfterGrading(),
		Grade:    &score,
		Feedback: &feedback,
	}
	if err := s.grades.Record(ctx, grade, update); err != nil {
		return dto.GradeSubmissionResponse{}, &PersistenceError{Op: "store grade", Err: err}
	}

	analysisResults.WithLabelValues("grading", outcome).Inc()
	logger.Info().
		Str("grade_id", grade.ID).
		Str("source", string(result.Source)).
		Float64("score", score).
		Msg("submission graded")

	if s.publisher != nil {
		s.publisher.Publish(ctx, events.AnalysisEvent{
			Kind:         events.KindGrading,
			SubmissionID: submission.ID,
			RecordID:     grade.ID,
			Source:       string(result.Source),
			Score:        &score,
			OccurredAt:   time.Now().UTC(),
		})
	}

	return dto.GradeSubmissionResponse{
		Success:         true,
		GradeID:         grade.ID,
		AIGrade:         score,
		MaxPoints:       result.MaxPoints,
		Feedback:        result.Feedback,
		Strengths:       nonNil(result.Strengths),
		Improvements:    nonNil(result.Improvements),
		RubricBreakdown: result.RubricBreakdown,
		Message:         gradingMessage(result),
		Note:            result.Note,
		Source:          result.Source,
	}, nil
}

func (s *gradingService) resolveAssignment(ctx context.Context, submission models.Submission, requested string) (models.Assignment, error) {
	id := requested
	if id == "" {
		id = submission.AssignmentID
	}
	if id == submission.Assignment.ID && id != "" {
		return submission.Assignment, nil
	}

	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, &NotFoundError{Entity: "Assignment", ID: id}
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}

// resolveRubric loads an explicitly requested rubric, which must exist, or the
// assignment's own rubric, which is skipped when it no longer exists.
func (s *gradingService) resolveRubric(ctx context.Context, assignment models.Assignment, requested string) (*models.Rubric, error) {
	id := requested
	explicit := id != ""
	if !explicit && assignment.RubricID != nil {
		id = *assignment.RubricID
	}
	if id == "" {
		return nil, nil
	}

	rubric, err := s.rubrics.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if explicit {
				return nil, &NotFoundError{Entity: "Rubric", ID: id}
			}
			s.logger.Warn().Str("rubric_id", id).Str("assignment_id", assignment.ID).Msg("assignment rubric missing, grading without rubric")
			return nil, nil
		}
		return nil, err
	}
	if len(rubric.Criteria) == 0 {
		return nil, nil
	}
	return &rubric, nil
}

func buildGradeRecord(submissionID string, rubric *models.Rubric, raw string, result analysis.GradingResult) (*models.SubmissionGrade, error) {
	strengths, err := json.Marshal(nonNil(result.Strengths))
	if err != nil {
		return nil, err
	}
	improvements, err := json.Marshal(nonNil(result.Improvements))
	if err != nil {
		return nil, err
	}

	grade := &models.SubmissionGrade{
		SubmissionID:    submissionID,
		AIReview:        raw,
		AIGrade:         result.OverallScore,
		AIFeedback:      result.Feedback,
		Strengths:       datatypes.JSON(strengths),
		Improvements:    datatypes.JSON(improvements),
		GrammarScore:    result.Dimensions.Grammar,
		ContentScore:    result.Dimensions.Content,
		StructureScore:  result.Dimensions.Structure,
		CreativityScore: result.Dimensions.Creativity,
		OverallScore:    result.OverallScore,
		Source:          string(result.Source),
	}

	if rubric != nil {
		grade.RubricID = &rubric.ID
		if result.RubricBreakdown != nil {
			breakdown, err := json.Marshal(result.RubricBreakdown)
			if err != nil {
				return nil, err
			}
			grade.RubricBreakdown = datatypes.JSON(breakdown)

			for _, criterion := range rubric.OrderedCriteria() {
				score, ok := result.RubricBreakdown[criterion.Name]
				if !ok {
					continue
				}
				grade.CriteriaGrades = append(grade.CriteriaGrades, models.CriteriaGrade{
					CriteriaID: criterion.ID,
					AIScore:    score.Score,
					AIComment:  score.Feedback,
				})
			}
		}
	}

	return grade, nil
}

func gradingMessage(result analysis.GradingResult) string {
	score := strconv.FormatFloat(result.OverallScore, 'f', -1, 64)
	if result.Source == analysis.SourceFallback {
		return fmt.Sprintf("Fallback grading completed (AI service temporarily unavailable). Score: %s/%d", score, result.MaxPoints)
	}
	return fmt.Sprintf("AI grading completed successfully. Score: %s/%d", score, result.MaxPoints)
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
