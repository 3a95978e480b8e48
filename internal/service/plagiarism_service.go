package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"

	"github.com/noah-isme/gema-assess-api/internal/analysis"
	"github.com/noah-isme/gema-assess-api/internal/dto"
	"github.com/noah-isme/gema-assess-api/internal/events"
	"github.com/noah-isme/gema-assess-api/internal/models"
	"github.com/noah-isme/gema-assess-api/internal/repository"
	"github.com/noah-isme/gema-assess-api/pkg/ai"
)

var plagiarismRequest = ai.Request{Temperature: 0.3}

// PlagiarismService scans submissions for plagiarism indicators.
type PlagiarismService interface {
	Check(ctx context.Context, req dto.PlagiarismCheckRequest) (dto.PlagiarismCheckResponse, error)
}

type plagiarismComments struct {
	PlagiarismChecked bool      `json:"plagiarism_checked"`
	PlagiarismScore   int       `json:"plagiarism_score"`
	IsPlagiarized     bool      `json:"is_plagiarized"`
	CheckedAt         time.Time `json:"checked_at"`
}

type plagiarismService struct {
	submissions repository.SubmissionRepository
	reports     repository.PlagiarismReportRepository
	content     ContentLoader
	generator   ai.Generator
	publisher   events.Publisher
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewPlagiarismService constructs the service. publisher may be nil.
func NewPlagiarismService(submissions repository.SubmissionRepository, reports repository.PlagiarismReportRepository, loader ContentLoader, generator ai.Generator, publisher events.Publisher, validate *validator.Validate, logger zerolog.Logger) PlagiarismService {
	return &plagiarismService{
		submissions: submissions,
		reports:     reports,
		content:     loader,
		generator:   generator,
		publisher:   publisher,
		validator:   validate,
		logger:      logger.With().Str("component", "plagiarism_service").Logger(),
		now:         time.Now,
	}
}

func (s *plagiarismService) Check(ctx context.Context, req dto.PlagiarismCheckRequest) (dto.PlagiarismCheckResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.PlagiarismCheckResponse{}, err
	}

	ctx, span := tracer.Start(ctx, "plagiarism.check")
	defer span.End()
	span.SetAttributes(attribute.String("submission_id", req.SubmissionID))

	response, err := s.check(ctx, req)
	if err != nil {
		analysisResults.WithLabelValues("plagiarism", outcomeFailed).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.PlagiarismCheckResponse{}, err
	}
	return response, nil
}

func (s *plagiarismService) check(ctx context.Context, req dto.PlagiarismCheckRequest) (dto.PlagiarismCheckResponse, error) {
	submission, err := loadSubmission(ctx, s.submissions, req.SubmissionID)
	if err != nil {
		return dto.PlagiarismCheckResponse{}, err
	}

	text, err := loadText(ctx, s.content, submission)
	if err != nil {
		return dto.PlagiarismCheckResponse{}, err
	}

	logger := s.logger.With().Str("submission_id", submission.ID).Logger()

	request := plagiarismRequest
	request.Prompt = analysis.BuildPlagiarismPrompt(text)

	raw, err := s.generator.Generate(ctx, request)
	if err != nil {
		return dto.PlagiarismCheckResponse{}, fmt.Errorf("checking plagiarism: %w", err)
	}

	outcome := outcomeParsed
	decoded := analysis.DecodePlagiarism(raw)
	if decoded.Degraded() {
		outcome = outcomeDegraded
		logger.Warn().Str("reason", decoded.Reason).Msg("plagiarism reply could not be decoded, manual review required")
	}
	result := decoded.Value

	report, err := s.record(ctx, submission, result, decoded.Degraded())
	if err != nil {
		return dto.PlagiarismCheckResponse{}, err
	}

	analysisResults.WithLabelValues("plagiarism", outcome).Inc()
	logger.Info().
		Str("report_id", report.ID).
		Int("risk_score", result.RiskScore).
		Str("risk_level", string(result.RiskLevel)).
		Msg("plagiarism check completed")

	if s.publisher != nil {
		score := float64(result.RiskScore)
		s.publisher.Publish(ctx, events.AnalysisEvent{
			Kind:         events.KindPlagiarism,
			SubmissionID: submission.ID,
			RecordID:     report.ID,
			Source:       outcome,
			Score:        &score,
			OccurredAt:   report.CreatedAt,
		})
	}

	return dto.PlagiarismCheckResponse{Success: true, PlagiarismAnalysis: result}, nil
}

func (s *plagiarismService) record(ctx context.Context, submission models.Submission, result analysis.PlagiarismResult, degraded bool) (*models.PlagiarismReport, error) {
	reportJSON, err := json.Marshal(result)
	if err != nil {
		return nil, &PersistenceError{Op: "encode plagiarism report", Err: err}
	}

	checkedAt := s.now().UTC()
	commentsJSON, err := json.Marshal(plagiarismComments{
		PlagiarismChecked: true,
		PlagiarismScore:   result.RiskScore,
		IsPlagiarized:     result.IsPlagiarized(),
		CheckedAt:         checkedAt,
	})
	if err != nil {
		return nil, &PersistenceError{Op: "encode plagiarism comments", Err: err}
	}

	report := &models.PlagiarismReport{
		SubmissionID: submission.ID,
		RiskScore:    result.RiskScore,
		RiskLevel:    string(result.RiskLevel),
		Report:       datatypes.JSON(reportJSON),
		Degraded:     degraded,
		CreatedAt:    checkedAt,
	}

	score := result.RiskScore
	comments := string(commentsJSON)
	update := repository.SubmissionUpdate{
		Status:           submission.StatusAfterPlagiarismCheck(),
		PlagiarismScore:  &score,
		PlagiarismReport: report.Report,
		TeacherComments:  &comments,
	}
	if err := s.reports.Record(ctx, report, update); err != nil {
		return nil, &PersistenceError{Op: "store plagiarism report", Err: err}
	}

	return report, nil
}
