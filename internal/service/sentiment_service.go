package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
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

var sentimentRequest = ai.Request{Temperature: 0.3, TopK: 40, TopP: 0.95, MaxOutputTokens: 1024}

// SentimentService turns teacher feedback into a student-facing analysis.
type SentimentService interface {
	Analyze(ctx context.Context, req dto.FeedbackSentimentRequest) (dto.FeedbackSentimentResponse, error)
}

type sentimentService struct {
	analyses  repository.FeedbackAnalysisRepository
	generator ai.Generator
	publisher events.Publisher
	sanitizer *bluemonday.Policy
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewSentimentService constructs the service. publisher may be nil.
func NewSentimentService(analyses repository.FeedbackAnalysisRepository, generator ai.Generator, publisher events.Publisher, validate *validator.Validate, logger zerolog.Logger) SentimentService {
	return &sentimentService{
		analyses:  analyses,
		generator: generator,
		publisher: publisher,
		sanitizer: bluemonday.StrictPolicy(),
		validator: validate,
		logger:    logger.With().Str("component", "sentiment_service").Logger(),
		now:       time.Now,
	}
}

func (s *sentimentService) Analyze(ctx context.Context, req dto.FeedbackSentimentRequest) (dto.FeedbackSentimentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.FeedbackSentimentResponse{}, err
	}

	ctx, span := tracer.Start(ctx, "sentiment.analyze")
	defer span.End()
	span.SetAttributes(attribute.String("student_id", req.StudentID))

	response, err := s.analyze(ctx, req)
	if err != nil {
		analysisResults.WithLabelValues("sentiment", outcomeFailed).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.FeedbackSentimentResponse{}, err
	}
	return response, nil
}

func (s *sentimentService) analyze(ctx context.Context, req dto.FeedbackSentimentRequest) (dto.FeedbackSentimentResponse, error) {
	feedback := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(req.FeedbackText)))
	if feedback == "" {
		return dto.FeedbackSentimentResponse{}, ErrEmptyContent
	}

	logger := s.logger.With().Str("student_id", req.StudentID).Logger()

	request := sentimentRequest
	request.Prompt = analysis.BuildSentimentPrompt(feedback)

	raw, err := s.generator.Generate(ctx, request)
	if err != nil {
		return dto.FeedbackSentimentResponse{}, fmt.Errorf("analyzing feedback: %w", err)
	}

	outcome := outcomeParsed
	decoded := analysis.DecodeSentiment(raw, feedback)
	if decoded.Degraded() {
		outcome = outcomeDegraded
		logger.Warn().Str("reason", decoded.Reason).Msg("sentiment reply could not be decoded, using keyword analysis")
	}

	payload, err := json.Marshal(decoded.Value)
	if err != nil {
		return dto.FeedbackSentimentResponse{}, &PersistenceError{Op: "encode sentiment analysis", Err: err}
	}

	stored, err := s.analyses.Upsert(ctx, models.StudentFeedbackAnalysis{
		StudentID:         req.StudentID,
		SentimentAnalysis: datatypes.JSON(payload),
		FeedbackCount:     1,
		AnalyzedAt:        s.now().UTC(),
	})
	if err != nil {
		return dto.FeedbackSentimentResponse{}, &PersistenceError{Op: "store sentiment analysis", Err: err}
	}

	analysisResults.WithLabelValues("sentiment", outcome).Inc()
	logger.Info().
		Str("analysis_id", stored.ID).
		Str("sentiment", decoded.Value.Sentiment).
		Msg("feedback sentiment analyzed")

	if s.publisher != nil {
		s.publisher.Publish(ctx, events.AnalysisEvent{
			Kind:       events.KindSentiment,
			StudentID:  req.StudentID,
			RecordID:   stored.ID,
			Source:     outcome,
			OccurredAt: stored.AnalyzedAt,
		})
	}

	return dto.FeedbackSentimentResponse{
		Success:           true,
		SentimentAnalysis: decoded.Value,
		AnalysisID:        stored.ID,
	}, nil
}
