package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assess-api/internal/middleware"
	"github.com/noah-isme/gema-assess-api/internal/service"
	"github.com/noah-isme/gema-assess-api/pkg/ai"
)

const invalidBodyMessage = "invalid request body"

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// failureMessage picks the message surfaced to callers and logs the error at
// a level matching its kind. Every failure is reported with status 500.
func failureMessage(logger *zerolog.Logger, err error) string {
	var (
		notFound    *service.NotFoundError
		persistence *service.PersistenceError
		upstream    *ai.UpstreamError
	)
	switch {
	case isValidationError(err):
		logger.Warn().Err(err).Msg("request validation failed")
		return err.Error()
	case errors.As(err, &notFound):
		logger.Warn().Err(err).Msg("referenced record missing")
		return notFound.Error()
	case errors.Is(err, service.ErrEmptyContent):
		logger.Warn().Err(err).Msg("submission has no readable content")
		return err.Error()
	case errors.Is(err, ai.ErrUpstreamUnavailable):
		logger.Error().Err(err).Msg("ai provider unavailable")
		return "AI service temporarily unavailable"
	case errors.As(err, &upstream):
		logger.Error().Err(err).Int("status_code", upstream.StatusCode).Msg("ai provider rejected request")
		return upstream.Error()
	case errors.As(err, &persistence):
		logger.Error().Err(err).Str("op", persistence.Op).Msg("persistence failed")
		return persistence.Error()
	default:
		logger.Error().Err(err).Msg("internal server error")
		return err.Error()
	}
}
