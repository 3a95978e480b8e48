package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assess-api/internal/dto"
	"github.com/noah-isme/gema-assess-api/internal/service"
	"github.com/noah-isme/gema-assess-api/internal/utils"
)

// SentimentHandler serves the feedback sentiment endpoint.
type SentimentHandler struct {
	service service.SentimentService
	logger  zerolog.Logger
}

// NewSentimentHandler builds a sentiment handler instance.
func NewSentimentHandler(service service.SentimentService, logger zerolog.Logger) *SentimentHandler {
	return &SentimentHandler{
		service: service,
		logger:  logger.With().Str("component", "sentiment_handler").Logger(),
	}
}

// SentimentPath is the route of the feedback sentiment endpoint.
const SentimentPath = "/analyze-feedback-sentiment"

// Register attaches the routes to the provided router group.
func (h *SentimentHandler) Register(router fiber.Router) {
	router.Post(SentimentPath, h.analyze)
}

func (h *SentimentHandler) analyze(c *fiber.Ctx) error {
	var payload dto.FeedbackSentimentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendFailure(c, invalidBodyMessage)
	}

	result, err := h.service.Analyze(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendJSON(c, result)
}

func (h *SentimentHandler) handleError(c *fiber.Ctx, err error) error {
	return utils.SendFailure(c, failureMessage(requestLogger(h.logger, c), err))
}
