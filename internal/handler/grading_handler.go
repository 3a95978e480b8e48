package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assess-api/internal/dto"
	"github.com/noah-isme/gema-assess-api/internal/service"
	"github.com/noah-isme/gema-assess-api/internal/utils"
)

// GradingHandler serves the AI grading endpoint.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler builds a grading handler instance.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// GradingPath is the route of the grading endpoint.
const GradingPath = "/ai-grade-submission"

// Register attaches the routes to the provided router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post(GradingPath, h.grade)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	var payload dto.GradeSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendFailure(c, invalidBodyMessage)
	}

	result, err := h.service.Grade(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendJSON(c, result)
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	return utils.SendFailure(c, failureMessage(requestLogger(h.logger, c), err))
}
