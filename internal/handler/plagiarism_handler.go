package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assess-api/internal/dto"
	"github.com/noah-isme/gema-assess-api/internal/service"
	"github.com/noah-isme/gema-assess-api/internal/utils"
)

// PlagiarismHandler serves the plagiarism check endpoint.
type PlagiarismHandler struct {
	service service.PlagiarismService
	logger  zerolog.Logger
}

// NewPlagiarismHandler builds a plagiarism handler instance.
func NewPlagiarismHandler(service service.PlagiarismService, logger zerolog.Logger) *PlagiarismHandler {
	return &PlagiarismHandler{
		service: service,
		logger:  logger.With().Str("component", "plagiarism_handler").Logger(),
	}
}

// PlagiarismPath is the route of the plagiarism check endpoint.
const PlagiarismPath = "/check-plagiarism"

// Register attaches the routes to the provided router group.
func (h *PlagiarismHandler) Register(router fiber.Router) {
	router.Post(PlagiarismPath, h.check)
}

func (h *PlagiarismHandler) check(c *fiber.Ctx) error {
	var payload dto.PlagiarismCheckRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendBareFailure(c, invalidBodyMessage)
	}

	result, err := h.service.Check(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendJSON(c, result)
}

// handleError keeps the bare {"error": ...} body clients of this endpoint expect.
func (h *PlagiarismHandler) handleError(c *fiber.Ctx, err error) error {
	return utils.SendBareFailure(c, failureMessage(requestLogger(h.logger, c), err))
}
