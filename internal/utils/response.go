package utils

import "github.com/gofiber/fiber/v2"

// FailureResponse is the body of a failed analysis request.
type FailureResponse struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error"`
}

// SendJSON writes payload with status 200.
func SendJSON(c *fiber.Ctx, payload interface{}) error {
	return c.Status(fiber.StatusOK).JSON(payload)
}

// SendFailure writes {"success": false, "error": message} with status 500.
func SendFailure(c *fiber.Ctx, message string) error {
	return SendError(c, fiber.StatusInternalServerError, message)
}

// SendBareFailure writes {"error": message} with status 500.
func SendBareFailure(c *fiber.Ctx, message string) error {
	return sendFailure(c, fiber.StatusInternalServerError, FailureResponse{Error: message})
}

// SendError writes {"success": false, "error": message} with the given status.
func SendError(c *fiber.Ctx, status int, message string) error {
	success := false
	return sendFailure(c, status, FailureResponse{Success: &success, Error: message})
}

func sendFailure(c *fiber.Ctx, status int, body FailureResponse) error {
	if body.Error == "" {
		body.Error = "internal server error"
	}
	return c.Status(status).JSON(body)
}
