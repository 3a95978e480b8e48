package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	correlationHeader  = "X-Correlation-ID"
	correlationLocal   = "correlation_id"
	maxCorrelationSize = 128
)

// Upstream proxies and the platform gateway may already have tagged the request.
var incomingCorrelationHeaders = []string{correlationHeader, "X-Request-ID"}

type correlationIDKey struct{}

// CorrelationID reuses an incoming request identifier or mints one, echoes it
// back in X-Correlation-ID and binds it to the request's user context.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := incomingCorrelationID(c)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(correlationLocal, id)
		c.Set(correlationHeader, id)
		c.SetUserContext(context.WithValue(c.UserContext(), correlationIDKey{}, id))

		return c.Next()
	}
}

func incomingCorrelationID(c *fiber.Ctx) string {
	for _, header := range incomingCorrelationHeaders {
		value := strings.TrimSpace(c.Get(header))
		if value != "" && len(value) <= maxCorrelationSize && !strings.ContainsAny(value, "\r\n") {
			return value
		}
	}
	return ""
}

// CorrelationIDFromContext extracts the correlation identifier from ctx, if present.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// GetCorrelationID returns the correlation identifier bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(correlationLocal).(string); ok {
		return id
	}
	return CorrelationIDFromContext(c.UserContext())
}
