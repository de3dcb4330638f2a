package middleware

import (
	"time"

	"walletd/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestIDHeader is the HTTP header for request ID
const RequestIDHeader = "X-Request-ID"

// RequestID binds a request ID and a request-scoped logger to the user context.
func RequestID(c *fiber.Ctx) error {
	requestID := c.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(RequestIDHeader, requestID)

	ctx := logger.WithRequestID(c.UserContext(), requestID)
	c.SetUserContext(ctx)

	start := time.Now()
	err := c.Next()

	logger.FromContext(ctx).Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("Request completed")
	return err
}
