package server

import (
	"murmur/internal/middleware"
	"murmur/internal/observability"
	"murmur/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError writes err as a JSON error body. AppErrors keep their status;
// anything else is a 500. Server errors are logged with their cause, which is
// never sent to the client.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if appErr, ok := models.AsAppError(err); ok {
		status = appErr.Status()
	}
	if status >= fiber.StatusInternalServerError {
		observability.FromContext(c.UserContext()).Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return models.RespondWithError(c, status, err)
}

// parseBody decodes the request body into out. A malformed body is a
// validation error.
func (s *Server) parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

// currentUserID returns the id of the user the session gate resolved.
func currentUserID(c *fiber.Ctx) string {
	return middleware.CurrentUserID(c)
}
