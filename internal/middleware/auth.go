// Package middleware provides HTTP middleware for the application.
package middleware

import (
	"context"
	"errors"

	"murmur/internal/auth"
	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Locals keys set by RequireSession.
const (
	LocalUser   = "user"
	LocalUserID = "userID"
)

// Gate failure messages.
const (
	MsgNoToken      = "Unauthorized: No token Provided"
	MsgInvalidToken = "Unauthorized: Invalid token"
	MsgUserNotFound = "Unauthorized: User not found"
)

// UserLookup resolves the user a session token names.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// TokenParser verifies a session token and returns its user id.
type TokenParser interface {
	Parse(token string) (string, error)
}

// RequireSession rejects requests without a valid session cookie naming an
// existing user. On success the user is stored in Locals under LocalUser,
// its id under LocalUserID and in the request UserContext.
func RequireSession(tokens TokenParser, users UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := auth.SessionToken(c)
		if raw == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(MsgNoToken))
		}

		userID, err := tokens.Parse(raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(MsgInvalidToken))
		}

		user, err := users.GetByID(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(MsgUserNotFound))
			}
			observability.FromContext(c.UserContext()).Error("session user lookup failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}

		c.Locals(LocalUser, user)
		c.Locals(LocalUserID, user.ID)
		c.SetUserContext(observability.WithUserID(c.UserContext(), user.ID))

		return c.Next()
	}
}

// CurrentUserID returns the id stored by RequireSession, or "".
func CurrentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

// CurrentUser returns the user stored by RequireSession, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(LocalUser).(*models.User)
	return user
}
