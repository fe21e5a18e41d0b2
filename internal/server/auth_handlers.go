package server

import (
	"murmur/internal/auth"
	"murmur/internal/observability"
	"murmur/internal/service"
	"murmur/models"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Registers an account and sets the jwt session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.SignupInput true "Signup request"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.SignupInput
	if err := s.parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	session, err := s.authService.Signup(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}

	auth.SetSessionCookie(c, session.Token, s.config.SecureCookies())
	return c.Status(fiber.StatusCreated).JSON(session.User)
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Checks credentials and sets the jwt session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Login credentials"
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := s.parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	session, err := s.authService.Login(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}

	auth.SetSessionCookie(c, session.Token, s.config.SecureCookies())
	return c.JSON(session.User)
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so this only
// clears the cookie.
// @Summary User logout
// @Description Replaces the session cookie with an expired one
// @Tags auth
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	auth.ClearSessionCookie(c, s.config.SecureCookies())
	observability.AuthEvents.WithLabelValues("logout", observability.OutcomeSuccess).Inc()
	return c.JSON(models.MessageResponse{Message: "Logged out successfully"})
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Description Returns the user the session belongs to
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security CookieAuth
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.authService.Me(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}
