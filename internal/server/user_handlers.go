package server

import (
	"murmur/internal/service"
	"murmur/models"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/user/profile/:username
// @Summary User profile
// @Description Returns a user by username
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security CookieAuth
// @Router /user/profile/{username} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	user, err := s.userService.Profile(c.UserContext(), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

// GetSuggestedUsers handles GET /api/user/suggested
// @Summary Suggested users
// @Description Returns up to four users the caller does not follow
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Failure 401 {object} models.ErrorResponse
// @Security CookieAuth
// @Router /user/suggested [get]
func (s *Server) GetSuggestedUsers(c *fiber.Ctx) error {
	users, err := s.userService.Suggested(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(users)
}

// FollowUnfollowUser handles POST /api/user/follow/:id
// @Summary Follow or unfollow user
// @Description Toggles whether the caller follows a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security CookieAuth
// @Router /user/follow/{id} [post]
func (s *Server) FollowUnfollowUser(c *fiber.Ctx) error {
	msg, err := s.userService.ToggleFollow(c.UserContext(), currentUserID(c), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.MessageResponse{Message: msg})
}

// UpdateUser handles POST /api/user/update
// @Summary Update profile
// @Description Updates profile fields, password and images. Empty fields keep their value
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.UpdateProfileInput true "Profile changes"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security CookieAuth
// @Router /user/update [post]
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := s.parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}
	req.UserID = currentUserID(c)

	user, err := s.userService.UpdateProfile(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}
