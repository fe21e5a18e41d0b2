package server

import (
	"murmur/models"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications. Listing marks every
// notification read.
// @Summary List notifications
// @Description Returns the caller's notifications as they were before this call, then marks them all read
// @Tags notifications
// @Produce json
// @Success 200 {array} models.Notification
// @Failure 401 {object} models.ErrorResponse
// @Security CookieAuth
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	list, err := s.notificationService.List(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(list)
}

// DeleteNotifications handles DELETE /api/notifications
// @Summary Delete notifications
// @Description Deletes every notification addressed to the caller
// @Tags notifications
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Failure 401 {object} models.ErrorResponse
// @Security CookieAuth
// @Router /notifications [delete]
func (s *Server) DeleteNotifications(c *fiber.Ctx) error {
	if err := s.notificationService.DeleteAll(c.UserContext(), currentUserID(c)); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.MessageResponse{Message: "Notifications deleted successfully"})
}
