package server

import (
	"errors"

	"murmur/internal/middleware"
	"murmur/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// NotificationStream handles websocket connections for live notifications
// @Summary Live notifications
// @Description Upgrades to a websocket that receives each notification addressed to the current user as a JSON text frame
// @Tags notifications
// @Success 101 {object} models.Notification
// @Failure 401 {object} models.ErrorResponse
// @Failure 426 {object} models.ErrorResponse
// @Security CookieAuth
// @Router /ws/notifications [get]
func (s *Server) NotificationStream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(middleware.LocalUserID).(string)

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			msg := "Too many connections"
			if !errors.Is(err, notifications.ErrUserConnLimit) {
				s.log.Warn("websocket rejected", zap.String("user_id", userID), zap.Error(err))
			}
			_ = conn.WriteJSON(fiber.Map{"error": msg})
			return
		}
		defer s.hub.Unregister(client)

		// Inbound frames are ignored. ReadMessage fails once the client is gone.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
