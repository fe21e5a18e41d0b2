package service

import (
	"context"

	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/models"

	"go.uber.org/zap"
)

// Publisher fans a stored notification out to live subscribers.
type Publisher interface {
	PublishNotification(ctx context.Context, n *models.Notification) error
}

type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	publisher     Publisher
}

// NewNotificationService builds the service. publisher may be nil.
func NewNotificationService(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	publisher Publisher,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		publisher:     publisher,
	}
}

// Notify records a notification from one user to another. Acting on
// yourself notifies nobody. Publishing is best effort.
func (s *NotificationService) Notify(ctx context.Context, fromID, toID string, typ models.NotificationType) error {
	if fromID == toID {
		return nil
	}

	n := &models.Notification{FromID: fromID, ToID: toID, Type: typ}
	if err := s.notifications.Create(ctx, n); err != nil {
		return err
	}
	observability.NotificationsCreated.WithLabelValues(string(typ)).Inc()

	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishNotification(ctx, n); err != nil {
		observability.NotificationPublishErrors.Inc()
		observability.FromContext(ctx).Warn("notification publish failed",
			zap.String("notification_id", n.ID),
			zap.String("to", toID),
			zap.Error(err),
		)
	}
	return nil
}

// List returns the user's notifications newest first with the sender
// populated, then marks all of them read. The returned items carry the read
// state they had before the call.
func (s *NotificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	list, err := s.notifications.ListForRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}

	senderIDs := make([]string, 0, len(list))
	for _, n := range list {
		senderIDs = append(senderIDs, n.FromID)
	}
	senders, err := s.users.GetByIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	byID := userIndex(senders)
	for i := range list {
		if from, ok := byID[list[i].FromID]; ok {
			list[i].From = from.Summary()
		}
	}

	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return nil, err
	}
	return list, nil
}

// DeleteAll removes every notification addressed to the user.
func (s *NotificationService) DeleteAll(ctx context.Context, userID string) error {
	removed, err := s.notifications.DeleteAllForRecipient(ctx, userID)
	if err != nil {
		return err
	}
	observability.FromContext(ctx).Debug("notifications deleted", zap.Int64("count", removed))
	return nil
}
