package repository

import (
	"context"

	"murmur/models"

	"gorm.io/gorm"
)

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a GORM-backed NotificationRepository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, userID string) ([]models.Notification, error) {
	notifications := []models.Notification{}
	if err := r.db.WithContext(ctx).
		Where("to_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("to_id = ?", userID).
		Where(map[string]interface{}{"read": false}).
		Update("read", true).Error
}

func (r *notificationRepository) DeleteAllForRecipient(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("to_id = ?", userID).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}
