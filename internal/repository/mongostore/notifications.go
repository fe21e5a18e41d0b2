package mongostore

import (
	"context"
	"fmt"
	"time"

	"murmur/internal/database"
	"murmur/internal/repository"
	"murmur/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// NotificationStore is a MongoDB-backed repository.NotificationRepository.
type NotificationStore struct {
	notifications *mongo.Collection
}

// NewNotificationStore returns a NotificationStore over db.
func NewNotificationStore(db *mongo.Database) *NotificationStore {
	return &NotificationStore{notifications: db.Collection(database.NotificationsCollection)}
}

var _ repository.NotificationRepository = (*NotificationStore)(nil)

func (s *NotificationStore) Create(ctx context.Context, n *models.Notification) error {
	now := time.Now().UTC()
	if n.ID == "" {
		n.ID = primitive.NewObjectID().Hex()
	}
	n.CreatedAt = now
	n.UpdatedAt = now
	if _, err := s.notifications.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *NotificationStore) ListForRecipient(ctx context.Context, userID string) ([]models.Notification, error) {
	cur, err := s.notifications.Find(ctx, bson.M{"to": userID}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", err)
	}
	notifications := []models.Notification{}
	if err := cur.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.notifications.UpdateMany(ctx,
		bson.M{"to": userID, "read": false},
		bson.M{"$set": bson.M{"read": true, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

func (s *NotificationStore) DeleteAllForRecipient(ctx context.Context, userID string) (int64, error) {
	res, err := s.notifications.DeleteMany(ctx, bson.M{"to": userID})
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	return res.DeletedCount, nil
}
