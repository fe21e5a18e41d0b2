package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType identifies what triggered a notification.
type NotificationType string

const (
	NotificationFollow  NotificationType = "follow"
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
)

// Notification tells a user that another user followed them, or liked or
// commented on one of their posts.
type Notification struct {
	ID        string           `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	FromID    string           `gorm:"size:36;not null" bson:"from" json:"fromId"`
	From      *UserSummary     `gorm:"-" bson:"-" json:"from,omitempty"`
	ToID      string           `gorm:"size:36;not null;index" bson:"to" json:"to"`
	Type      NotificationType `gorm:"size:16;not null" bson:"type" json:"type"`
	Read      bool             `gorm:"not null;default:false" bson:"read" json:"read"`
	CreatedAt time.Time        `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the relational store inserts a notification.
func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
