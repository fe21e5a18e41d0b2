package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is appended to a post. Comments keep insertion order.
type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	PostID    string    `gorm:"size:36;not null;index" bson:"-" json:"-"`
	UserID    string    `gorm:"size:36;not null" bson:"user" json:"userId"`
	Author    *User     `gorm:"-" bson:"-" json:"user,omitempty"`
	Text      string    `gorm:"type:text;not null" bson:"text" json:"text"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// BeforeCreate assigns a UUID when the relational store inserts a comment.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
