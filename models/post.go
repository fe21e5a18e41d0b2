package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is a piece of content owned by a single user.
type Post struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	UserID    string    `gorm:"size:36;not null;index" bson:"user" json:"userId"`
	Author    *User     `gorm:"-" bson:"-" json:"user,omitempty"`
	Text      string    `gorm:"type:text" bson:"text" json:"text"`
	Img       string    `bson:"img" json:"img"`
	Likes     []string  `gorm:"-" bson:"likes" json:"likes"`
	Comments  []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" bson:"comments" json:"comments"`
	CreatedAt time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the relational store inserts a post.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Normalize replaces nil collections with empty ones so they serialize as [].
func (p *Post) Normalize() {
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
}

// LikedBy reports whether the given user has liked p.
func (p *Post) LikedBy(userID string) bool {
	return slices.Contains(p.Likes, userID)
}

// PostLike is the relational edge for a like. One row stands for both the
// post's "likes" entry and the user's "likedPosts" entry.
type PostLike struct {
	UserID    string `gorm:"primaryKey;size:36"`
	PostID    string `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}
