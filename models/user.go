// Package models contains data structures for the application's domain models.
package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account in murmur.
//
// Followers, Following and LikedPosts are embedded arrays in the document
// store. The relational store keeps them in edge tables and fills them on read.
type User struct {
	ID         string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	Username   string    `gorm:"uniqueIndex;not null" bson:"username" json:"username"`
	FullName   string    `gorm:"not null" bson:"fullName" json:"fullName"`
	Email      string    `gorm:"uniqueIndex;not null" bson:"email" json:"email"`
	Password   string    `gorm:"not null" bson:"password" json:"-"`
	Bio        string    `bson:"bio" json:"bio"`
	Link       string    `bson:"link" json:"link"`
	ProfileImg string    `bson:"profileImg" json:"profileImg"`
	CoverImg   string    `bson:"coverImg" json:"coverImg"`
	Followers  []string  `gorm:"-" bson:"followers" json:"followers"`
	Following  []string  `gorm:"-" bson:"following" json:"following"`
	LikedPosts []string  `gorm:"-" bson:"likedPosts" json:"likedPosts"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the relational store inserts a user.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Normalize replaces nil sets with empty ones so they serialize as [].
func (u *User) Normalize() {
	if u.Followers == nil {
		u.Followers = []string{}
	}
	if u.Following == nil {
		u.Following = []string{}
	}
	if u.LikedPosts == nil {
		u.LikedPosts = []string{}
	}
}

// IsFollowing reports whether u follows the given user.
func (u *User) IsFollowing(userID string) bool {
	return slices.Contains(u.Following, userID)
}

// Summary returns the subset of u shown on notifications.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		ProfileImg: u.ProfileImg,
	}
}

// UserSummary is the minimal public view of a user.
type UserSummary struct {
	ID         string `json:"_id"`
	Username   string `json:"username"`
	FullName   string `json:"fullName"`
	ProfileImg string `json:"profileImg"`
}

// Follow is the relational edge for a follow relationship. One row stands for
// both the follower's "following" entry and the followee's "followers" entry.
type Follow struct {
	FollowerID string `gorm:"primaryKey;size:36"`
	FolloweeID string `gorm:"primaryKey;size:36;index"`
	CreatedAt  time.Time
}
