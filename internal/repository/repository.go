// Package repository implements the data access layer for the application.
//
// The interfaces here are satisfied by the GORM implementations in this
// package and by the MongoDB implementations in mongostore.
package repository

import (
	"context"
	"errors"
	"strings"

	"murmur/models"
)

var (
	// ErrNotFound is returned when a lookup by id matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate key")
)

// UserRepository defines persistence operations for users.
//
// GetByUsername and GetByEmail return (nil, nil) when no user matches.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	// Follow and Unfollow update both the follower's following set and the
	// followee's followers set. Both are idempotent.
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	Sample(ctx context.Context, excludeID string, size int) ([]models.User, error)
}

// PostRepository defines persistence operations for posts, likes and comments.
// Lists are ordered newest first.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Post, error)
	ListByUsers(ctx context.Context, userIDs []string) ([]models.Post, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Post, error)
	// Like and Unlike update both the post's likes and the user's likedPosts.
	Like(ctx context.Context, userID, postID string) error
	Unlike(ctx context.Context, userID, postID string) error
	AddComment(ctx context.Context, postID string, comment *models.Comment) error
}

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForRecipient(ctx context.Context, userID string) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
	DeleteAllForRecipient(ctx context.Context, userID string) (int64, error)
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
