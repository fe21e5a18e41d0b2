// Package service implements the application's use cases on top of the
// repositories. Client-correctable failures are returned as *models.AppError;
// anything else is an internal error for the caller to log.
package service

import (
	"context"
	"errors"

	"murmur/internal/repository"
	"murmur/internal/storage"
	"murmur/models"
)

const (
	msgUserNotFound     = "User not found"
	msgPostNotFound     = "Post not found"
	msgUsernameTaken    = "Username is already taken"
	msgEmailTaken       = "Email is already taken"
	msgInvalidImage     = "Invalid image"
	msgImagesDisabled   = "Image uploads are not available"
	msgTextOrImage      = "Text or image is required"
	msgCommentRequired  = "Comment text is required"
	msgNotPostOwner     = "You are not authorized to delete this post"
	msgCannotFollowSelf = "You cannot follow/unfollow yourself"
	msgPasswordPair     = "Please provide both current and new password"
	msgWrongPassword    = "Current password is incorrect"
	msgNewPasswordShort = "New password must be at least 6 characters long"
)

// lookupError turns a repository miss into a 404 with message and passes
// every other error through.
func lookupError(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewNotFoundError(message)
	}
	return err
}

// imageError maps image host failures. Undecodable payloads are the client's
// fault; everything else is internal.
func imageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrInvalidImage):
		return models.NewValidationError(msgInvalidImage)
	case errors.Is(err, storage.ErrNotConfigured):
		return models.NewValidationError(msgImagesDisabled)
	}
	return models.NewInternalError(err)
}

// duplicateError resolves a uniqueness violation on write to the field that
// caused it. selfID is the id of the user being written, if any.
func duplicateError(ctx context.Context, users repository.UserRepository, selfID, username string) error {
	existing, err := users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return models.NewValidationError(msgUsernameTaken)
	}
	return models.NewValidationError(msgEmailTaken)
}

// userIndex maps users by id.
func userIndex(users []models.User) map[string]*models.User {
	byID := make(map[string]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	return byID
}
