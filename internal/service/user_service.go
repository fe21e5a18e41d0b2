package service

import (
	"context"
	"errors"

	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/internal/storage"
	"murmur/internal/validation"
	"murmur/models"

	"go.uber.org/zap"
)

const (
	suggestionSampleSize = 10
	maxSuggestions       = 4
)

type UserService struct {
	users         repository.UserRepository
	images        storage.ImageStore
	hasher        Hasher
	notifications *NotificationService
}

type UpdateProfileInput struct {
	UserID          string `json:"-"`
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	Bio             string `json:"bio"`
	Link            string `json:"link"`
	ProfileImg      string `json:"profileImg"`
	CoverImg        string `json:"coverImg"`
}

func NewUserService(
	users repository.UserRepository,
	images storage.ImageStore,
	hasher Hasher,
	notifications *NotificationService,
) *UserService {
	return &UserService{
		users:         users,
		images:        images,
		hasher:        hasher,
		notifications: notifications,
	}
}

func (s *UserService) Profile(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError(msgUserNotFound)
	}
	return user, nil
}

// Suggested samples other users and returns a few the caller does not
// already follow.
func (s *UserService) Suggested(ctx context.Context, userID string) ([]models.User, error) {
	caller, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}

	sample, err := s.users.Sample(ctx, userID, suggestionSampleSize)
	if err != nil {
		return nil, err
	}

	suggested := make([]models.User, 0, maxSuggestions)
	for _, u := range sample {
		if caller.IsFollowing(u.ID) {
			continue
		}
		suggested = append(suggested, u)
		if len(suggested) == maxSuggestions {
			break
		}
	}
	return suggested, nil
}

// ToggleFollow follows targetID if the caller does not follow them yet and
// unfollows otherwise. It returns the outcome message.
func (s *UserService) ToggleFollow(ctx context.Context, userID, targetID string) (string, error) {
	if userID == targetID {
		return "", models.NewValidationError(msgCannotFollowSelf)
	}

	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return "", lookupError(err, msgUserNotFound)
	}
	caller, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", lookupError(err, msgUserNotFound)
	}

	if caller.IsFollowing(targetID) {
		if err := s.users.Unfollow(ctx, userID, targetID); err != nil {
			return "", err
		}
		return "Unfollowed successfully", nil
	}

	if err := s.users.Follow(ctx, userID, targetID); err != nil {
		return "", err
	}
	if err := s.notifications.Notify(ctx, userID, targetID, models.NotificationFollow); err != nil {
		return "", err
	}
	return "Followed successfully", nil
}

// UpdateProfile applies every non-empty field of in to the user.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}

	if (in.CurrentPassword == "") != (in.NewPassword == "") {
		return nil, models.NewValidationError(msgPasswordPair)
	}
	if in.CurrentPassword != "" {
		if !s.hasher.Verify(in.CurrentPassword, user.Password) {
			return nil, models.NewValidationError(msgWrongPassword)
		}
		if validation.ValidatePassword(in.NewPassword) != nil {
			return nil, models.NewValidationError(msgNewPasswordShort)
		}
		digest, err := s.hasher.Hash(in.NewPassword)
		if err != nil {
			return nil, err
		}
		user.Password = digest
	}

	if in.Email != "" && in.Email != user.Email {
		if err := validation.ValidateEmail(in.Email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if err := s.ensureFree(ctx, user.ID, s.users.GetByEmail, in.Email, msgEmailTaken); err != nil {
			return nil, err
		}
		user.Email = in.Email
	}
	if in.Username != "" && in.Username != user.Username {
		if err := s.ensureFree(ctx, user.ID, s.users.GetByUsername, in.Username, msgUsernameTaken); err != nil {
			return nil, err
		}
		user.Username = in.Username
	}

	var swap imageSwap
	if err := s.swapImage(ctx, &swap, &user.ProfileImg, in.ProfileImg); err != nil {
		return nil, err
	}
	if err := s.swapImage(ctx, &swap, &user.CoverImg, in.CoverImg); err != nil {
		s.discardImages(ctx, swap.uploaded)
		return nil, err
	}

	if in.FullName != "" {
		user.FullName = in.FullName
	}
	if in.Bio != "" {
		user.Bio = in.Bio
	}
	if in.Link != "" {
		user.Link = in.Link
	}

	if err := s.users.Update(ctx, user); err != nil {
		s.discardImages(ctx, swap.uploaded)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicateError(ctx, s.users, user.ID, user.Username)
		}
		return nil, lookupError(err, msgUserNotFound)
	}
	s.discardImages(ctx, swap.replaced)
	return user, nil
}

func (s *UserService) ensureFree(
	ctx context.Context,
	selfID string,
	lookup func(context.Context, string) (*models.User, error),
	value, message string,
) error {
	owner, err := lookup(ctx, value)
	if err != nil {
		return err
	}
	if owner != nil && owner.ID != selfID {
		return models.NewValidationError(message)
	}
	return nil
}

// imageSwap tracks the images uploaded during a profile update and the
// hosted images they replace.
type imageSwap struct {
	uploaded []string
	replaced []string
}

// swapImage uploads payload and points *current at the new URL. An empty
// payload, or one equal to the current URL, keeps the current image. The
// replaced image stays on the host until the caller discards it.
func (s *UserService) swapImage(ctx context.Context, swap *imageSwap, current *string, payload string) error {
	if payload == "" || payload == *current {
		return nil
	}
	url, err := s.images.Upload(ctx, payload)
	if err != nil {
		return imageError(err)
	}
	swap.uploaded = append(swap.uploaded, url)
	if *current != "" {
		swap.replaced = append(swap.replaced, *current)
	}
	*current = url
	return nil
}

// discardImages deletes urls from the host. Failures are logged and leave
// the object orphaned.
func (s *UserService) discardImages(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.images.Delete(ctx, url); err != nil {
			observability.FromContext(ctx).Warn("image delete failed",
				zap.String("url", url),
				zap.Error(err),
			)
		}
	}
}
