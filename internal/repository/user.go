package repository

import (
	"context"
	"errors"
	"time"

	"murmur/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a GORM-backed UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.attachSets(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	if err := r.attachSets(ctx, pointers(users)...); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username = ?", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email = ?", email)
}

func (r *userRepository) getBy(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.attachSets(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return err
	}
	user.Normalize()
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(user).
		Select("username", "full_name", "email", "password", "bio", "link", "profile_img", "cover_img", "updated_at").
		Updates(user)
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return ErrDuplicate
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) Follow(ctx context.Context, followerID, followeeID string) error {
	edge := models.Follow{FollowerID: followerID, FolloweeID: followeeID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error
}

func (r *userRepository) Unfollow(ctx context.Context, followerID, followeeID string) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{}).Error
}

func (r *userRepository) Sample(ctx context.Context, excludeID string, size int) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.WithContext(ctx).
		Where("id <> ?", excludeID).
		Order("RANDOM()").
		Limit(size).
		Find(&users).Error; err != nil {
		return nil, err
	}
	if err := r.attachSets(ctx, pointers(users)...); err != nil {
		return nil, err
	}
	return users, nil
}

// attachSets fills followers, following and likedPosts from the edge tables.
func (r *userRepository) attachSets(ctx context.Context, users ...*models.User) error {
	if len(users) == 0 {
		return nil
	}
	byID := make(map[string]*models.User, len(users))
	ids := make([]string, 0, len(users))
	for _, u := range users {
		u.Followers, u.Following, u.LikedPosts = []string{}, []string{}, []string{}
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}

	var follows []models.Follow
	if err := r.db.WithContext(ctx).
		Where("follower_id IN ? OR followee_id IN ?", ids, ids).
		Order("created_at").
		Find(&follows).Error; err != nil {
		return err
	}
	for _, f := range follows {
		if u, ok := byID[f.FollowerID]; ok {
			u.Following = append(u.Following, f.FolloweeID)
		}
		if u, ok := byID[f.FolloweeID]; ok {
			u.Followers = append(u.Followers, f.FollowerID)
		}
	}

	var likes []models.PostLike
	if err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Order("created_at").
		Find(&likes).Error; err != nil {
		return err
	}
	for _, l := range likes {
		u := byID[l.UserID]
		u.LikedPosts = append(u.LikedPosts, l.PostID)
	}
	return nil
}

func pointers[T any](items []T) []*T {
	out := make([]*T, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}
