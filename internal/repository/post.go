package repository

import (
	"context"
	"errors"

	"murmur/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a GORM-backed PostRepository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return err
	}
	post.Normalize()
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.withComments(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.attachLikes(ctx, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Post{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *postRepository) List(ctx context.Context) ([]models.Post, error) {
	return r.find(ctx, r.withComments(ctx))
}

func (r *postRepository) ListByUsers(ctx context.Context, userIDs []string) ([]models.Post, error) {
	if len(userIDs) == 0 {
		return []models.Post{}, nil
	}
	return r.find(ctx, r.withComments(ctx).Where("user_id IN ?", userIDs))
}

func (r *postRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	return r.find(ctx, r.withComments(ctx).Where("id IN ?", ids))
}

func (r *postRepository) Like(ctx context.Context, userID, postID string) error {
	edge := models.PostLike{UserID: userID, PostID: postID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.PostLike{}).Error
}

func (r *postRepository) AddComment(ctx context.Context, postID string, comment *models.Comment) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	comment.PostID = postID
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *postRepository) withComments(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})
}

func (r *postRepository) find(ctx context.Context, query *gorm.DB) ([]models.Post, error) {
	posts := []models.Post{}
	if err := query.Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	if err := r.attachLikes(ctx, pointers(posts)...); err != nil {
		return nil, err
	}
	return posts, nil
}

// attachLikes fills likes from the post_likes edge table.
func (r *postRepository) attachLikes(ctx context.Context, posts ...*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	byID := make(map[string]*models.Post, len(posts))
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		p.Normalize()
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	var likes []models.PostLike
	if err := r.db.WithContext(ctx).
		Where("post_id IN ?", ids).
		Order("created_at").
		Find(&likes).Error; err != nil {
		return err
	}
	for _, l := range likes {
		p := byID[l.PostID]
		p.Likes = append(p.Likes, l.UserID)
	}
	return nil
}
