package service

import (
	"context"

	"murmur/internal/repository"
	"murmur/internal/storage"
	"murmur/internal/validation"
	"murmur/models"
)

type PostService struct {
	posts         repository.PostRepository
	users         repository.UserRepository
	images        storage.ImageStore
	notifications *NotificationService
}

type CreatePostInput struct {
	UserID string `json:"-"`
	Text   string `json:"text"`
	Img    string `json:"img"`
}

func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	images storage.ImageStore,
	notifications *NotificationService,
) *PostService {
	return &PostService{
		posts:         posts,
		users:         users,
		images:        images,
		notifications: notifications,
	}
}

// Create stores a post. An image payload is uploaded first and replaced by
// its hosted URL.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	author, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}
	if validation.Blank(in.Text) && in.Img == "" {
		return nil, models.NewValidationError(msgTextOrImage)
	}

	post := &models.Post{UserID: author.ID, Text: in.Text}
	if in.Img != "" {
		url, err := s.images.Upload(ctx, in.Img)
		if err != nil {
			return nil, imageError(err)
		}
		post.Img = url
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	post.Author = author
	return post, nil
}

// Delete removes the caller's own post along with its hosted image.
func (s *PostService) Delete(ctx context.Context, userID, postID string) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return lookupError(err, msgPostNotFound)
	}
	if post.UserID != userID {
		return models.NewForbiddenError(msgNotPostOwner)
	}
	if post.Img != "" {
		if err := s.images.Delete(ctx, post.Img); err != nil {
			return models.NewInternalError(err)
		}
	}
	return lookupError(s.posts.Delete(ctx, postID), msgPostNotFound)
}

// ToggleLike likes the post if the caller has not liked it yet and unlikes it
// otherwise. It returns the outcome message.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID string) (string, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return "", lookupError(err, msgPostNotFound)
	}

	if post.LikedBy(userID) {
		if err := s.posts.Unlike(ctx, userID, postID); err != nil {
			return "", err
		}
		return "Post unliked successfully", nil
	}

	if err := s.posts.Like(ctx, userID, postID); err != nil {
		return "", err
	}
	if err := s.notifications.Notify(ctx, userID, post.UserID, models.NotificationLike); err != nil {
		return "", err
	}
	return "Post liked successfully", nil
}

// Comment appends a comment to the post and notifies its owner.
func (s *PostService) Comment(ctx context.Context, userID, postID, text string) (*models.Comment, error) {
	if validation.Blank(text) {
		return nil, models.NewValidationError(msgCommentRequired)
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, lookupError(err, msgPostNotFound)
	}
	author, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}

	comment := &models.Comment{UserID: userID, Text: text}
	if err := s.posts.AddComment(ctx, post.ID, comment); err != nil {
		return nil, lookupError(err, msgPostNotFound)
	}
	if err := s.notifications.Notify(ctx, userID, post.UserID, models.NotificationComment); err != nil {
		return nil, err
	}
	comment.Author = author
	return comment, nil
}

// All returns every post, newest first.
func (s *PostService) All(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, posts)
}

// Following returns posts by the users the caller follows.
func (s *PostService) Following(ctx context.Context, userID string) ([]models.Post, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}
	posts, err := s.posts.ListByUsers(ctx, user.Following)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, posts)
}

// LikedBy returns the posts userID has liked.
func (s *PostService) LikedBy(ctx context.Context, userID string) ([]models.Post, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}
	posts, err := s.posts.ListByIDs(ctx, user.LikedPosts)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, posts)
}

// ByUsername returns the posts written by username.
func (s *PostService) ByUsername(ctx context.Context, username string) ([]models.Post, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError(msgUserNotFound)
	}
	posts, err := s.posts.ListByUsers(ctx, []string{user.ID})
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, posts)
}

// populate attaches post and comment authors in one user lookup.
func (s *PostService) populate(ctx context.Context, posts []models.Post) ([]models.Post, error) {
	if posts == nil {
		posts = []models.Post{}
	}

	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, p := range posts {
		add(p.UserID)
		for _, c := range p.Comments {
			add(c.UserID)
		}
	}

	authors, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := userIndex(authors)
	for i := range posts {
		posts[i].Author = byID[posts[i].UserID]
		for j := range posts[i].Comments {
			posts[i].Comments[j].Author = byID[posts[i].Comments[j].UserID]
		}
	}
	return posts, nil
}
