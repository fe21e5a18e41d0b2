package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"murmur/internal/database"
	"murmur/internal/repository"
	"murmur/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostStore is a MongoDB-backed repository.PostRepository. Likes also touch
// the users collection for the likedPosts side.
type PostStore struct {
	posts *mongo.Collection
	users *mongo.Collection
}

// NewPostStore returns a PostStore over db.
func NewPostStore(db *mongo.Database) *PostStore {
	return &PostStore{
		posts: db.Collection(database.PostsCollection),
		users: db.Collection(database.UsersCollection),
	}
}

var _ repository.PostRepository = (*PostStore)(nil)

var newestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

func (s *PostStore) Create(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC()
	if post.ID == "" {
		post.ID = primitive.NewObjectID().Hex()
	}
	post.CreatedAt = now
	post.UpdatedAt = now
	post.Normalize()

	if _, err := s.posts.InsertOne(ctx, post); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (s *PostStore) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	post.Normalize()
	return &post, nil
}

// Delete removes the post and pulls it from every user's likedPosts.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	if _, err := s.users.UpdateMany(ctx,
		bson.M{"likedPosts": id},
		bson.M{"$pull": bson.M{"likedPosts": id}},
	); err != nil {
		return fmt.Errorf("pull liked post: %w", err)
	}
	return nil
}

func (s *PostStore) List(ctx context.Context) ([]models.Post, error) {
	return s.find(ctx, bson.M{})
}

func (s *PostStore) ListByUsers(ctx context.Context, userIDs []string) ([]models.Post, error) {
	if len(userIDs) == 0 {
		return []models.Post{}, nil
	}
	return s.find(ctx, bson.M{"user": bson.M{"$in": userIDs}})
}

func (s *PostStore) ListByIDs(ctx context.Context, ids []string) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *PostStore) Like(ctx context.Context, userID, postID string) error {
	return s.pairUpdate(ctx, "$addToSet", userID, postID)
}

func (s *PostStore) Unlike(ctx context.Context, userID, postID string) error {
	return s.pairUpdate(ctx, "$pull", userID, postID)
}

func (s *PostStore) pairUpdate(ctx context.Context, op, userID, postID string) error {
	now := time.Now().UTC()
	if _, err := s.posts.UpdateByID(ctx, postID, bson.M{
		op:     bson.M{"likes": userID},
		"$set": bson.M{"updatedAt": now},
	}); err != nil {
		return fmt.Errorf("update likes: %w", err)
	}
	if _, err := s.users.UpdateByID(ctx, userID, bson.M{
		op:     bson.M{"likedPosts": postID},
		"$set": bson.M{"updatedAt": now},
	}); err != nil {
		return fmt.Errorf("update liked posts: %w", err)
	}
	return nil
}

func (s *PostStore) AddComment(ctx context.Context, postID string, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = primitive.NewObjectID().Hex()
	}
	comment.PostID = postID
	comment.CreatedAt = time.Now().UTC()

	res, err := s.posts.UpdateByID(ctx, postID, bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updatedAt": comment.CreatedAt},
	})
	if err != nil {
		return fmt.Errorf("push comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *PostStore) find(ctx context.Context, filter bson.M) ([]models.Post, error) {
	cur, err := s.posts.Find(ctx, filter, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	defer cur.Close(ctx)

	posts := []models.Post{}
	for cur.Next(ctx) {
		var p models.Post
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		p.Normalize()
		posts = append(posts, p)
	}
	return posts, cur.Err()
}
