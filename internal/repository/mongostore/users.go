// Package mongostore implements the repository interfaces on MongoDB.
//
// Follower/following sets and post likes are embedded arrays, so each paired
// mutation is two separate single-document updates. They are not atomic
// together: a failure between them leaves one side updated.
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
)

// UserStore is a MongoDB-backed repository.UserRepository.
type UserStore struct {
	users *mongo.Collection
}

// NewUserStore returns a UserStore over db's users collection.
func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{users: db.Collection(database.UsersCollection)}
}

var _ repository.UserRepository = (*UserStore)(nil)

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.findOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (s *UserStore) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = primitive.NewObjectID().Hex()
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Normalize()

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	res, err := s.users.UpdateByID(ctx, user.ID, bson.M{"$set": bson.M{
		"username":   user.Username,
		"fullName":   user.FullName,
		"email":      user.Email,
		"password":   user.Password,
		"bio":        user.Bio,
		"link":       user.Link,
		"profileImg": user.ProfileImg,
		"coverImg":   user.CoverImg,
		"updatedAt":  user.UpdatedAt,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *UserStore) Follow(ctx context.Context, followerID, followeeID string) error {
	return s.pairUpdate(ctx, "$addToSet", followerID, followeeID)
}

func (s *UserStore) Unfollow(ctx context.Context, followerID, followeeID string) error {
	return s.pairUpdate(ctx, "$pull", followerID, followeeID)
}

func (s *UserStore) pairUpdate(ctx context.Context, op, followerID, followeeID string) error {
	now := time.Now().UTC()
	if _, err := s.users.UpdateByID(ctx, followeeID, bson.M{
		op:     bson.M{"followers": followerID},
		"$set": bson.M{"updatedAt": now},
	}); err != nil {
		return fmt.Errorf("update followers: %w", err)
	}
	if _, err := s.users.UpdateByID(ctx, followerID, bson.M{
		op:     bson.M{"following": followeeID},
		"$set": bson.M{"updatedAt": now},
	}); err != nil {
		return fmt.Errorf("update following: %w", err)
	}
	return nil
}

func (s *UserStore) Sample(ctx context.Context, excludeID string, size int) ([]models.User, error) {
	cur, err := s.users.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": bson.M{"$ne": excludeID}}}},
		{{Key: "$sample", Value: bson.M{"size": size}}},
	})
	if err != nil {
		return nil, fmt.Errorf("sample users: %w", err)
	}
	return decodeUsers(ctx, cur)
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	user.Normalize()
	return &user, nil
}

func (s *UserStore) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	cur, err := s.users.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	return decodeUsers(ctx, cur)
}

func decodeUsers(ctx context.Context, cur *mongo.Cursor) ([]models.User, error) {
	defer cur.Close(ctx)
	users := []models.User{}
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		u.Normalize()
		users = append(users, u)
	}
	return users, cur.Err()
}
