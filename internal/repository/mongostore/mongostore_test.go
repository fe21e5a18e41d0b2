package mongostore

import (
	"context"
	"testing"
	"time"

	"murmur/internal/repository"
	"murmur/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: n},
		bson.E{Key: "nModified", Value: n},
	)
}

func TestUserStore(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("GetByID decodes and normalizes", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "murmur.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "username", Value: "amy"},
			{Key: "fullName", Value: "Amy Pond"},
			{Key: "password", Value: "digest"},
			{Key: "followers", Value: bson.A{"u2"}},
		}))

		user, err := store.GetByID(ctx, "u1")
		require.NoError(mt, err)
		assert.Equal(mt, "amy", user.Username)
		assert.Equal(mt, "digest", user.Password)
		assert.Equal(mt, []string{"u2"}, user.Followers)
		assert.Equal(mt, []string{}, user.Following)
	})

	mt.Run("GetByID missing", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "murmur.users", mtest.FirstBatch))

		_, err := store.GetByID(ctx, "nope")
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("GetByUsername miss returns nil", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "murmur.users", mtest.FirstBatch))

		user, err := store.GetByUsername(ctx, "nobody")
		assert.NoError(mt, err)
		assert.Nil(mt, user)
	})

	mt.Run("Create assigns object id", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user := &models.User{Username: "amy", Email: "amy@x.io", FullName: "Amy"}
		require.NoError(mt, store.Create(ctx, user))
		assert.Len(mt, user.ID, 24)
		assert.WithinDuration(mt, time.Now(), user.CreatedAt, time.Minute)
		assert.Equal(mt, []string{}, user.LikedPosts)
	})

	mt.Run("Create duplicate", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: murmur.users index: username_1",
		}))

		err := store.Create(ctx, &models.User{Username: "amy"})
		assert.ErrorIs(mt, err, repository.ErrDuplicate)
	})

	mt.Run("Update unmatched", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(updated(0))

		err := store.Update(ctx, &models.User{ID: "ghost"})
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("Follow updates both sides", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(updated(1), updated(1))

		assert.NoError(mt, store.Follow(ctx, "u1", "u2"))
	})

	mt.Run("Unfollow surfaces second update failure", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(updated(1), mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "boom",
		}))

		assert.Error(mt, store.Unfollow(ctx, "u1", "u2"))
	})

	mt.Run("GetByIDs empty skips query", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)

		users, err := store.GetByIDs(ctx, nil)
		require.NoError(mt, err)
		assert.Empty(mt, users)
	})
}

func TestPostStore(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("List decodes embedded comments", func(mt *mtest.T) {
		store := NewPostStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "murmur.posts", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "p2"},
				{Key: "user", Value: "u1"},
				{Key: "text", Value: "newer"},
				{Key: "likes", Value: bson.A{"u2"}},
				{Key: "comments", Value: bson.A{
					bson.D{{Key: "_id", Value: "c1"}, {Key: "user", Value: "u2"}, {Key: "text", Value: "nice"}},
				}},
			},
			bson.D{
				{Key: "_id", Value: "p1"},
				{Key: "user", Value: "u1"},
				{Key: "text", Value: "older"},
			},
		))

		posts, err := store.List(ctx)
		require.NoError(mt, err)
		require.Len(mt, posts, 2)
		assert.Equal(mt, "p2", posts[0].ID)
		assert.Equal(mt, []string{"u2"}, posts[0].Likes)
		require.Len(mt, posts[0].Comments, 1)
		assert.Equal(mt, "nice", posts[0].Comments[0].Text)
		assert.Equal(mt, "u2", posts[0].Comments[0].UserID)
		assert.Equal(mt, []models.Comment{}, posts[1].Comments)
	})

	mt.Run("Delete missing", func(mt *mtest.T) {
		store := NewPostStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.ErrorIs(mt, store.Delete(ctx, "nope"), repository.ErrNotFound)
	})

	mt.Run("Delete pulls liked posts", func(mt *mtest.T) {
		store := NewPostStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}), updated(2))

		assert.NoError(mt, store.Delete(ctx, "p1"))
	})

	mt.Run("AddComment on missing post", func(mt *mtest.T) {
		store := NewPostStore(mt.DB)
		mt.AddMockResponses(updated(0))

		err := store.AddComment(ctx, "nope", &models.Comment{UserID: "u1", Text: "hi"})
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("AddComment assigns id", func(mt *mtest.T) {
		store := NewPostStore(mt.DB)
		mt.AddMockResponses(updated(1))

		comment := &models.Comment{UserID: "u1", Text: "hi"}
		require.NoError(mt, store.AddComment(ctx, "p1", comment))
		assert.Len(mt, comment.ID, 24)
		assert.Equal(mt, "p1", comment.PostID)
	})

	mt.Run("Like updates post and user", func(mt *mtest.T) {
		store := NewPostStore(mt.DB)
		mt.AddMockResponses(updated(1), updated(1))

		assert.NoError(mt, store.Like(ctx, "u1", "p1"))
	})
}

func TestNotificationStore(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("ListForRecipient", func(mt *mtest.T) {
		store := NewNotificationStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "murmur.notifications", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "n1"}, {Key: "from", Value: "u2"}, {Key: "to", Value: "u1"}, {Key: "type", Value: "like"}},
		))

		list, err := store.ListForRecipient(ctx, "u1")
		require.NoError(mt, err)
		require.Len(mt, list, 1)
		assert.Equal(mt, models.NotificationLike, list[0].Type)
		assert.Equal(mt, "u2", list[0].FromID)
		assert.False(mt, list[0].Read)
	})

	mt.Run("ListForRecipient empty", func(mt *mtest.T) {
		store := NewNotificationStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "murmur.notifications", mtest.FirstBatch))

		list, err := store.ListForRecipient(ctx, "u1")
		require.NoError(mt, err)
		assert.NotNil(mt, list)
		assert.Empty(mt, list)
	})

	mt.Run("DeleteAllForRecipient", func(mt *mtest.T) {
		store := NewNotificationStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 3}))

		n, err := store.DeleteAllForRecipient(ctx, "u1")
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), n)
	})

	mt.Run("Create", func(mt *mtest.T) {
		store := NewNotificationStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		n := &models.Notification{FromID: "u2", ToID: "u1", Type: models.NotificationFollow}
		require.NoError(mt, store.Create(ctx, n))
		assert.NotEmpty(mt, n.ID)
	})
}
