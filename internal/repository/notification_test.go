package repository

import (
	"context"
	"testing"

	"murmur/internal/testutil"
	"murmur/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository(t *testing.T) {
	repo := NewNotificationRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	for _, n := range []*models.Notification{
		{FromID: "bob", ToID: "amy", Type: models.NotificationFollow},
		{FromID: "bob", ToID: "amy", Type: models.NotificationLike},
		{FromID: "amy", ToID: "bob", Type: models.NotificationComment},
	} {
		require.NoError(t, repo.Create(ctx, n))
		assert.NotEmpty(t, n.ID)
	}

	list, err := repo.ListForRecipient(ctx, "amy")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.NotificationLike, list[0].Type, "newest first")
	for _, n := range list {
		assert.False(t, n.Read)
	}

	require.NoError(t, repo.MarkAllRead(ctx, "amy"))
	list, err = repo.ListForRecipient(ctx, "amy")
	require.NoError(t, err)
	for _, n := range list {
		assert.True(t, n.Read)
	}
	bobs, err := repo.ListForRecipient(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.False(t, bobs[0].Read, "other recipients untouched")

	deleted, err := repo.DeleteAllForRecipient(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	list, err = repo.ListForRecipient(ctx, "amy")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
