package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestEnsureMongoIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("one createIndexes per collection", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)
		mt.ClearEvents()

		require.NoError(mt, EnsureMongoIndexes(ctx, mt.DB))

		collections := map[string]bool{}
		for _, evt := range mt.GetAllStartedEvents() {
			if evt.CommandName != "createIndexes" {
				continue
			}
			collections[evt.Command.Lookup("createIndexes").StringValue()] = true
		}
		assert.Equal(mt, map[string]bool{
			UsersCollection:         true,
			PostsCollection:         true,
			NotificationsCollection: true,
		}, collections)
	})

	mt.Run("command error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Message: "not authorized",
		}))

		err := EnsureMongoIndexes(ctx, mt.DB)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "indexes")
	})
}
