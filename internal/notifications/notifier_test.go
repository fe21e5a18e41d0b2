package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"murmur/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_PublishNotification(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := Connect(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	sub := client.Subscribe(ctx, UserChannel("amy"))
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	n := NewNotifier(client)
	require.NoError(t, n.PublishNotification(ctx, &models.Notification{
		ID:     "n1",
		FromID: "bob",
		ToID:   "amy",
		Type:   models.NotificationFollow,
	}))

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, "notifications:user:amy", msg.Channel)
		var got models.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "bob", got.FromID)
		assert.Equal(t, models.NotificationFollow, got.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not published")
	}
}

func TestNotifier_NilClientIsNoop(t *testing.T) {
	assert.NoError(t, NewNotifier(nil).PublishUser(context.Background(), "amy", "{}"))

	var n *Notifier
	assert.NoError(t, n.PublishUser(context.Background(), "amy", "{}"))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = Connect(context.Background(), "redis://:bad url")
	assert.Error(t, err)

	mr.Close()
	_, err = Connect(context.Background(), mr.Addr())
	assert.Error(t, err)
}
