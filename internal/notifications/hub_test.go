package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"murmur/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	mu       sync.Mutex
	writeErr error
	frames   []int
	messages []string
	closed   bool
}

func (c *recordingConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.frames = append(c.frames, messageType)
	if messageType == websocket.TextMessage {
		c.messages = append(c.messages, string(data))
	}
	return nil
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *recordingConn) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.messages...)
}

func TestUserFromChannel(t *testing.T) {
	tests := []struct {
		channel string
		want    string
		ok      bool
	}{
		{channel: UserChannel("amy"), want: "amy", ok: true},
		{channel: "notifications:user:", ok: false},
		{channel: "notifications:broadcast", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.channel, func(t *testing.T) {
			got, ok := UserFromChannel(tt.channel)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub(nil)
	amy1, amy2, bob := &recordingConn{}, &recordingConn{}, &recordingConn{}

	c1, err := hub.Register("amy", amy1)
	require.NoError(t, err)
	_, err = hub.Register("amy", amy2)
	require.NoError(t, err)
	_, err = hub.Register("bob", bob)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Connected("amy"))

	hub.Broadcast("amy", "hello")
	assert.Equal(t, []string{"hello"}, amy1.received())
	assert.Equal(t, []string{"hello"}, amy2.received())
	assert.Empty(t, bob.received())

	hub.Unregister(c1)
	hub.Unregister(c1)
	assert.Equal(t, 1, hub.Connected("amy"))

	hub.Broadcast("amy", "again")
	assert.Equal(t, []string{"hello"}, amy1.received())
	assert.Equal(t, []string{"hello", "again"}, amy2.received())
}

func TestHub_BroadcastSurvivesWriteError(t *testing.T) {
	hub := NewHub(nil)
	broken := &recordingConn{writeErr: errors.New("broken pipe")}
	healthy := &recordingConn{}
	_, err := hub.Register("amy", broken)
	require.NoError(t, err)
	_, err = hub.Register("amy", healthy)
	require.NoError(t, err)

	hub.Broadcast("amy", "hello")
	assert.Equal(t, []string{"hello"}, healthy.received())
}

func TestHub_UserConnectionLimit(t *testing.T) {
	hub := NewHub(nil)
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register("amy", &recordingConn{})
		require.NoError(t, err)
	}
	_, err := hub.Register("amy", &recordingConn{})
	assert.ErrorIs(t, err, ErrUserConnLimit)

	_, err = hub.Register("bob", &recordingConn{})
	assert.NoError(t, err)
}

func TestHub_PublishNotification(t *testing.T) {
	hub := NewHub(nil)
	conn := &recordingConn{}
	_, err := hub.Register("amy", conn)
	require.NoError(t, err)

	require.NoError(t, hub.PublishNotification(context.Background(), &models.Notification{
		ID: "n1", FromID: "bob", ToID: "amy", Type: models.NotificationLike,
	}))

	msgs := conn.received()
	require.Len(t, msgs, 1)
	var got models.Notification
	require.NoError(t, json.Unmarshal([]byte(msgs[0]), &got))
	assert.Equal(t, "bob", got.FromID)
	assert.Equal(t, models.NotificationLike, got.Type)
}

func TestHub_StartWiring(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := Connect(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	hub := NewHub(nil)
	conn := &recordingConn{}
	_, err = hub.Register("amy", conn)
	require.NoError(t, err)

	notifier := NewNotifier(client)
	require.NoError(t, hub.StartWiring(ctx, notifier))

	require.NoError(t, notifier.PublishNotification(ctx, &models.Notification{
		ID: "n1", FromID: "bob", ToID: "amy", Type: models.NotificationFollow,
	}))
	require.NoError(t, notifier.PublishUser(ctx, "carl", `{"ignored":true}`))

	assert.Eventually(t, func() bool { return len(conn.received()) == 1 }, 2*time.Second, 10*time.Millisecond)

	var got models.Notification
	require.NoError(t, json.Unmarshal([]byte(conn.received()[0]), &got))
	assert.Equal(t, "amy", got.ToID)
	assert.Equal(t, models.NotificationFollow, got.Type)
}

func TestHub_StartWiringWithoutRedis(t *testing.T) {
	assert.NoError(t, NewHub(nil).StartWiring(context.Background(), NewNotifier(nil)))
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub(nil)
	conn := &recordingConn{}
	_, err := hub.Register("amy", conn)
	require.NoError(t, err)

	hub.Shutdown()

	assert.Equal(t, 0, hub.Connected("amy"))
	conn.mu.Lock()
	defer conn.mu.Unlock()
	assert.True(t, conn.closed)
	assert.Equal(t, []int{websocket.CloseMessage}, conn.frames)
}
