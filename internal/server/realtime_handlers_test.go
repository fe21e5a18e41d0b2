package server

import (
	"net"
	"net/http"
	"testing"
	"time"

	"murmur/internal/auth"
	"murmur/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationStream_RequiresSessionAndUpgrade(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "amy")

	tests := []struct {
		name       string
		session    string
		wantStatus int
	}{
		{name: "No Session", session: "", wantStatus: http.StatusUnauthorized},
		{name: "Plain Request", session: token, wantStatus: http.StatusUpgradeRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := env.do(t, http.MethodGet, "/api/ws/notifications", nil, tt.session)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestNotificationStream_DeliversNotifications(t *testing.T) {
	env := newTestEnv(t)
	amyToken, amyID := env.signup(t, "amy")
	bobToken, bobID := env.signup(t, "bob")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = env.app.Listener(ln) }()
	t.Cleanup(func() { _ = env.app.Shutdown() })
	addr := ln.Addr().String()

	header := http.Header{}
	header.Set("Cookie", auth.SessionCookieName+"="+amyToken)
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/ws/notifications", header)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return env.srv.hub.Connected(amyID) == 1 },
		2*time.Second, 10*time.Millisecond)

	req, err := http.NewRequest(http.MethodPost, "http://"+addr+"/api/user/follow/"+amyID, nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: bobToken})
	followResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	followResp.Body.Close()
	require.Equal(t, http.StatusOK, followResp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got models.Notification
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, amyID, got.ToID)
	assert.Equal(t, bobID, got.FromID)
	assert.Equal(t, models.NotificationFollow, got.Type)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return env.srv.hub.Connected(amyID) == 0 },
		2*time.Second, 10*time.Millisecond)
}
