package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"murmur/models"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

var (
	ErrUserConnLimit   = errors.New("user connection limit reached")
	ErrServerConnLimit = errors.New("server connection limit reached")
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one registered websocket connection.
type Client struct {
	UserID string

	mu   sync.Mutex
	conn Conn
}

// Send writes a text frame. Writes to one connection are serialized.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub maps user IDs to their open websocket connections and pushes
// notifications to them.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]map[*Client]struct{}
	totalConns int
	log        *zap.Logger
}

// NewHub creates an empty Hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		conns: make(map[string]map[*Client]struct{}),
		log:   log,
	}
}

// Register adds conn for userID. It fails when the user or the server is at
// its connection limit.
func (h *Hub) Register(userID string, conn Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, ErrServerConnLimit
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserConnLimit
	}

	client := &Client{UserID: userID, conn: conn}
	m[client] = struct{}{}
	h.totalConns++
	return client, nil
}

// Unregister removes client. Removing a client twice is a no-op.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; exists {
		delete(m, client)
		h.totalConns--
	}
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
}

// Connected returns how many connections userID has open.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Broadcast sends payload to every connection of userID.
func (h *Hub) Broadcast(userID, payload string) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.conns[userID]))
	for c := range h.conns[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	data := []byte(payload)
	for _, c := range clients {
		if err := c.Send(data); err != nil {
			h.log.Debug("websocket write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

// PublishNotification delivers notification to its recipient's connections on
// this instance only. It is the publisher used when Redis is not configured.
func (h *Hub) PublishNotification(_ context.Context, notification *models.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	h.Broadcast(notification.ToID, string(payload))
	return nil
}

// StartWiring subscribes the hub to every user channel on n, so
// notifications published by any instance reach connections held here.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		userID, ok := UserFromChannel(channel)
		if !ok {
			h.log.Warn("invalid notification channel", zap.String("channel", channel))
			return
		}
		h.Broadcast(userID, payload)
	})
}

// Shutdown sends a going-away close frame to every connection and closes it.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	closing := websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")
	for userID, clients := range h.conns {
		for c := range clients {
			c.mu.Lock()
			if err := c.conn.WriteMessage(websocket.CloseMessage, closing); err != nil {
				h.log.Debug("failed to write close message", zap.String("user_id", userID), zap.Error(err))
			}
			_ = c.conn.Close()
			c.mu.Unlock()
		}
	}
	h.conns = make(map[string]map[*Client]struct{})
	h.totalConns = 0
}
