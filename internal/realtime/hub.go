package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"cardmarket/pkg/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 4 * 1024
	clientBufDepth = 64
)

// Client one websocket connection and the topics it listens on
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	topics map[string]struct{}
}

// Hub routes Redis pub/sub traffic to connected websocket clients. One hub
// per process; it holds a single pattern subscription covering every topic
// and fans messages out by each client's topic set.
type Hub struct {
	redis *redis.Client

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub creates a hub
func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		redis:   redisClient,
		clients: map[*Client]struct{}{},
	}
}

// Run consumes the Redis pattern subscription until the context ends
func (h *Hub) Run(ctx context.Context) {
	pubsub := h.redis.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			topic := strings.TrimPrefix(msg.Channel, channelPrefix)
			h.broadcast(topic, []byte(msg.Payload))
		}
	}
}

// broadcast delivers one payload to every client subscribed to the topic.
// Slow clients get dropped rather than blocking the hub.
func (h *Hub) broadcast(topic string, payload []byte) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.clients {
		if _, ok := client.topics[topic]; !ok {
			continue
		}
		select {
		case client.send <- payload:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		log.WithField("topic", topic).Warn("realtime client too slow, closing")
		h.unregister(client)
		client.conn.Close()
	}
}

// Register attaches a connection listening on the given topics. Topics are
// fixed at join time; reconnecting renegotiates them.
func (h *Hub) Register(conn *websocket.Conn, topics []string) *Client {
	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, clientBufDepth),
		topics: make(map[string]struct{}, len(topics)),
	}
	for _, topic := range topics {
		client.topics[topic] = struct{}{}
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go client.writePump()
	go client.readPump()
	return client
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

// ClientCount number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump drains inbound frames to keep pong handling alive. Clients never
// send application data after the join handshake.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards hub payloads and pings the peer
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// JoinRequest the first frame a client sends after connecting
type JoinRequest struct {
	TradeIDs []uint64 `json:"trade_ids"`
	Global   bool     `json:"global"`
}

// ParseJoin decodes the join frame
func ParseJoin(data []byte) (*JoinRequest, error) {
	var join JoinRequest
	if err := json.Unmarshal(data, &join); err != nil {
		return nil, err
	}
	return &join, nil
}
