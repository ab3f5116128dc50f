package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel events pushed to connected browsers.
const (
	EventUserNotification   = "notification:user"
	EventGlobalNotification = "notification:global"
	EventTradeMessage       = "trade:message"
	EventMeetingProposed    = "meeting:proposed"
	EventMeetingResponded   = "meeting:responded"
)

// channelPrefix namespaces realtime traffic inside Redis pub/sub
const channelPrefix = "rt:"

// TopicGlobal receives storefront-wide announcements
const TopicGlobal = "global"

// UserTopic per-user notification topic
func UserTopic(userID uint64) string {
	return fmt.Sprintf("user:%d", userID)
}

// TradeTopic per-trade collaboration topic
func TradeTopic(tradeID uint64) string {
	return fmt.Sprintf("trade:%d", tradeID)
}

// Envelope is the wire format pushed over the websocket
type Envelope struct {
	Event   string      `json:"event"`
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
	At      time.Time   `json:"at"`
}

// Publisher fans an event out to everyone subscribed to a topic. Delivery is
// best effort: consumers that are offline simply miss it, the persisted
// notification row is the durable copy.
type Publisher interface {
	Publish(ctx context.Context, topic, event string, payload interface{}) error
}

// redisPublisher publishes through Redis pub/sub so every api instance's hub
// sees the event regardless of which instance handled the request
type redisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a Redis-backed publisher
func NewRedisPublisher(client *redis.Client) Publisher {
	return &redisPublisher{client: client}
}

// Publish sends one envelope to the topic's Redis channel
func (p *redisPublisher) Publish(ctx context.Context, topic, event string, payload interface{}) error {
	envelope := Envelope{
		Event:   event,
		Topic:   topic,
		Payload: payload,
		At:      time.Now(),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal realtime envelope: %w", err)
	}
	return p.client.Publish(ctx, channelPrefix+topic, data).Err()
}
