package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"cardmarket/pkg/queue"
)

// TopicTrades is the in-process topic carrying every trade lifecycle event.
const TopicTrades = "trade-events"

// Event types emitted by the trade service.
const (
	TypeTradeCreated     = "trade.created"
	TypeTradeOffer       = "trade.offer"
	TypeTradeAccepted    = "trade.accepted"
	TypeTradeDeclined    = "trade.declined"
	TypeTradeCancelled   = "trade.cancelled"
	TypeMessagePosted    = "trade.message"
	TypeMeetingProposed  = "trade.meeting_proposed"
	TypeMeetingResponded = "trade.meeting_responded"
)

// TradeEvent one lifecycle event of a trade. ActorID is the user whose action
// produced the event; the dispatcher decides who gets notified from there.
type TradeEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TradeID   uint64    `json:"trade_id"`
	ActorID   uint64    `json:"actor_id"`
	ActorName string    `json:"actor_name,omitempty"`
	OtherID   *uint64   `json:"other_id,omitempty"`
	CardName  string    `json:"card_name,omitempty"`
	Message   string    `json:"message,omitempty"`
	MeetingID uint64    `json:"meeting_id,omitempty"`
	Accepted  bool      `json:"accepted,omitempty"`
	At        time.Time `json:"at"`
}

// NewTradeEvent fills in the id and timestamp
func NewTradeEvent(eventType string, tradeID, actorID uint64) *TradeEvent {
	return &TradeEvent{
		ID:      uuid.NewString(),
		Type:    eventType,
		TradeID: tradeID,
		ActorID: actorID,
		At:      time.Now(),
	}
}

// Publish serializes the event and puts it on the trade topic
func Publish(ctx context.Context, q queue.Queue, ev *TradeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return q.Publish(ctx, TopicTrades, data)
}

// Decode parses a trade event off the wire
func Decode(data []byte) (*TradeEvent, error) {
	var ev TradeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
