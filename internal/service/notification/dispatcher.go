package notification

import (
	"context"
	"fmt"

	"cardmarket/internal/event"
	"cardmarket/internal/model"
	"cardmarket/internal/monitor"
	"cardmarket/internal/realtime"
	"cardmarket/internal/repository"
	"cardmarket/pkg/log"
	"cardmarket/pkg/queue"
)

// Dispatcher turns trade lifecycle events into notifications. The row is
// written before anything is pushed over realtime, so a dropped push never
// loses the notification; a failed write skips the push entirely.
type Dispatcher struct {
	repo      repository.NotificationRepository
	publisher realtime.Publisher
	metrics   *monitor.MetricsCollector
}

// NewDispatcher creates a dispatcher
func NewDispatcher(repo repository.NotificationRepository, publisher realtime.Publisher, metrics *monitor.MetricsCollector) *Dispatcher {
	return &Dispatcher{repo: repo, publisher: publisher, metrics: metrics}
}

// Start subscribes the dispatcher to the trade event topic
func (d *Dispatcher) Start(ctx context.Context, bus queue.Queue) error {
	return bus.Subscribe(ctx, event.TopicTrades, d.handle)
}

// handle processes one event. Errors are logged, not returned: the bus has no
// redelivery and a poison event must not wedge the topic.
func (d *Dispatcher) handle(ctx context.Context, topic string, message []byte) error {
	ev, err := event.Decode(message)
	if err != nil {
		log.WithError(err).Warn("undecodable trade event dropped")
		return nil
	}

	switch ev.Type {
	case event.TypeTradeCreated:
		d.global(ctx, ev, model.NotificationTradeCreated,
			fmt.Sprintf("%s opened a trade for %s", ev.ActorName, ev.CardName))

	case event.TypeTradeOffer:
		d.counterpart(ctx, ev, model.NotificationTradeOffer,
			fmt.Sprintf("%s offered %s on your trade", ev.ActorName, ev.CardName))

	case event.TypeTradeAccepted:
		// Acceptance settles the trade, so both sides hear about it.
		d.counterpart(ctx, ev, model.NotificationTradeAccepted,
			fmt.Sprintf("%s accepted your offer", ev.ActorName))
		d.user(ctx, ev, ev.ActorID, model.NotificationTradeAccepted,
			"You accepted the offer")

	case event.TypeTradeDeclined:
		d.counterpart(ctx, ev, model.NotificationTradeDeclined,
			fmt.Sprintf("%s declined your offer", ev.ActorName))

	case event.TypeTradeCancelled:
		// Open trades have nobody to tell.
		if ev.OtherID != nil {
			d.counterpart(ctx, ev, model.NotificationTradeCancelled,
				fmt.Sprintf("%s cancelled the trade", ev.ActorName))
		}

	case event.TypeMessagePosted:
		// The chat row is the durable copy; only the trade channel gets a push.
		d.push(ctx, realtime.TradeTopic(ev.TradeID), realtime.EventTradeMessage, ev)

	case event.TypeMeetingProposed:
		d.counterpart(ctx, ev, model.NotificationMeetingProposed,
			fmt.Sprintf("%s proposed a meeting time", ev.ActorName))
		d.push(ctx, realtime.TradeTopic(ev.TradeID), realtime.EventMeetingProposed, ev)

	case event.TypeMeetingResponded:
		if ev.Accepted {
			// A confirmed meeting is news to every participant.
			d.counterpart(ctx, ev, model.NotificationMeetingConfirmed,
				fmt.Sprintf("%s accepted the meeting time", ev.ActorName))
			d.user(ctx, ev, ev.ActorID, model.NotificationMeetingConfirmed,
				"You accepted the meeting time")
		}
		d.push(ctx, realtime.TradeTopic(ev.TradeID), realtime.EventMeetingResponded, ev)

	default:
		log.WithField("type", ev.Type).Debug("unhandled trade event")
	}
	return nil
}

// global persists a storefront-wide notification and pushes it
func (d *Dispatcher) global(ctx context.Context, ev *event.TradeEvent, notifType, message string) {
	n := &model.Notification{
		Scope:   model.ScopeGlobal,
		Type:    notifType,
		Message: message,
		TradeID: &ev.TradeID,
	}
	if err := d.repo.Create(ctx, n); err != nil {
		log.WithError(err).WithField("event", ev.Type).Error("notification write failed")
		return
	}
	d.record(model.ScopeGlobal, notifType)
	d.push(ctx, realtime.TopicGlobal, realtime.EventGlobalNotification, n)
}

// counterpart persists a notification addressed to the event's counterparty
func (d *Dispatcher) counterpart(ctx context.Context, ev *event.TradeEvent, notifType, message string) {
	if ev.OtherID == nil {
		log.WithField("event", ev.Type).Warn("user notification without a recipient")
		return
	}
	d.user(ctx, ev, *ev.OtherID, notifType, message)
}

// user persists a notification addressed to one participant
func (d *Dispatcher) user(ctx context.Context, ev *event.TradeEvent, recipient uint64, notifType, message string) {
	n := &model.Notification{
		Scope:   model.ScopeUser,
		UserID:  &recipient,
		Type:    notifType,
		Message: message,
		TradeID: &ev.TradeID,
	}
	if err := d.repo.Create(ctx, n); err != nil {
		log.WithError(err).WithField("event", ev.Type).Error("notification write failed")
		return
	}
	d.record(model.ScopeUser, notifType)
	d.push(ctx, realtime.UserTopic(recipient), realtime.EventUserNotification, n)
}

func (d *Dispatcher) record(scope, notifType string) {
	if d.metrics != nil {
		d.metrics.RecordNotification(scope, notifType)
	}
}

// push is best effort
func (d *Dispatcher) push(ctx context.Context, topic, rtEvent string, payload interface{}) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(ctx, topic, rtEvent, payload); err != nil {
		log.WithError(err).WithField("topic", topic).Warn("realtime push failed")
	}
}
