package events

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/meadowhq/mdwd/logx"
)

type SubscriberID string

type Subscriber struct {
	ID      SubscriberID
	Channel chan LedgerEvent
}

// EventBus fans ledger events out to the presentation layer. Publish
// never blocks; a subscriber that stops draining its channel misses
// events.
type EventBus struct {
	subscribers map[SubscriberID]*Subscriber
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[SubscriberID]*Subscriber),
	}
}

func (eb *EventBus) generateUUIDID() SubscriberID {
	id := uuid.Must(uuid.NewV7())
	return SubscriberID(id.String())
}

func (eb *EventBus) Subscribe() (SubscriberID, chan LedgerEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	id := eb.generateUUIDID()

	ch := make(chan LedgerEvent, 50) // Buffer for events
	subscriber := &Subscriber{
		ID:      id,
		Channel: ch,
	}

	eb.subscribers[id] = subscriber

	logx.Info("EVENTBUS", fmt.Sprintf("Client subscribed to ledger events | subscriber_id=%s | total_subscribers=%d", id, len(eb.subscribers)))

	return id, ch
}

// Unsubscribe removes a subscription by ID
func (eb *EventBus) Unsubscribe(id SubscriberID) bool {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subscriber, exists := eb.subscribers[id]
	if !exists {
		logx.Warn("EVENTBUS", fmt.Sprintf("Attempted to unsubscribe non-existent subscriber | subscriber_id=%s", id))
		return false
	}

	delete(eb.subscribers, id)
	close(subscriber.Channel)

	logx.Info("EVENTBUS", fmt.Sprintf("Client unsubscribed from ledger events | subscriber_id=%s | remaining_subscribers=%d", id, len(eb.subscribers)))
	return true
}

// Publish publishes an event to all subscribers
func (eb *EventBus) Publish(event LedgerEvent) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if len(eb.subscribers) == 0 {
		return
	}

	txHash := event.TxHash()
	logx.Debug("EVENTBUS", fmt.Sprintf("Publishing event | event_type=%s | tx_hash=%s | subscribers=%d", event.Type(), txHash, len(eb.subscribers)))

	for id, subscriber := range eb.subscribers {
		select {
		case subscriber.Channel <- event:
			// Event sent successfully
		default:
			// Channel is full, skip this subscriber
			logx.Warn("EVENTBUS", fmt.Sprintf("Subscriber channel full | subscriber_id=%s | tx_hash=%s", id, txHash))
		}
	}
}

// GetTotalSubscriptions returns the total number of active subscriptions
func (eb *EventBus) GetTotalSubscriptions() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	return len(eb.subscribers)
}

// HasSubscriber checks if a subscriber with the given ID exists
func (eb *EventBus) HasSubscriber(id SubscriberID) bool {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	_, exists := eb.subscribers[id]
	return exists
}
