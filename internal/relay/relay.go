package relay

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dominggo/multi-account-multi-platform/internal/domain"
	"github.com/dominggo/multi-account-multi-platform/internal/infrastructure/metrics"
	"github.com/dominggo/multi-account-multi-platform/internal/registry"
)

// Sink receives normalized inbound-message events for one subscriber. A sink
// that returns an error is detached. The relay closes a sink when it drops it
// (failed delivery or account disconnect); a caller-initiated Detach leaves
// closing to the caller.
type Sink interface {
	Deliver(event domain.MessageEvent) error
	Close()
}

// Subscription is the handle returned by Attach, used to detach later.
type Subscription struct {
	ID        string
	accountID string
}

// Relay fans inbound Telegram events out to the live subscribers of each
// account. Delivery is best-effort and at-most-once: when an account has no
// subscribers its events are dropped, there is no buffering or backpressure.
type Relay struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]Sink // accountID -> subscription ID -> sink
	logger      zerolog.Logger
}

// New creates an empty relay.
func New(logger zerolog.Logger) *Relay {
	return &Relay{
		subscribers: make(map[string]map[string]Sink),
		logger:      logger.With().Str("component", "relay").Logger(),
	}
}

// Attach registers a sink for an account's events and returns its handle.
func (r *Relay) Attach(accountID string, sink Sink) *Subscription {
	sub := &Subscription{
		ID:        uuid.NewString(),
		accountID: accountID,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subscribers[accountID] == nil {
		r.subscribers[accountID] = make(map[string]Sink)
	}
	r.subscribers[accountID][sub.ID] = sink
	metrics.DefaultMetrics.UpdateSubscribers(1)

	r.logger.Debug().
		Str("phone", registry.MaskPhone(accountID)).
		Str("subscription", sub.ID).
		Msg("subscriber attached")
	return sub
}

// Detach removes a subscriber; no-op if already detached. Removal does not
// affect deliveries to other subscribers in flight.
func (r *Relay) Detach(sub *Subscription) {
	if sub == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sinks, ok := r.subscribers[sub.accountID]
	if !ok {
		return
	}
	if _, ok := sinks[sub.ID]; !ok {
		return
	}
	delete(sinks, sub.ID)
	metrics.DefaultMetrics.UpdateSubscribers(-1)
	if len(sinks) == 0 {
		delete(r.subscribers, sub.accountID)
	}
}

// SubscriberCount returns the number of live subscribers for an account.
func (r *Relay) SubscriberCount(accountID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers[accountID])
}

// Publish broadcasts an event to every subscriber currently attached to the
// account. Failing sinks are detached; events with no subscribers are dropped.
func (r *Relay) Publish(accountID string, event domain.MessageEvent) {
	r.mu.RLock()
	sinks := make(map[string]Sink, len(r.subscribers[accountID]))
	for id, sink := range r.subscribers[accountID] {
		sinks[id] = sink
	}
	r.mu.RUnlock()

	if len(sinks) == 0 {
		metrics.DefaultMetrics.RecordEventDropped()
		return
	}

	delivered := 0
	for id, sink := range sinks {
		if err := sink.Deliver(event); err != nil {
			r.logger.Debug().
				Err(err).
				Str("phone", registry.MaskPhone(accountID)).
				Str("subscription", id).
				Msg("dropping failed subscriber")
			r.Detach(&Subscription{ID: id, accountID: accountID})
			sink.Close()
			continue
		}
		delivered++
	}
	metrics.DefaultMetrics.RecordEventDelivered(delivered)
}

// Bind registers the relay as the account's inbound-message callback.
// Re-binding after a reconnect replaces, never stacks, the previous callback.
func (r *Relay) Bind(accountID string, client domain.TelegramClient) {
	client.OnNewMessage(func(event domain.MessageEvent) {
		r.Publish(accountID, event)
	})
}

// Unbind removes the account's inbound-message callback.
func (r *Relay) Unbind(client domain.TelegramClient) {
	client.OnNewMessage(nil)
}

// DropAccount detaches and closes every subscriber of an account, used on
// disconnect. Closing the sinks lets their transports shut down instead of
// lingering on a connection that will never see another event.
func (r *Relay) DropAccount(accountID string) {
	r.mu.Lock()
	sinks := r.subscribers[accountID]
	if n := len(sinks); n > 0 {
		metrics.DefaultMetrics.UpdateSubscribers(-n)
	}
	delete(r.subscribers, accountID)
	r.mu.Unlock()

	for _, sink := range sinks {
		sink.Close()
	}
}
