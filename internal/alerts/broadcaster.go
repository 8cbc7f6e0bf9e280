// Package alerts is a small in-memory pub/sub fan-out feeding the SSE
// stream. Delivery is best effort: slow or dead subscribers are skipped and
// cleaned up opportunistically, with no heartbeat for silent connections.
package alerts

import (
	"log"
	"sync"
	"time"

	"github.com/mossline/wellspring-server/internal/models"
)

const subscriberBuffer = 16

// Subscriber is one open event stream.
type Subscriber struct {
	userID string
	admin  bool
	ch     chan models.Alert
}

// Events is the channel the SSE handler drains.
func (s *Subscriber) Events() <-chan models.Alert {
	return s.ch
}

// Broadcaster fans alerts out to subscribers scoped by userId. Admin
// subscribers receive every user's alerts.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[*Subscriber]bool
	admins map[string]bool
}

// NewBroadcaster creates a broadcaster. adminIDs subscribe to all users.
func NewBroadcaster(adminIDs []string) *Broadcaster {
	admins := make(map[string]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Broadcaster{
		subs:   make(map[*Subscriber]bool),
		admins: admins,
	}
}

// Subscribe registers a stream for a user.
func (b *Broadcaster) Subscribe(userID string) *Subscriber {
	sub := &Subscriber{
		userID: userID,
		admin:  b.admins[userID],
		ch:     make(chan models.Alert, subscriberBuffer),
	}

	b.mu.Lock()
	b.subs[sub] = true
	total := len(b.subs)
	b.mu.Unlock()

	log.Printf("alert subscriber added user=%s total=%d", userID, total)
	return sub
}

// Unsubscribe removes and closes a stream.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	if b.subs[sub] {
		delete(b.subs, sub)
		close(sub.ch)
	}
	total := len(b.subs)
	b.mu.Unlock()

	log.Printf("alert subscriber removed user=%s total=%d", sub.userID, total)
}

// Publish sends an alert to the user's subscribers and all admins.
// Fire and forget: a full buffer means the event is dropped for that
// subscriber rather than blocking the publisher.
func (b *Broadcaster) Publish(channel, userID string, payload interface{}) {
	alert := models.Alert{
		Channel:   channel,
		UserID:    userID,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		if sub.userID != userID && !sub.admin {
			continue
		}
		select {
		case sub.ch <- alert:
		default:
			log.Printf("alert dropped for slow subscriber user=%s channel=%s", sub.userID, channel)
		}
	}
}

// SubscriberCount reports how many streams are open, for the health endpoint.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
