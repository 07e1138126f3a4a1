// Package watch provides in-process change notification. Services publish a
// topic after a transaction commits; subscribers reload whatever they derive
// from that topic. Signals carry no payload and coalesce, so a slow subscriber
// sees one pending change rather than a backlog.
package watch

import (
	"sync"

	"github.com/google/uuid"
)

// Topic names a class of stored rows.
type Topic string

const (
	TopicTrips    Topic = "trips"
	TopicVehicles Topic = "vehicles"
	TopicAudit    Topic = "audit"
	TopicPurposes Topic = "purposes"
)

// Hub fans change signals out to subscriptions. The zero value is not usable;
// call NewHub.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]*Subscription
	closed bool
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]*Subscription)}
}

// Subscription receives a signal on C whenever one of its topics is
// published. At most one signal is pending at a time.
type Subscription struct {
	ID     uuid.UUID
	topics map[Topic]struct{}
	ch     chan struct{}
	hub    *Hub
}

// Subscribe registers interest in topics. Subscribing to no topics means every
// topic. On a closed hub the returned subscription's channel is already closed.
func (h *Hub) Subscribe(topics ...Topic) *Subscription {
	s := &Subscription{
		ID:     uuid.New(),
		topics: make(map[Topic]struct{}, len(topics)),
		ch:     make(chan struct{}, 1),
		hub:    h,
	}
	for _, t := range topics {
		s.topics[t] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.ch)
		return s
	}
	h.subs[s.ID] = s
	return s
}

// Publish signals every subscription interested in topic. It never blocks.
func (h *Hub) Publish(topic Topic) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		if !s.wants(topic) {
			continue
		}
		select {
		case s.ch <- struct{}{}:
		default:
		}
	}
}

// Len returns the number of open subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscription. Later subscriptions are born closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, s := range h.subs {
		close(s.ch)
		delete(h.subs, id)
	}
}

// C returns the signal channel. It is closed when the subscription or the
// hub is closed.
func (s *Subscription) C() <-chan struct{} { return s.ch }

// Close unregisters the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s.ID]; !ok {
		return
	}
	delete(h.subs, s.ID)
	close(s.ch)
}

func (s *Subscription) wants(t Topic) bool {
	if len(s.topics) == 0 {
		return true
	}
	_, ok := s.topics[t]
	return ok
}
