package events

import (
	"sync"

	"auction-platform/utils"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts losing events rather than stalling the
// publishing engine.
const subscriberBuffer = 16

// Hub fans published events out to per-auction subscriber sets. It is the
// in-process Event Sink implementation backing the live event stream:
// publishing never blocks, and events for one auction reach its subscribers
// in the order the engine committed them.
type Hub struct {
	mu          sync.RWMutex
	closed      bool
	subscribers map[string]map[chan Event]struct{} // key: auctionID
}

// NewHub creates a hub with no subscribers
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Publish delivers the event to every subscriber of its auction. Slow
// subscribers are skipped once their buffer is full.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	for ch := range h.subscribers[event.AuctionID] {
		select {
		case ch <- event:
		default:
			utils.Warn("event hub: dropping event for slow subscriber", map[string]any{
				"auction_id": event.AuctionID,
				"kind":       string(event.Kind),
			})
		}
	}
}

// Subscribe registers a new subscriber for one auction's event feed
func (h *Hub) Subscribe(auctionID string) chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch
	}
	if h.subscribers[auctionID] == nil {
		h.subscribers[auctionID] = make(map[chan Event]struct{})
	}
	h.subscribers[auctionID][ch] = struct{}{}
	return ch
}

// Unsubscribe removes the subscriber and closes its channel. Unsubscribing
// an unknown channel is a no-op.
func (h *Hub) Unsubscribe(auctionID string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subscribers[auctionID]
	if !ok {
		return
	}
	if _, exists := set[ch]; !exists {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(h.subscribers, auctionID)
	}
}

// Close shuts the hub down, closing every subscriber channel. Publishing
// after Close is a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for auctionID, set := range h.subscribers {
		for ch := range set {
			close(ch)
		}
		delete(h.subscribers, auctionID)
	}
}
