package notify

import "sync"

// Event is a realtime message pushed over SSE.
type Event struct {
	Name string
	Data any
}

const subscriberBuffer = 8

// Hub fans events out to connected customers and to the staff dashboard.
// Sends never block: a subscriber with a full buffer misses the event, the
// authoritative state stays in the database.
type Hub struct {
	mu        sync.RWMutex
	customers map[string][]chan Event
	admins    []chan Event
}

// NewHub builds an empty hub.
func NewHub() *Hub {
	return &Hub{customers: make(map[string][]chan Event)}
}

// Subscribe registers a customer stream. The returned cancel func must be
// called when the connection closes.
func (h *Hub) Subscribe(customerID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.customers[customerID] = append(h.customers[customerID], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.customers[customerID]
		for i, sub := range subs {
			if sub == ch {
				h.customers[customerID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(h.customers[customerID]) == 0 {
			delete(h.customers, customerID)
		}
		close(ch)
	}
	return ch, cancel
}

// SubscribeAdmin registers a staff dashboard stream.
func (h *Hub) SubscribeAdmin() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.admins = append(h.admins, ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, sub := range h.admins {
			if sub == ch {
				h.admins = append(h.admins[:i], h.admins[i+1:]...)
				break
			}
		}
		close(ch)
	}
	return ch, cancel
}

// PublishToCustomer delivers an event to every stream of one customer.
func (h *Hub) PublishToCustomer(customerID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.customers[customerID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishToAdmins delivers an event to every staff stream.
func (h *Hub) PublishToAdmins(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.admins {
		select {
		case ch <- event:
		default:
		}
	}
}

// CustomerCount reports the number of distinct customers with live streams.
func (h *Hub) CustomerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.customers)
}
