package feed

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Action is the kind of change a feed event announces.
type Action string

const (
	ActionInsert Action = "INSERT"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Event announces that a row of Table changed for RouteID. Consumers never
// inspect more than that: the contract is "something changed, re-read ground
// truth", which keeps every refresh path on the one authoritative query.
type Event struct {
	Table   string `json:"table"`
	Action  Action `json:"action"`
	RouteID string `json:"route_id"`
}

const subscriberBuffer = 16

// Hub fans change events out to per-route subscribers. Delivery is best
// effort: a slow subscriber's events are dropped (the interval poll is the
// correctness backstop), so publishers never block.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers for events on one route. The returned cancel func
// unregisters and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(routeID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if _, ok := h.subs[routeID]; !ok {
		h.subs[routeID] = make(map[chan Event]struct{})
	}
	h.subs[routeID][ch] = struct{}{}
	h.mu.Unlock()

	logrus.WithField("route_id", routeID).Debug("Feed subscriber registered.")

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if clients, ok := h.subs[routeID]; ok {
				delete(clients, ch)
				if len(clients) == 0 {
					delete(h.subs, routeID)
				}
			}
			h.mu.Unlock()
			close(ch)
			logrus.WithField("route_id", routeID).Debug("Feed subscriber unregistered.")
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of its route without
// blocking. Full subscriber buffers drop the event.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[ev.RouteID] {
		select {
		case ch <- ev:
		default:
			logrus.WithFields(logrus.Fields{
				"route_id": ev.RouteID,
				"table":    ev.Table,
			}).Warn("Feed subscriber buffer full, dropping event.")
		}
	}
}
