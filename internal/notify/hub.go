package notify

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

const subscriberBuffer = 16

// Hub fans notifications out to the sessions currently connected to the
// stream endpoint. Slow subscribers lose events rather than block publishers.
type Hub struct {
	mu   sync.RWMutex
	subs map[primitive.ObjectID]map[chan models.Notification]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[primitive.ObjectID]map[chan models.Notification]struct{})}
}

// Subscribe registers a session for userID. The returned func must be called
// when the session ends.
func (h *Hub) Subscribe(userID primitive.ObjectID) (<-chan models.Notification, func()) {
	ch := make(chan models.Notification, subscriberBuffer)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan models.Notification]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish returns the number of sessions that received n.
func (h *Hub) Publish(userIDs []primitive.ObjectID, n models.Notification) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, id := range userIDs {
		for ch := range h.subs[id] {
			select {
			case ch <- n:
				delivered++
			default:
			}
		}
	}
	return delivered
}

func (h *Hub) Connected(userID primitive.ObjectID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
