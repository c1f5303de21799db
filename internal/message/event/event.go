package event

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type EventType string

const EventTypeMessageCreated EventType = "message.created"

// Event is a message lifecycle notification scoped to one account.
type Event struct {
	Type      EventType       `json:"type"`
	AccountID string          `json:"account_id"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type Publisher interface {
	Publish(event Event)
}

type Subscriber interface {
	Subscribe(accountID string, buffer int) (string, <-chan Event, func())
}

// Hub fans events out to per-account subscribers. A subscriber whose buffer
// is full misses the event; Publish never blocks.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan Event
}

func NewHub() *Hub {
	return &Hub{subs: map[string]map[string]chan Event{}}
}

func (h *Hub) Publish(event Event) {
	accountID := strings.TrimSpace(event.AccountID)
	if accountID == "" {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[accountID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a listener for accountID. The returned cancel func
// removes the subscription and closes the channel; it is safe to call twice.
func (h *Hub) Subscribe(accountID string, buffer int) (string, <-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	accountID = strings.TrimSpace(accountID)
	id := uuid.NewString()
	ch := make(chan Event, buffer)

	h.mu.Lock()
	if h.subs[accountID] == nil {
		h.subs[accountID] = map[string]chan Event{}
	}
	h.subs[accountID][id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.subs[accountID]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(h.subs, accountID)
				}
			}
			close(ch)
		})
	}
	return id, ch, cancel
}

// SubscriberCount reports active subscriptions for accountID.
func (h *Hub) SubscriberCount(accountID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[strings.TrimSpace(accountID)])
}
