package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventConnected   = "connected"
	EventPlanCreated = "plan_created"
	EventPlanDeleted = "plan_deleted"
	EventPlanShared  = "plan_shared"
)

const subscriberBuffer = 10

type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// PlanEvent — полезная нагрузка событий жизненного цикла сохраненного плана.
type PlanEvent struct {
	PlanID           uuid.UUID `json:"plan_id"`
	Title            string    `json:"title,omitempty"`
	Strategy         string    `json:"strategy,omitempty"`
	MonthsToDebtFree *int      `json:"months_to_debt_free,omitempty"`
}

// Hub рассылает события подписчикам конкретного пользователя. Медленный подписчик теряет события, а не блокирует отправителя.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan Event]struct{}
	now         func() time.Time
}

// NewHub создает хаб для SSE-подписок.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[chan Event]struct{}),
		now:         time.Now,
	}
}

// Subscribe подписывает пользователя на события и возвращает канал и функцию отписки.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	userSubs, ok := h.subscribers[userID]
	if !ok {
		userSubs = make(map[chan Event]struct{})
		h.subscribers[userID] = userSubs
	}
	userSubs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if subs, exists := h.subscribers[userID]; exists {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.subscribers, userID)
				}
			}
			close(ch)
		})
	}
}

// Publish отправляет событие всем подписчикам пользователя.
func (h *Hub) Publish(userID uuid.UUID, event Event) {
	event.Timestamp = h.now().UTC()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[userID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishPlan отправляет событие по сохраненному плану; nil-хаб игнорируется.
func (h *Hub) PublishPlan(userID uuid.UUID, eventType string, payload PlanEvent) {
	if h == nil {
		return
	}
	h.Publish(userID, Event{Type: eventType, Data: payload})
}

// Subscribers возвращает число активных подписок пользователя.
func (h *Hub) Subscribers(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}
