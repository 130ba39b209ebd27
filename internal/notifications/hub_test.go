package notifications

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestHubPublishSubscribe проверяет доставку событий подписчику.
func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	defer unsubscribe()

	hub.Publish(userID, Event{Type: "test"})

	select {
	case event := <-ch:
		if event.Type != "test" {
			t.Fatalf("expected event type test, got %s", event.Type)
		}
		if event.Timestamp.IsZero() {
			t.Fatal("expected timestamp to be set")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event to be delivered")
	}
}

// TestHubUnsubscribe проверяет закрытие канала после отписки и повторный вызов.
func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	unsubscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
	if hub.Subscribers(userID) != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.Subscribers(userID))
	}
}

// TestHubPublishPlanIsolation проверяет, что события не уходят чужим пользователям.
func TestHubPublishPlanIsolation(t *testing.T) {
	hub := NewHub()
	owner := uuid.New()
	other := uuid.New()

	ownerCh, unsubscribeOwner := hub.Subscribe(owner)
	defer unsubscribeOwner()
	otherCh, unsubscribeOther := hub.Subscribe(other)
	defer unsubscribeOther()

	planID := uuid.New()
	hub.PublishPlan(owner, EventPlanCreated, PlanEvent{PlanID: planID, Strategy: "avalanche"})

	select {
	case event := <-ownerCh:
		payload, ok := event.Data.(PlanEvent)
		if !ok || payload.PlanID != planID || event.Type != EventPlanCreated {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected plan event to be delivered")
	}

	select {
	case event := <-otherCh:
		t.Fatalf("expected no event for other user, got %+v", event)
	default:
	}
}

// TestHubDropsWhenBufferFull проверяет, что переполненный подписчик не блокирует Publish.
func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish(userID, Event{Type: "tick"})
	}

	if len(ch) != subscriberBuffer {
		t.Fatalf("expected %d buffered events, got %d", subscriberBuffer, len(ch))
	}

	var nilHub *Hub
	nilHub.PublishPlan(userID, EventPlanDeleted, PlanEvent{})
}
