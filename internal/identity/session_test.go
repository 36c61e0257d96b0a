package identity

import (
	"context"
	"testing"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	hub := NewSessionContext()
	count := 0
	unsubscribe := hub.Subscribe(func(Event) { count++ })

	hub.publish(Event{Kind: EventSignedIn})
	unsubscribe()
	unsubscribe()
	hub.publish(Event{Kind: EventSignedOut})

	if count != 1 {
		t.Fatalf("expected 1 event, got %d", count)
	}
	if hub.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.Subscribers())
	}
}

func TestCloseDropsSubscribers(t *testing.T) {
	hub := NewSessionContext()
	count := 0
	hub.Subscribe(func(Event) { count++ })
	hub.Close()

	hub.publish(Event{Kind: EventSignedIn})
	hub.Subscribe(func(Event) { count++ })()
	if count != 0 {
		t.Fatalf("expected no events after close, got %d", count)
	}
	if hub.Subscribers() != 0 {
		t.Fatalf("expected no subscribers after close")
	}
}

func TestFromContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("expected no session")
	}
	ctx := WithSession(context.Background(), Session{UserID: "u1"})
	sess, ok := FromContext(ctx)
	if !ok || sess.UserID != "u1" {
		t.Fatalf("unexpected session %+v", sess)
	}
}
