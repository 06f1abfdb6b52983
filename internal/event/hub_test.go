package event

import (
	"testing"
)

func TestHub_PublishOrder(t *testing.T) {
	hub := NewHub()

	var got []int
	hub.Subscribe(TopicOrderCreated, func(payload interface{}) {
		got = append(got, 1)
	})
	hub.Subscribe(TopicOrderCreated, func(payload interface{}) {
		got = append(got, 2)
	})
	hub.Subscribe(TopicOrderFilled, func(payload interface{}) {
		t.Error("handler on another topic must not fire")
	})

	hub.Publish(TopicOrderCreated, nil)

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("handlers ran as %v, want registration order [1 2]", got)
	}
}

func TestHub_PanicIsolation(t *testing.T) {
	hub := NewHub()

	ran := false
	hub.Subscribe(TopicSyncComplete, func(payload interface{}) {
		panic("consumer bug")
	})
	hub.Subscribe(TopicSyncComplete, func(payload interface{}) {
		ran = true
	})

	// Must not panic through to the publisher.
	hub.Publish(TopicSyncComplete, nil)

	if !ran {
		t.Error("a panicking handler must not starve later handlers")
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()

	calls := 0
	token := hub.Subscribe(TopicOrdersUpdated, func(payload interface{}) {
		calls++
	})

	hub.Publish(TopicOrdersUpdated, nil)
	hub.Unsubscribe(TopicOrdersUpdated, token)
	hub.Publish(TopicOrdersUpdated, nil)

	if calls != 1 {
		t.Errorf("calls = %d, want 1 after unsubscribe", calls)
	}
	if hub.SubscriberCount(TopicOrdersUpdated) != 0 {
		t.Error("subscriber count should be zero after unsubscribe")
	}

	// Unknown token is a no-op
	hub.Unsubscribe(TopicOrdersUpdated, 9999)
}

func TestHub_PayloadDelivery(t *testing.T) {
	hub := NewHub()

	var got interface{}
	hub.Subscribe(TopicConnectionErr, func(payload interface{}) {
		got = payload
	})

	hub.Publish(TopicConnectionErr, "boom")

	if got != "boom" {
		t.Errorf("payload = %v, want boom", got)
	}
}
