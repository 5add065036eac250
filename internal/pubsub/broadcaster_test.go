package pubsub

import "testing"

func TestBroadcasterDeliversToAllListeners(t *testing.T) {
	b := NewBroadcaster[int]()
	var got []int
	b.Subscribe(func(v int) { got = append(got, v) })
	b.Subscribe(func(v int) { got = append(got, v*10) })

	b.Publish(7)
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	b := NewBroadcaster[string]()
	calls := 0
	unsubscribe := b.Subscribe(func(string) { calls++ })

	b.Publish("one")
	unsubscribe()
	unsubscribe() // second call is a no-op
	b.Publish("two")

	if calls != 1 {
		t.Fatalf("expected exactly one delivery, got %d", calls)
	}
	if b.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", b.Len())
	}
}
