package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New()
	defer bus.Close()
	sub := bus.Subscribe()

	bus.Publish("hello")
	select {
	case e := <-sub:
		if e != "hello" {
			t.Fatalf("got %v", e)
		}
	case <-time.After(time.Second):
		t.Fatalf("event not delivered")
	}
}

func TestFanOut(t *testing.T) {
	bus := New()
	defer bus.Close()
	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.Publish(42)
	for _, sub := range []<-chan Event{a, b} {
		select {
		case e := <-sub:
			if e != 42 {
				t.Fatalf("got %v", e)
			}
		case <-time.After(time.Second):
			t.Fatalf("fan-out missed a subscriber")
		}
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := New()
	defer bus.Close()
	sub := bus.Subscribe()

	// Overfill the buffer; Publish must not stall.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			bus.Publish(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}
	// The buffer holds the first events; later ones were dropped.
	if e := <-sub; e != 0 {
		t.Fatalf("first buffered event = %v", e)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	defer bus.Close()
	sub := bus.Subscribe()
	bus.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatalf("unsubscribed channel must be closed")
	}
	bus.Publish("ignored")
}

func TestCloseClosesAllSubscribers(t *testing.T) {
	bus := New()
	a := bus.Subscribe()
	b := bus.Subscribe()
	bus.Close()
	if _, ok := <-a; ok {
		t.Fatalf("subscriber a still open")
	}
	if _, ok := <-b; ok {
		t.Fatalf("subscriber b still open")
	}
	// Idempotent.
	bus.Close()
	bus.Publish("ignored")
	if sub := bus.Subscribe(); sub == nil {
		t.Fatalf("subscribe after close must return a closed channel")
	} else if _, ok := <-sub; ok {
		t.Fatalf("post-close subscription must be closed")
	}
}
