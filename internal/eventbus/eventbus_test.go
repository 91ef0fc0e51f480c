package eventbus

import (
	"testing"
	"time"

	"github.com/mucollege/dispatchtrack/core/events"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	want := events.DispatchCompleted{RecordID: "d1", Recipient: "A. Sharma"}
	b.Publish(want)

	select {
	case got := <-sub:
		ev, ok := got.(events.DispatchCompleted)
		if !ok || ev.RecordID != "d1" {
			t.Fatalf("unexpected event: %#v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	b.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatal("channel should be closed")
	}
}

func TestPublishAfterCloseIsNoop(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	b.Close()
	b.Publish(events.BatchIngested{BatchID: "b1"})
	if _, ok := <-sub; ok {
		t.Fatal("closed bus must not deliver")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b := New()
	_ = b.Subscribe()
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			b.Publish(events.BatchIngested{BatchID: "b"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on full subscriber")
	}
}
