package events

import (
	"testing"
	"time"

	"github.com/yourorg/jobboard/internal/domain"
)

func TestPublishReachesSubscribers(t *testing.T) {
	b := NewBroker()
	ch1, cancel1 := b.Subscribe(1)
	ch2, cancel2 := b.Subscribe(1)
	defer cancel1()
	defer cancel2()

	ev := StageChanged{ApplicationID: 7, FromStage: domain.StageApplied, ToStage: domain.StageScreening}
	b.Publish(ev)

	for _, ch := range []<-chan StageChanged{ch1, ch2} {
		select {
		case got := <-ch:
			if got.ApplicationID != 7 || got.ToStage != domain.StageScreening {
				t.Fatalf("unexpected event: %+v", got)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestCancelRemovesSubscription(t *testing.T) {
	b := NewBroker()
	_, cancel := b.Subscribe(1)
	if b.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", b.SubscriberCount())
	}
	cancel()
	cancel() // safe to call twice
	if b.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers after cancel, got %d", b.SubscriberCount())
	}
	// Publishing with no subscribers must not panic.
	b.Publish(StageChanged{ApplicationID: 1})
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBroker()
	_, cancel := b.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Buffer is 1; the second publish must drop, not block.
		b.Publish(StageChanged{ApplicationID: 1})
		b.Publish(StageChanged{ApplicationID: 2})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
