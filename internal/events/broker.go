// Package events fans stage-change notifications out to in-process
// subscribers, feeding the live hr event stream. Publishing happens
// synchronously after the storage transaction commits; there are no
// background workers.
package events

import (
	"sync"
	"time"

	"github.com/yourorg/jobboard/internal/domain"
)

// StageChanged describes one committed stage transition.
type StageChanged struct {
	ApplicationID int64           `json:"applicationId"`
	JobID         int64           `json:"jobId"`
	FromStage     domain.Stage    `json:"fromStage"`
	ToStage       domain.Stage    `json:"toStage"`
	Decision      domain.Decision `json:"decision"`
	ChangedBy     string          `json:"changedByUserId"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// Broker is a minimal in-process publish/subscribe hub.
type Broker struct {
	mu     sync.RWMutex
	subs   map[int]chan StageChanged
	nextID int
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan StageChanged)}
}

// Subscribe registers a subscriber with the given channel buffer. The cancel
// function removes the subscription and closes the channel; it is safe to
// call more than once.
func (b *Broker) Subscribe(buffer int) (<-chan StageChanged, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan StageChanged, buffer)
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking. A
// subscriber whose buffer is full misses the event; the durable record
// lives in the stage-event table, not here.
func (b *Broker) Publish(ev StageChanged) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
