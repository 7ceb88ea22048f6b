// Package projection builds local read models from observed events.
// Handles ordering and read marks for one owner's view of a room.
// Does not emit events or interact with the transport directly.
package projection

import (
	"context"
	"sync"

	"peerchat/domain"
	"peerchat/domain/event"
)

// Timeline holds one participant's local view of a room: the messages
// seen so far and which of the owner's messages the counterparts have
// read. It implements the event sink contract, so it can subscribe to
// a room like any connection.
type Timeline struct {
	Owner domain.Identity

	mu       sync.Mutex
	messages []domain.ChatMessage
	readBy   map[int64]map[domain.Identity]struct{}
}

func NewTimeline(owner domain.Identity) *Timeline {
	return &Timeline{
		Owner:  owner,
		readBy: make(map[int64]map[domain.Identity]struct{}),
	}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch evt := e.(type) {
	case event.MessagePosted:
		t.messages = append(t.messages, evt.Message)
	case event.ReadStatusChanged:
		// The owner's own marks say nothing about delivery receipts.
		if evt.Reader == t.Owner {
			return nil
		}
		for _, id := range evt.MessageIDs {
			if _, ok := t.readBy[id]; !ok {
				t.readBy[id] = make(map[domain.Identity]struct{})
			}
			t.readBy[id][evt.Reader] = struct{}{}
		}
	}
	return nil
}

// Messages returns the messages observed so far, in arrival order.
func (t *Timeline) Messages() []domain.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

// ReadBy reports whether any counterpart has read the message.
func (t *Timeline) ReadBy(messageID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.readBy[messageID]) > 0
}
