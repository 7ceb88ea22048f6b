package ws

import (
	"context"
	"fmt"

	"peerchat/domain/event"
)

// Sink bridges the broadcast router to one connection's write pump.
// Consume is called by the router after each commit; the write pump
// drains Events onto the socket.
type Sink struct {
	Events chan event.DomainEvent
}

func NewSink(bufferSize int) *Sink {
	return &Sink{Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume hands the event to the connection's channel without ever
// blocking the publisher. A full buffer means the client is too slow;
// the event is dropped and the client re-fetches on its next explicit
// read, per best-effort delivery.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("connection buffer full, event dropped")
	}
}
