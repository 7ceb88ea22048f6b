package broker

import (
	"context"
	"log/slog"

	"peerchat/contract"
	"peerchat/domain/event"
)

// Router fans one committed event out to every sink subscribed to the
// event's room.
//
// Delivery is best-effort and synchronous relative to the triggering
// operation: Publish is only called after the store mutation is
// durable, so subscribers never observe an event for data that could
// still be lost. There is no retry and no replay queue; disconnected
// clients re-fetch.
type Router struct {
	log      *slog.Logger
	registry contract.Registry
}

func NewRouter(log *slog.Logger, registry contract.Registry) *Router {
	return &Router{log: log, registry: registry}
}

// Publish delivers the event to a snapshot of the room's current
// subscribers. A failing sink is logged and skipped; one slow or dead
// connection must not block the rest of the room.
func (r *Router) Publish(ctx context.Context, e event.DomainEvent) {
	for _, sink := range r.registry.SinksForRoom(e.RoomID()) {
		if err := sink.Consume(ctx, e); err != nil {
			r.log.Warn("dropping event for subscriber",
				"room_id", e.RoomID(),
				"error", err)
		}
	}
}
