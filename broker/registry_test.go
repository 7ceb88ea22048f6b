package broker

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"peerchat/domain"
	"peerchat/domain/event"
)

type recordingSink struct {
	events []event.DomainEvent
}

func (s *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.events = append(s.events, e)
	return nil
}

func TestRegistry_Subscribe_One_Room_One_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	roomID := domain.RoomID("r1")
	sink := &recordingSink{}

	// Given an empty registry
	req.Nil(registry.SinksForRoom(roomID))

	// When a session subscribes
	registry.Subscribe(sessionID, roomID, sink)

	// Then its sink is the room's only subscriber
	sinks := registry.SinksForRoom(roomID)
	req.Len(sinks, 1)
	req.Contains(sinks, sink)
}

func TestRegistry_Subscribe_One_Room_Multiple_Sessions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomID := domain.RoomID("r1")
	sink1 := &recordingSink{}
	sink2 := &recordingSink{}

	registry.Subscribe(uuid.NewString(), roomID, sink1)
	registry.Subscribe(uuid.NewString(), roomID, sink2)

	sinks := registry.SinksForRoom(roomID)
	req.Len(sinks, 2)
	req.Contains(sinks, sink1)
	req.Contains(sinks, sink2)
}

func TestRegistry_Unsubscribe_Removes_Empty_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	roomID := domain.RoomID("r1")

	registry.Subscribe(sessionID, roomID, &recordingSink{})
	registry.Unsubscribe(sessionID, roomID)

	req.Nil(registry.SinksForRoom(roomID))
	req.Empty(registry.roomMembers)
	req.Empty(registry.sessions)
}

func TestRegistry_UnsubscribeAll_Covers_Every_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	other := uuid.NewString()
	sink := &recordingSink{}

	// Given one session in two rooms, plus a bystander
	registry.Subscribe(sessionID, "r1", sink)
	registry.Subscribe(sessionID, "r2", sink)
	registry.Subscribe(other, "r1", &recordingSink{})

	// When the session disconnects
	registry.UnsubscribeAll(sessionID)

	// Then it is gone from both rooms, the bystander stays
	req.Len(registry.SinksForRoom("r1"), 1)
	req.Nil(registry.SinksForRoom("r2"))
}
