package broker

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"peerchat/domain"
	"peerchat/domain/event"
)

type failingSink struct{}

func (failingSink) Consume(context.Context, event.DomainEvent) error {
	return fmt.Errorf("subscriber gone")
}

func TestRouter_Publish_Reaches_Only_The_Rooms_Subscribers(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	router := NewRouter(slog.Default(), registry)

	inRoom := &recordingSink{}
	elsewhere := &recordingSink{}
	registry.Subscribe(uuid.NewString(), "r1", inRoom)
	registry.Subscribe(uuid.NewString(), "r2", elsewhere)

	posted := event.MessagePosted{Message: domain.ChatMessage{ID: 1, RoomID: "r1", Sender: "alice@example.com"}}
	router.Publish(context.Background(), posted)

	req.Equal([]event.DomainEvent{posted}, inRoom.events)
	req.Empty(elsewhere.events)
}

func TestRouter_Publish_Delivers_Exactly_Once_Per_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	router := NewRouter(slog.Default(), registry)

	// Given one session subscribed to two rooms
	sink := &recordingSink{}
	sessionID := uuid.NewString()
	registry.Subscribe(sessionID, "r1", sink)
	registry.Subscribe(sessionID, "r2", sink)

	router.Publish(context.Background(), event.MessagePosted{
		Message: domain.ChatMessage{ID: 7, RoomID: "r1"},
	})

	// Then the session sees the r1 event once, not once per room
	req.Len(sink.events, 1)
}

func TestRouter_One_Failing_Sink_Does_Not_Block_The_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	router := NewRouter(slog.Default(), registry)

	healthy := &recordingSink{}
	registry.Subscribe(uuid.NewString(), "r1", failingSink{})
	registry.Subscribe(uuid.NewString(), "r1", healthy)

	router.Publish(context.Background(), event.ReadStatusChanged{
		Room:       "r1",
		Reader:     "bob@example.com",
		MessageIDs: []int64{1, 2},
	})

	req.Len(healthy.events, 1)
}
