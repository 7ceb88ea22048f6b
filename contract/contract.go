//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"peerchat/domain"
	"peerchat/domain/event"
)

// EventSink is the outbound side of a subscription. Implementations
// must not block: the router calls Consume synchronously after each
// commit.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// MessageStore is the durable, ordered log of chat messages.
type MessageStore interface {
	// Append assigns a monotonic id and timestamp, persists the message
	// and, atomically with it, one pending read receipt per recipient.
	Append(roomID domain.RoomID, sender domain.Identity, content string,
		recipients []domain.Identity) (domain.ChatMessage, error)
	Get(messageID int64) (domain.ChatMessage, error)
	// ListRoom returns the room's messages ascending by id.
	ListRoom(roomID domain.RoomID) ([]domain.ChatMessage, error)
	AddMember(roomID domain.RoomID, identity domain.Identity) error
	Participants(roomID domain.RoomID) ([]domain.Identity, error)
}

// ReadStatusTracker is the per-(message, recipient) read ledger.
type ReadStatusTracker interface {
	CreatePending(messageID int64, roomID domain.RoomID, recipients []domain.Identity) error
	// UnreadUpTo returns the reader's unread rows in the room with
	// message id <= messageID, ascending.
	UnreadUpTo(reader domain.Identity, roomID domain.RoomID, messageID int64) ([]domain.ReadStatus, error)
	UnreadAll(reader domain.Identity, roomID domain.RoomID) ([]domain.ReadStatus, error)
	// MarkRead flips rows to read. Idempotent: re-marking a read row is
	// a no-op, and marked rows are never returned by Unread* again.
	MarkRead(rows []domain.ReadStatus) error
}

// Registry keeps track of which sessions subscribe to which rooms.
type Registry interface {
	Subscribe(sessionID string, roomID domain.RoomID, sink EventSink)
	Unsubscribe(sessionID string, roomID domain.RoomID)
	UnsubscribeAll(sessionID string)
	SinksForRoom(roomID domain.RoomID) []EventSink
}

// Publisher fans an event out to the current subscribers of its room.
type Publisher interface {
	Publish(ctx context.Context, e event.DomainEvent)
}

// TokenValidator verifies a bearer credential and yields the stable
// identity it was issued to. Token issuance lives elsewhere.
type TokenValidator interface {
	Validate(token string) (domain.Identity, error)
}

// ChatService coordinates authenticated sessions, the store, the
// tracker and the router.
type ChatService interface {
	Send(ctx context.Context, sess domain.Session, roomID domain.RoomID, content string) (domain.ChatMessage, error)
	MarkRead(ctx context.Context, sess domain.Session, messageID int64) ([]int64, error)
	MarkRoomRead(ctx context.Context, sess domain.Session, roomID domain.RoomID) ([]int64, error)
	JoinRoom(sess domain.Session, roomID domain.RoomID, sink EventSink) error
	LeaveRoom(sess domain.Session, roomID domain.RoomID)
	Disconnect(sess domain.Session)
	History(roomID domain.RoomID) ([]domain.ChatMessage, error)
	Unread(sess domain.Session, roomID domain.RoomID) ([]int64, error)
}
