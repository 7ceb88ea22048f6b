package event

import (
	"peerchat/domain"
)

// DomainEvent is anything the broadcast router can fan out to the
// subscribers of a room.
type DomainEvent interface {
	RoomID() domain.RoomID
}

// MessagePosted is published after a message and its pending read
// receipts are durably committed.
type MessagePosted struct {
	Message domain.ChatMessage
}

func (e MessagePosted) RoomID() domain.RoomID {
	return e.Message.RoomID
}

// ReadStatusChanged is published after a batch of receipts flipped to
// read. MessageIDs is ascending.
type ReadStatusChanged struct {
	Room       domain.RoomID
	Reader     domain.Identity
	MessageIDs []int64
}

func (e ReadStatusChanged) RoomID() domain.RoomID {
	return e.Room
}
