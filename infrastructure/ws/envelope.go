package ws

import (
	"time"

	"peerchat/domain/event"
)

// Inbound operation kinds. join/leave manage the live subscription;
// send, read and read-room are the chat operations proper.
const (
	OpSend     = "send"
	OpRead     = "read"
	OpReadRoom = "read-room"
	OpJoin     = "join"
	OpLeave    = "leave"
)

// Inbound is the envelope of one client frame. Which fields matter
// depends on Op.
type Inbound struct {
	Op        string `json:"op"`
	RoomID    string `json:"roomId,omitempty"`
	MessageID int64  `json:"messageId,omitempty"`
	Content   string `json:"content,omitempty"`
}

const (
	typeMessage    = "message"
	typeReadStatus = "read-status"
)

// MessagePayload mirrors a committed ChatMessage on the wire.
type MessagePayload struct {
	MessageID int64     `json:"messageId"`
	RoomID    string    `json:"roomId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Outbound is one frame pushed to a subscriber: either a new message
// or a read-status batch.
type Outbound struct {
	Type       string          `json:"type"`
	Message    *MessagePayload `json:"message,omitempty"`
	RoomID     string          `json:"roomId,omitempty"`
	Reader     string          `json:"reader,omitempty"`
	MessageIDs []int64         `json:"messageIds,omitempty"`
}

// encodeEvent maps a domain event to its wire frame. Unknown event
// kinds are skipped rather than failing the connection.
func encodeEvent(e event.DomainEvent) (Outbound, bool) {
	switch evt := e.(type) {
	case event.MessagePosted:
		return Outbound{
			Type: typeMessage,
			Message: &MessagePayload{
				MessageID: evt.Message.ID,
				RoomID:    string(evt.Message.RoomID),
				Sender:    string(evt.Message.Sender),
				Content:   evt.Message.Content,
				CreatedAt: evt.Message.CreatedAt,
			},
		}, true
	case event.ReadStatusChanged:
		return Outbound{
			Type:       typeReadStatus,
			RoomID:     string(evt.Room),
			Reader:     string(evt.Reader),
			MessageIDs: evt.MessageIDs,
		}, true
	default:
		return Outbound{}, false
	}
}
