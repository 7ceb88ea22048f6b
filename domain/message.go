// Package domain contains core concepts of the chat system.
// This file defines chat messages and the identifiers they are keyed by.
// Messages are immutable once appended to the store.
package domain

import (
	"time"
)

// Identity is the stable reference of an authenticated participant,
// in practice the verified email address. Immutable once bound to a
// connection.
type Identity string

// RoomID identifies a room. Rooms are not stored entities, only a
// grouping key over messages and subscriptions.
type RoomID string

// ChatMessage represents an immutable chat event.
// The ID is assigned by the message store and is globally monotonic:
// a greater ID always means a later append.
type ChatMessage struct {
	ID        int64
	RoomID    RoomID
	Sender    Identity
	Content   string
	CreatedAt time.Time
}
