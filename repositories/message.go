package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"peerchat/domain"
	"peerchat/errors"
)

const sequenceBandwidth = 64

// MessageStore is the durable, ordered log of chat messages in
// BadgerDB. Ids come from a Badger sequence and are globally
// monotonic; thanks to the zero-padded id in the key, a prefix scan
// yields a room's messages in creation order.
type MessageStore struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

func NewMessageStore(db *badger.DB, log *slog.Logger) (*MessageStore, error) {
	seq, err := db.GetSequence([]byte("seq:message"), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("message id sequence: %w", err)
	}
	return &MessageStore{db: db, seq: seq, log: log}, nil
}

// Close releases the unused part of the id lease. Ids handed out but
// never committed stay burned, which is fine: they must never be
// reused, not be dense.
func (s *MessageStore) Close() error {
	return s.seq.Release()
}

// Append persists a message and, in the same transaction, one pending
// read receipt per non-sender recipient plus the sender's membership
// row. A reader can therefore never observe a message whose receipts
// are missing.
func (s *MessageStore) Append(roomID domain.RoomID, sender domain.Identity,
	content string, recipients []domain.Identity) (domain.ChatMessage, error) {
	next, err := s.seq.Next()
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("allocating message id: %w", err)
	}

	message := domain.ChatMessage{
		ID:        int64(next) + 1, // sequence starts at 0, ids at 1
		RoomID:    roomID,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return domain.ChatMessage{}, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(roomID, message.ID), payload); err != nil {
			return err
		}
		if err := txn.Set(refKey(message.ID), []byte(roomID)); err != nil {
			return err
		}
		if err := txn.Set(memberKey(roomID, sender), nil); err != nil {
			return err
		}
		for _, recipient := range recipients {
			if recipient == sender {
				continue
			}
			if err := txn.Set(statusKey(roomID, recipient, message.ID), []byte{statusUnread}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("appending message: %w", err)
	}
	return message, nil
}

// Get resolves a message by id alone, via the msgref index.
func (s *MessageStore) Get(messageID int64) (domain.ChatMessage, error) {
	var message domain.ChatMessage
	err := s.db.View(func(txn *badger.Txn) error {
		ref, err := txn.Get(refKey(messageID))
		if err != nil {
			return err
		}
		var roomID domain.RoomID
		if err := ref.Value(func(value []byte) error {
			roomID = domain.RoomID(value)
			return nil
		}); err != nil {
			return err
		}

		item, err := txn.Get(messageKey(roomID, messageID))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &message)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.ChatMessage{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.ChatMessage{}, err
	}
	return message, nil
}

// ListRoom returns the room's messages ascending by id. A reconnecting
// client re-fetches history through this instead of a replay queue.
func (s *MessageStore) ListRoom(roomID domain.RoomID) ([]domain.ChatMessage, error) {
	var messages []domain.ChatMessage
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(roomID)
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var message domain.ChatMessage
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &message)
			})
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// AddMember records an identity as a participant of the room, making
// it a recipient of every later message. Joining is idempotent and
// membership survives disconnects.
func (s *MessageStore) AddMember(roomID domain.RoomID, identity domain.Identity) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(memberKey(roomID, identity), nil)
	})
}

// Participants returns every identity recorded in the room.
func (s *MessageStore) Participants(roomID domain.RoomID) ([]domain.Identity, error) {
	var participants []domain.Identity
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := memberPrefix(roomID)
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			participants = append(participants, domain.Identity(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participants, nil
}
