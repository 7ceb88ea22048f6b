package repositories

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"peerchat/domain"
)

// ReadStatusTracker owns the per-(message, recipient) read ledger,
// sharing the MessageStore's BadgerDB. Rows are written pending by
// Append; every later transition goes through here.
//
// Transitions for one (reader, room) pair are serialized with a keyed
// mutex so overlapping catch-up marks from two connections of the same
// reader cannot interleave mid-batch.
type ReadStatusTracker struct {
	db  *badger.DB
	log *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewReadStatusTracker(db *badger.DB, log *slog.Logger) *ReadStatusTracker {
	return &ReadStatusTracker{db: db, log: log, locks: make(map[string]*sync.Mutex)}
}

func (t *ReadStatusTracker) lockFor(reader domain.Identity, roomID domain.RoomID) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := fmt.Sprintf("%s|%s", roomID, reader)
	lock, ok := t.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[key] = lock
	}
	return lock
}

// CreatePending writes unread rows for the given recipients. The
// normal append path creates its rows inside the append transaction;
// this exists for repair tooling and tests.
func (t *ReadStatusTracker) CreatePending(messageID int64, roomID domain.RoomID,
	recipients []domain.Identity) error {
	return t.db.Update(func(txn *badger.Txn) error {
		for _, recipient := range recipients {
			if err := txn.Set(statusKey(roomID, recipient, messageID), []byte{statusUnread}); err != nil {
				return err
			}
		}
		return nil
	})
}

// UnreadUpTo returns the reader's unread rows in the room with message
// id <= messageID, ascending. Reading message N implies everything the
// client had a chance to receive before it, hence the range query.
func (t *ReadStatusTracker) UnreadUpTo(reader domain.Identity, roomID domain.RoomID,
	messageID int64) ([]domain.ReadStatus, error) {
	return t.unread(reader, roomID, &messageID)
}

// UnreadAll returns every unread row of the reader in the room.
func (t *ReadStatusTracker) UnreadAll(reader domain.Identity, roomID domain.RoomID) ([]domain.ReadStatus, error) {
	return t.unread(reader, roomID, nil)
}

func (t *ReadStatusTracker) unread(reader domain.Identity, roomID domain.RoomID,
	upTo *int64) ([]domain.ReadStatus, error) {
	var rows []domain.ReadStatus
	err := t.db.View(func(txn *badger.Txn) error {
		prefix := statusPrefix(roomID, reader)
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id, err := parseStatusID(item.Key(), prefix)
			if err != nil {
				return err
			}
			// Keys are id-ordered, nothing past the bound qualifies.
			if upTo != nil && id > *upTo {
				break
			}
			var read bool
			if err := item.Value(func(value []byte) error {
				read = len(value) == 1 && value[0] == statusRead
				return nil
			}); err != nil {
				return err
			}
			if read {
				continue
			}
			rows = append(rows, domain.ReadStatus{
				MessageID: id,
				RoomID:    roomID,
				Recipient: reader,
				IsRead:    false,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkRead flips the given rows to read in one transaction. The flip
// is monotone, so re-marking an already-read row is a harmless no-op;
// once this returns, Unread* never surfaces the rows again.
func (t *ReadStatusTracker) MarkRead(rows []domain.ReadStatus) error {
	if len(rows) == 0 {
		return nil
	}
	// Rows of one batch always belong to a single (reader, room) pair.
	lock := t.lockFor(rows[0].Recipient, rows[0].RoomID)
	lock.Lock()
	defer lock.Unlock()

	return t.db.Update(func(txn *badger.Txn) error {
		for _, row := range rows {
			if err := txn.Set(statusKey(row.RoomID, row.Recipient, row.MessageID), []byte{statusRead}); err != nil {
				return err
			}
		}
		return nil
	})
}
