package repositories

import (
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"peerchat/domain"
	"peerchat/errors"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestStore(t *testing.T, db *badger.DB) *MessageStore {
	t.Helper()
	store, err := NewMessageStore(db, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppend_Assigns_Strictly_Increasing_Ids(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t, openTestDB(t))
	room := domain.RoomID("r1")

	var lastID int64
	for i := 0; i < 5; i++ {
		message, err := store.Append(room, "alice@example.com", "hello", nil)
		req.NoError(err)
		req.Greater(message.ID, lastID)
		lastID = message.ID
	}
}

func TestListRoom_Returns_Messages_In_Creation_Order(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t, openTestDB(t))
	room := domain.RoomID("r1")

	// Given three appended messages, plus noise in another room
	contents := []string{"first", "second", "third"}
	for _, content := range contents {
		_, err := store.Append(room, "alice@example.com", content, nil)
		req.NoError(err)
	}
	_, err := store.Append("other-room", "bob@example.com", "elsewhere", nil)
	req.NoError(err)

	// When the room is listed
	messages, err := store.ListRoom(room)
	req.NoError(err)

	// Then messages come back ascending by id, creation order
	req.Len(messages, len(contents))
	for i, message := range messages {
		req.Equal(contents[i], message.Content)
		req.Equal(room, message.RoomID)
		if i > 0 {
			req.Greater(message.ID, messages[i-1].ID)
		}
	}
}

func TestGet_Resolves_Message_By_Id(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t, openTestDB(t))

	appended, err := store.Append("r1", "alice@example.com", "findable", nil)
	req.NoError(err)

	fetched, err := store.Get(appended.ID)
	req.NoError(err)
	req.Equal(appended, fetched)
}

func TestGet_Unknown_Id_Returns_NotFound(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t, openTestDB(t))

	_, err := store.Get(424242)

	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func TestAppend_Records_Sender_As_Participant(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t, openTestDB(t))
	room := domain.RoomID("r1")

	_, err := store.Append(room, "alice@example.com", "hi", nil)
	req.NoError(err)

	participants, err := store.Participants(room)
	req.NoError(err)
	req.Equal([]domain.Identity{"alice@example.com"}, participants)
}

func TestAddMember_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t, openTestDB(t))
	room := domain.RoomID("r1")

	req.NoError(store.AddMember(room, "bob@example.com"))
	req.NoError(store.AddMember(room, "bob@example.com"))

	participants, err := store.Participants(room)
	req.NoError(err)
	req.Len(participants, 1)
}

func TestAppend_Ids_Survive_Store_Reopen(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	// Given a store that already handed out ids
	first, err := NewMessageStore(db, slog.Default())
	req.NoError(err)
	before, err := first.Append("r1", "alice@example.com", "before", nil)
	req.NoError(err)
	req.NoError(first.Close())

	// When the store is reopened over the same db
	second, err := NewMessageStore(db, slog.Default())
	req.NoError(err)
	defer second.Close()
	after, err := second.Append("r1", "alice@example.com", "after", nil)
	req.NoError(err)

	// Then monotonicity holds across the restart
	req.Greater(after.ID, before.ID)
}
