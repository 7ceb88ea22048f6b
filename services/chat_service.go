package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"peerchat/contract"
	"peerchat/domain"
	"peerchat/domain/event"
	"peerchat/errors"
)

// ChatService coordinates authenticated sessions with the store, the
// read ledger and the broadcast router. Each inbound operation is
// independent: the only serialization is what the store and tracker
// provide for single-record consistency.
//
// The acting identity always comes from the session the transport
// bound at handshake time; the UnboundIdentity guard below is a
// degraded-input policy for direct API misuse, not a retry target.
type ChatService struct {
	log        *slog.Logger
	store      contract.MessageStore
	tracker    contract.ReadStatusTracker
	registry   contract.Registry
	router     contract.Publisher
	validate   *validator.Validate
	contentTag string
}

func NewChatService(log *slog.Logger, store contract.MessageStore,
	tracker contract.ReadStatusTracker, registry contract.Registry,
	router contract.Publisher, maxContentLength int) *ChatService {
	return &ChatService{
		log:        log,
		store:      store,
		tracker:    tracker,
		registry:   registry,
		router:     router,
		validate:   validator.New(),
		contentTag: fmt.Sprintf("required,max=%d", maxContentLength),
	}
}

func (s *ChatService) requireIdentity(sess domain.Session, op string) (domain.Identity, error) {
	if !sess.Bound() {
		s.log.Warn("dropping operation from unbound session", "op", op)
		return "", errors.ErrUnboundIdentity
	}
	return sess.Identity, nil
}

// Send persists a message stamped with the session's identity and
// broadcasts it to the room. Recipients are the room's recorded
// participants minus the sender; their pending receipts are written in
// the same transaction as the message, so nothing partial can ever be
// observed. The broadcast includes the sender's own sessions for UI
// echo.
func (s *ChatService) Send(ctx context.Context, sess domain.Session,
	roomID domain.RoomID, content string) (domain.ChatMessage, error) {
	sender, err := s.requireIdentity(sess, "send")
	if err != nil {
		return domain.ChatMessage{}, err
	}
	if err := s.validate.Var(content, s.contentTag); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("%w: %v", errors.ErrInvalidContent, err)
	}

	participants, err := s.store.Participants(roomID)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	recipients := lo.Filter(participants, func(identity domain.Identity, _ int) bool {
		return identity != sender
	})

	message, err := s.store.Append(roomID, sender, content, recipients)
	if err != nil {
		return domain.ChatMessage{}, err
	}

	s.router.Publish(ctx, event.MessagePosted{Message: message})
	return message, nil
}

// MarkRead flips every unread row of the reader in the message's room
// up to and including the given id (catch-up semantics), then
// broadcasts the affected ids. An unknown message id aborts with
// ErrMessageNotFound and no broadcast; zero qualifying rows is a
// silent no-op.
func (s *ChatService) MarkRead(ctx context.Context, sess domain.Session,
	messageID int64) ([]int64, error) {
	reader, err := s.requireIdentity(sess, "mark-read")
	if err != nil {
		return nil, err
	}

	message, err := s.store.Get(messageID)
	if err != nil {
		return nil, err
	}

	rows, err := s.tracker.UnreadUpTo(reader, message.RoomID, messageID)
	if err != nil {
		return nil, err
	}
	return s.flip(ctx, reader, message.RoomID, rows)
}

// MarkRoomRead clears the reader's entire backlog in the room, used on
// room entry.
func (s *ChatService) MarkRoomRead(ctx context.Context, sess domain.Session,
	roomID domain.RoomID) ([]int64, error) {
	reader, err := s.requireIdentity(sess, "mark-room-read")
	if err != nil {
		return nil, err
	}

	rows, err := s.tracker.UnreadAll(reader, roomID)
	if err != nil {
		return nil, err
	}
	return s.flip(ctx, reader, roomID, rows)
}

func (s *ChatService) flip(ctx context.Context, reader domain.Identity,
	roomID domain.RoomID, rows []domain.ReadStatus) ([]int64, error) {
	if len(rows) == 0 {
		s.log.Debug("nothing unread", "reader", reader, "room_id", roomID)
		return nil, nil
	}
	if err := s.tracker.MarkRead(rows); err != nil {
		return nil, err
	}

	ids := lo.Map(rows, func(row domain.ReadStatus, _ int) int64 {
		return row.MessageID
	})
	s.router.Publish(ctx, event.ReadStatusChanged{
		Room:       roomID,
		Reader:     reader,
		MessageIDs: ids,
	})
	return ids, nil
}

// JoinRoom records durable room membership, making the identity a
// recipient of future messages, and subscribes the session's sink to
// the room's live channel.
func (s *ChatService) JoinRoom(sess domain.Session, roomID domain.RoomID,
	sink contract.EventSink) error {
	identity, err := s.requireIdentity(sess, "join")
	if err != nil {
		return err
	}
	if err := s.store.AddMember(roomID, identity); err != nil {
		return err
	}
	s.registry.Subscribe(sess.ID, roomID, sink)
	return nil
}

// LeaveRoom drops the live subscription. Membership persists: leaving
// a connection does not remove the identity from the recipient set.
func (s *ChatService) LeaveRoom(sess domain.Session, roomID domain.RoomID) {
	s.registry.Unsubscribe(sess.ID, roomID)
}

// Disconnect removes a closing session from every room subscriber set.
// Operations it already initiated still complete; durability never
// depends on the initiating connection staying alive.
func (s *ChatService) Disconnect(sess domain.Session) {
	s.registry.UnsubscribeAll(sess.ID)
}

// History returns the room's messages in creation order.
func (s *ChatService) History(roomID domain.RoomID) ([]domain.ChatMessage, error) {
	return s.store.ListRoom(roomID)
}

// Unread returns the ids the session's identity has not read in the
// room, ascending.
func (s *ChatService) Unread(sess domain.Session, roomID domain.RoomID) ([]int64, error) {
	reader, err := s.requireIdentity(sess, "unread")
	if err != nil {
		return nil, err
	}
	rows, err := s.tracker.UnreadAll(reader, roomID)
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(row domain.ReadStatus, _ int) int64 {
		return row.MessageID
	}), nil
}
