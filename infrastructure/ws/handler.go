// Package ws serves the persistent chat connections. Each admitted
// connection gets a read pump and a write pump: the read pump
// processes inbound frames sequentially, the write pump drains the
// connection's sink onto the socket. Separating the two keeps a slow
// reader from blocking outbound delivery.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"peerchat/auth"
	"peerchat/contract"
	"peerchat/domain"
)

type Handler struct {
	log           *slog.Logger
	authenticator auth.Authenticator
	service       contract.ChatService
	upgrader      websocket.Upgrader
	bufferSize    int
}

func NewHandler(log *slog.Logger, authenticator auth.Authenticator,
	service contract.ChatService, bufferSize int) *Handler {
	return &Handler{
		log:           log,
		authenticator: authenticator,
		service:       service,
		upgrader: websocket.Upgrader{
			// Origins are enforced by the CORS layer in front.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		bufferSize: bufferSize,
	}
}

// ServeHTTP authenticates the handshake before upgrading. A refused
// credential means the connection is never admitted: no session, no
// subscription, no partial state.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authenticator.Authenticate(r.Header)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	// The identity is bound to the session for the connection's whole
	// lifetime; every operation below resolves its actor from here.
	sess := domain.NewSession(identity)
	sink := NewSink(h.bufferSize)
	h.log.Info("connection admitted", "identity", identity, "session_id", sess.ID)

	done := make(chan struct{})
	go h.writePump(conn, sink, done)

	h.readPump(r, conn, sess, sink)

	// Disconnect: drop every subscription first so no further event is
	// routed here, then stop the write pump.
	h.service.Disconnect(sess)
	close(done)
	_ = conn.Close()
	h.log.Info("connection closed", "identity", identity, "session_id", sess.ID)
}

func (h *Handler) writePump(conn *websocket.Conn, sink *Sink, done chan struct{}) {
	for {
		select {
		case e := <-sink.Events:
			frame, ok := encodeEvent(e)
			if !ok {
				continue
			}
			if err := conn.WriteJSON(frame); err != nil {
				h.log.Warn("write failed, abandoning connection", "error", err)
				return
			}
		case <-done:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump processes inbound frames sequentially until the client
// disconnects. Operation failures are diagnostics, not connection
// errors: the frame is dropped, the connection lives on.
func (h *Handler) readPump(r *http.Request, conn *websocket.Conn,
	sess domain.Session, sink *Sink) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("read failed", "session_id", sess.ID, "error", err)
			}
			return
		}

		var frame Inbound
		if err := json.Unmarshal(payload, &frame); err != nil {
			h.log.Warn("malformed frame dropped", "session_id", sess.ID, "error", err)
			continue
		}
		h.dispatch(r, sess, sink, frame)
	}
}

func (h *Handler) dispatch(r *http.Request, sess domain.Session,
	sink *Sink, frame Inbound) {
	ctx := r.Context()
	switch frame.Op {
	case OpJoin:
		if err := h.service.JoinRoom(sess, domain.RoomID(frame.RoomID), sink); err != nil {
			h.log.Error("join failed", "session_id", sess.ID, "room_id", frame.RoomID, "error", err)
		}
	case OpLeave:
		h.service.LeaveRoom(sess, domain.RoomID(frame.RoomID))
	case OpSend:
		if _, err := h.service.Send(ctx, sess, domain.RoomID(frame.RoomID), frame.Content); err != nil {
			h.log.Warn("send dropped", "session_id", sess.ID, "room_id", frame.RoomID, "error", err)
		}
	case OpRead:
		if _, err := h.service.MarkRead(ctx, sess, frame.MessageID); err != nil {
			h.log.Warn("mark-read dropped", "session_id", sess.ID, "message_id", frame.MessageID, "error", err)
		}
	case OpReadRoom:
		if _, err := h.service.MarkRoomRead(ctx, sess, domain.RoomID(frame.RoomID)); err != nil {
			h.log.Warn("mark-room-read dropped", "session_id", sess.ID, "room_id", frame.RoomID, "error", err)
		}
	default:
		h.log.Warn("unknown op dropped", "session_id", sess.ID, "op", frame.Op)
	}
}
