// Package httpapi exposes the REST catch-up surface next to the
// websocket endpoint: room history and unread state, which a
// reconnecting client re-fetches instead of relying on any replay
// queue.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/samber/lo"

	"peerchat/contract"
	"peerchat/domain"
)

type API struct {
	log     *slog.Logger
	service contract.ChatService
}

// NewRouter builds the full HTTP surface: the websocket upgrade
// endpoint (which authenticates its own handshake) and the
// bearer-protected REST routes.
func NewRouter(log *slog.Logger, service contract.ChatService,
	validator contract.TokenValidator, wsHandler http.Handler) *chi.Mux {
	api := API{log: log, service: service}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/chat/inbox", wsHandler.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(validator))
		r.Get("/api/rooms/{roomID}/messages", api.listMessages)
		r.Get("/api/rooms/{roomID}/unread", api.listUnread)
	})

	return r
}

type messageResponse struct {
	MessageID int64     `json:"messageId"`
	RoomID    string    `json:"roomId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (a API) listMessages(w http.ResponseWriter, r *http.Request) {
	roomID := domain.RoomID(chi.URLParam(r, "roomID"))

	messages, err := a.service.History(roomID)
	if err != nil {
		a.log.Error("history fetch failed", "room_id", roomID, "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}

	a.respond(w, lo.Map(messages, func(m domain.ChatMessage, _ int) messageResponse {
		return messageResponse{
			MessageID: m.ID,
			RoomID:    string(m.RoomID),
			Sender:    string(m.Sender),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}))
}

type unreadResponse struct {
	RoomID     string  `json:"roomId"`
	MessageIDs []int64 `json:"messageIds"`
}

func (a API) listUnread(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	roomID := domain.RoomID(chi.URLParam(r, "roomID"))

	// REST requests carry no connection session; a throwaway one binds
	// the verified identity for the service call.
	ids, err := a.service.Unread(domain.NewSession(identity), roomID)
	if err != nil {
		a.log.Error("unread fetch failed", "room_id", roomID, "error", err)
		http.Error(w, "unread state unavailable", http.StatusInternalServerError)
		return
	}

	a.respond(w, unreadResponse{RoomID: string(roomID), MessageIDs: ids})
}

func (a API) respond(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.log.Error("response encoding failed", "error", err)
	}
}
