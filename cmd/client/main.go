// Command client is a small terminal chat client, mostly useful to
// poke a running server by hand.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"peerchat/auth"
	"peerchat/domain"
	"peerchat/domain/event"
	"peerchat/projection"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	Room          string `env:"CHAT_ROOM_ID,default=lobby"`
	Email         string `env:"CHAT_EMAIL,required=true"`
	// Token wins when set; otherwise one is self-signed with TOKEN_SECRET,
	// which only works against a server sharing the same secret.
	Token       string `env:"CHAT_TOKEN"`
	TokenSecret string `env:"TOKEN_SECRET"`
}

type inbound struct {
	Op        string `json:"op"`
	RoomID    string `json:"roomId,omitempty"`
	MessageID int64  `json:"messageId,omitempty"`
	Content   string `json:"content,omitempty"`
}

type outbound struct {
	Type       string  `json:"type"`
	RoomID     string  `json:"roomId,omitempty"`
	Reader     string  `json:"reader,omitempty"`
	MessageIDs []int64 `json:"messageIds,omitempty"`
	Message    *struct {
		MessageID int64     `json:"messageId"`
		RoomID    string    `json:"roomId"`
		Sender    string    `json:"sender"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"message,omitempty"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	token := config.Token
	if token == "" {
		if config.TokenSecret == "" {
			return exitConfig, fmt.Errorf("either CHAT_TOKEN or TOKEN_SECRET is required")
		}
		var err error
		token, err = auth.GenerateToken(config.TokenSecret, config.Email, 24*time.Hour)
		if err != nil {
			return exitConfig, fmt.Errorf("self-signing token: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.Dial(
		fmt.Sprintf("ws://%s/chat/inbox", config.ServerAddress), header)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerAddress, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(inbound{Op: "join", RoomID: config.Room}); err != nil {
		return exitRuntime, err
	}
	color.Greenln(">>> Connected. Room:", config.Room, "(Ctrl+C to quit, /read <id>, /read-room)")

	timeline := projection.NewTimeline(domain.Identity(config.Email))
	go receive(ctx, conn, config.Email, timeline)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return exitOK, nil
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "/read-room"):
			err = conn.WriteJSON(inbound{Op: "read-room", RoomID: config.Room})
		case strings.HasPrefix(line, "/read "):
			id, convErr := strconv.ParseInt(strings.TrimPrefix(line, "/read "), 10, 64)
			if convErr != nil {
				color.Redln("usage: /read <message id>")
				continue
			}
			err = conn.WriteJSON(inbound{Op: "read", MessageID: id})
		default:
			err = conn.WriteJSON(inbound{Op: "send", RoomID: config.Room, Content: line})
		}
		if err != nil {
			return exitRuntime, fmt.Errorf("write failed: %w", err)
		}
	}
	return exitOK, scanner.Err()
}

// receive prints incoming frames and keeps the local timeline so read
// receipts can be shown next to the owner's own messages.
func receive(ctx context.Context, conn *websocket.Conn, email string, timeline *projection.Timeline) {
	for {
		var frame outbound
		if err := conn.ReadJSON(&frame); err != nil {
			color.Redln("connection lost:", err)
			return
		}
		switch frame.Type {
		case "message":
			if frame.Message == nil {
				continue
			}
			_ = timeline.Consume(ctx, toEvent(frame))
			if frame.Message.Sender == email {
				color.Grayf("[%d] me: %s\n", frame.Message.MessageID, frame.Message.Content)
			} else {
				color.Cyanf("[%d] %s: %s\n", frame.Message.MessageID, frame.Message.Sender, frame.Message.Content)
			}
		case "read-status":
			_ = timeline.Consume(ctx, toReadEvent(frame))
			if frame.Reader != email {
				color.Yellowf("%s read up to message %d\n", frame.Reader, lastID(frame.MessageIDs))
			}
		}
	}
}

func toEvent(frame outbound) event.MessagePosted {
	return event.MessagePosted{Message: domain.ChatMessage{
		ID:        frame.Message.MessageID,
		RoomID:    domain.RoomID(frame.Message.RoomID),
		Sender:    domain.Identity(frame.Message.Sender),
		Content:   frame.Message.Content,
		CreatedAt: frame.Message.CreatedAt,
	}}
}

func toReadEvent(frame outbound) event.ReadStatusChanged {
	return event.ReadStatusChanged{
		Room:       domain.RoomID(frame.RoomID),
		Reader:     domain.Identity(frame.Reader),
		MessageIDs: frame.MessageIDs,
	}
}

func lastID(ids []int64) int64 {
	if len(ids) == 0 {
		return 0
	}
	return ids[len(ids)-1]
}
