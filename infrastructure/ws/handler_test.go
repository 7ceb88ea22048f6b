package ws

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"peerchat/auth"
	"peerchat/broker"
	"peerchat/repositories"
	"peerchat/services"
)

const testSecret = "ws-test-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	store, err := repositories.NewMessageStore(db, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tracker := repositories.NewReadStatusTracker(db, log)
	registry := broker.NewRegistry()
	router := broker.NewRouter(log, registry)
	service := services.NewChatService(log, store, tracker, registry, router, 4096)

	validator := auth.NewTokenValidator(testSecret)
	handler := NewHandler(log, auth.NewAuthenticator(validator, log), service, 16)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, email string) *websocket.Conn {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, email, time.Hour)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame Inbound) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
}

func readFrame(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame Outbound
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestHandshake_Without_Credential_Is_Refused(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	req.Error(err)
	req.NotNil(resp)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestHandshake_With_Invalid_Credential_Is_Refused(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	token, err := auth.GenerateToken("wrong-secret", "mallory@example.com", time.Hour)
	req.NoError(err)
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)

	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestSend_Is_Observed_By_The_Other_Subscriber_Exactly_Once(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	alice := dial(t, server, "alice@example.com")
	bob := dial(t, server, "bob@example.com")

	// Given both joined room r2, each proven by their own send echo
	// (a connection receives its own message once subscribed)
	send(t, alice, Inbound{Op: OpJoin, RoomID: "r2"})
	send(t, alice, Inbound{Op: OpSend, RoomID: "r2", Content: "alice here"})
	req.Equal("alice here", readFrame(t, alice).Message.Content)

	send(t, bob, Inbound{Op: OpJoin, RoomID: "r2"})
	send(t, bob, Inbound{Op: OpSend, RoomID: "r2", Content: "bob here"})
	req.Equal("bob here", readFrame(t, bob).Message.Content)
	req.Equal("bob here", readFrame(t, alice).Message.Content)

	// When alice sends
	send(t, alice, Inbound{Op: OpSend, RoomID: "r2", Content: "ping"})

	// Then bob observes it exactly once with matching content and a
	// fresh id, and nothing else follows it
	frame := readFrame(t, bob)
	req.Equal("message", frame.Type)
	req.Equal("ping", frame.Message.Content)
	req.Equal("alice@example.com", frame.Message.Sender)
	req.Positive(frame.Message.MessageID)

	echo := readFrame(t, alice)
	req.Equal(frame.Message.MessageID, echo.Message.MessageID)
}

func TestMarkRead_Broadcasts_Read_Status_To_The_Room(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	alice := dial(t, server, "alice@example.com")
	bob := dial(t, server, "bob@example.com")

	send(t, alice, Inbound{Op: OpJoin, RoomID: "r1"})
	send(t, alice, Inbound{Op: OpSend, RoomID: "r1", Content: "hello"})
	req.Equal("hello", readFrame(t, alice).Message.Content)

	send(t, bob, Inbound{Op: OpJoin, RoomID: "r1"})
	send(t, bob, Inbound{Op: OpSend, RoomID: "r1", Content: "hi"})
	req.Equal("hi", readFrame(t, bob).Message.Content)
	req.Equal("hi", readFrame(t, alice).Message.Content)

	// Given a message from alice that bob has pending
	send(t, alice, Inbound{Op: OpSend, RoomID: "r1", Content: "read me"})
	readMe := readFrame(t, bob)
	req.Equal("read me", readMe.Message.Content)
	_ = readFrame(t, alice) // alice's echo

	// When bob marks it read
	send(t, bob, Inbound{Op: OpRead, MessageID: readMe.Message.MessageID})

	// Then alice receives the read-status batch naming bob
	status := readFrame(t, alice)
	req.Equal("read-status", status.Type)
	req.Equal("bob@example.com", status.Reader)
	req.Contains(status.MessageIDs, readMe.Message.MessageID)
}
