package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/admarket/chat-api/api/handlers"
	"github.com/admarket/chat-api/auth"
	"github.com/admarket/chat-api/chat"
	"github.com/admarket/chat-api/databases"
	mocksdb "github.com/admarket/chat-api/databases/mocks"
	"github.com/admarket/chat-api/models"
	"github.com/admarket/chat-api/ratelimit"
)

const socketSecret = "socket-test-secret"

func socketToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(socketSecret))
	assert.NoError(t, err)
	return signed
}

func newSocket(db databases.DatabaseHelper) handlers.Socket {
	return handlers.Socket{
		Service:        newChatService(db, chatLimits()),
		Sessions:       chat.NewSessionRegistry(),
		Verifier:       auth.NewVerifier(socketSecret, auth.NewRevocationStore()),
		Limiter:        ratelimit.New(),
		HandshakeLimit: ratelimit.Limit{Max: 1000, Window: time.Hour},
		HeartbeatLimit: ratelimit.Limit{Max: 1000, Window: time.Hour},
	}
}

func dialSocket(t *testing.T, server *httptest.Server, token string) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/chat?token=" + token
	ws, _, err := gws.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	return ws
}

func TestServeChatWebSocketRejectsBadToken(t *testing.T) {
	s := newSocket(&mocksdb.DatabaseHelper{})
	server := httptest.NewServer(http.HandlerFunc(s.ServeChatWebSocket))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/chat?token=not-a-token"
	_, resp, err := gws.DefaultDialer.Dial(url, nil)

	assert.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeChatWebSocketHandshakeRateLimited(t *testing.T) {
	s := newSocket(&mocksdb.DatabaseHelper{})
	s.HandshakeLimit = ratelimit.Limit{Max: 0, Window: time.Hour}
	server := httptest.NewServer(http.HandlerFunc(s.ServeChatWebSocket))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/chat?token=" + socketToken(t, "alice")
	_, resp, err := gws.DefaultDialer.Dial(url, nil)

	assert.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestServeChatWebSocketPing(t *testing.T) {
	s := newSocket(&mocksdb.DatabaseHelper{})
	server := httptest.NewServer(http.HandlerFunc(s.ServeChatWebSocket))
	defer server.Close()

	ws := dialSocket(t, server, socketToken(t, "alice"))
	defer ws.Close()

	err := ws.WriteJSON(models.SocketRequest{Action: "ping", Ref: "r1"})
	assert.NoError(t, err)

	var envelope models.SocketEnvelope
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	err = ws.ReadJSON(&envelope)
	assert.NoError(t, err)
	assert.Equal(t, models.EventPong, envelope.Event)
	assert.Equal(t, "r1", envelope.Ref)
}

func TestServeChatWebSocketUnknownAction(t *testing.T) {
	s := newSocket(&mocksdb.DatabaseHelper{})
	server := httptest.NewServer(http.HandlerFunc(s.ServeChatWebSocket))
	defer server.Close()

	ws := dialSocket(t, server, socketToken(t, "alice"))
	defer ws.Close()

	err := ws.WriteJSON(models.SocketRequest{Action: "self_destruct", Ref: "r2"})
	assert.NoError(t, err)

	var envelope models.SocketEnvelope
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	err = ws.ReadJSON(&envelope)
	assert.NoError(t, err)
	assert.Equal(t, models.EventError, envelope.Event)
	assert.Equal(t, "r2", envelope.Ref)

	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "unknown_action", data["code"])
}

func TestServeChatWebSocketCreateRoom(t *testing.T) {
	var db databases.DatabaseHelper
	var chatRoomsColl databases.CollectionHelper
	var usersColl databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper
	var updateResultHelper databases.UpdateResultHelper

	db = &mocksdb.DatabaseHelper{}
	chatRoomsColl = &mocksdb.CollectionHelper{}
	usersColl = &mocksdb.CollectionHelper{}
	singleResultHelper = &mocksdb.SingleResultHelper{}
	updateResultHelper = &mocksdb.UpdateResultHelper{}

	roomID := primitive.NewObjectID()

	usersColl.(*mocksdb.CollectionHelper).On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)
	updateResultHelper.(*mocksdb.UpdateResultHelper).On("UpsertedCount").Return(int64(1))
	chatRoomsColl.(*mocksdb.CollectionHelper).On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(updateResultHelper, nil)
	singleResultHelper.(*mocksdb.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.ChatRoom)
		(*arg).ID = roomID
		(*arg).Participants = []string{"alice", "bob"}
	})
	chatRoomsColl.(*mocksdb.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*mocksdb.DatabaseHelper).On("Collection", "users").Return(usersColl)
	db.(*mocksdb.DatabaseHelper).On("Collection", "chatrooms").Return(chatRoomsColl)

	s := newSocket(db)
	server := httptest.NewServer(http.HandlerFunc(s.ServeChatWebSocket))
	defer server.Close()

	ws := dialSocket(t, server, socketToken(t, "alice"))
	defer ws.Close()

	err := ws.WriteJSON(models.SocketRequest{
		Action: "create_room",
		Data: models.SocketRequestData{
			ContextType:    "listing",
			ContextID:      "5fc51f58c72ff10004dca382",
			CounterpartyID: "bob",
		},
		Ref: "r3",
	})
	assert.NoError(t, err)

	var envelope models.SocketEnvelope
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	err = ws.ReadJSON(&envelope)
	assert.NoError(t, err)
	assert.Equal(t, "room", envelope.Event)
	assert.Equal(t, "r3", envelope.Ref)

	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, true, data["isNew"])
}

func TestServeChatWebSocketSelfChatError(t *testing.T) {
	s := newSocket(&mocksdb.DatabaseHelper{})
	server := httptest.NewServer(http.HandlerFunc(s.ServeChatWebSocket))
	defer server.Close()

	ws := dialSocket(t, server, socketToken(t, "alice"))
	defer ws.Close()

	err := ws.WriteJSON(models.SocketRequest{
		Action: "create_room",
		Data: models.SocketRequestData{
			ContextType:    "listing",
			ContextID:      "5fc51f58c72ff10004dca382",
			CounterpartyID: "alice",
		},
		Ref: "r4",
	})
	assert.NoError(t, err)

	var envelope models.SocketEnvelope
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	err = ws.ReadJSON(&envelope)
	assert.NoError(t, err)
	assert.Equal(t, models.EventError, envelope.Event)

	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "self_chat", data["code"])
}
