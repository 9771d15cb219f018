package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/admarket/chat-api/chat"
	"github.com/admarket/chat-api/models"
)

func envelope(event string) models.SocketEnvelope {
	return models.SocketEnvelope{Event: event}
}

func testRoom(participants ...string) *models.ChatRoom {
	return &models.ChatRoom{
		ID:           primitive.NewObjectID(),
		ContextType:  "listing",
		ContextID:    "5fc51f58c72ff10004dca382",
		Participants: participants,
	}
}

func drain(conn *chat.Connection) []models.SocketEnvelope {
	var out []models.SocketEnvelope
	for {
		select {
		case envelope := <-conn.Outbox():
			out = append(out, envelope)
		default:
			return out
		}
	}
}

func TestDispatcher_MessageCreatedFanOut(t *testing.T) {
	sessions := chat.NewSessionRegistry()
	d := chat.NewDispatcher(sessions)

	senderPhone := chat.NewConnection("alice")
	senderLaptop := chat.NewConnection("alice")
	bobPhone := chat.NewConnection("bob")
	bobLaptop := chat.NewConnection("bob")
	sessions.Register(senderPhone)
	sessions.Register(senderLaptop)
	sessions.Register(bobPhone)
	sessions.Register(bobLaptop)

	room := testRoom("alice", "bob")
	message := &models.Message{RoomID: room.ID, SenderID: "alice", Content: "hello"}

	d.NotifyMessageCreated(room, message, senderPhone.ID)

	// Both of bob's sessions receive the event.
	assert.Len(t, drain(bobPhone), 1)
	assert.Len(t, drain(bobLaptop), 1)

	// The triggering connection is excluded, but alice's other device
	// still hears about its own message.
	assert.Empty(t, drain(senderPhone))
	assert.Len(t, drain(senderLaptop), 1)
}

func TestDispatcher_MessageCreatedNoLiveConnections(t *testing.T) {
	sessions := chat.NewSessionRegistry()
	d := chat.NewDispatcher(sessions)

	room := testRoom("alice", "bob")

	// Nobody is connected; delivery silently drops.
	d.NotifyMessageCreated(room, &models.Message{RoomID: room.ID, SenderID: "alice"}, "")
}

func TestDispatcher_RoomCreatedPayloadPerRecipient(t *testing.T) {
	sessions := chat.NewSessionRegistry()
	d := chat.NewDispatcher(sessions)

	aliceConn := chat.NewConnection("alice")
	bobConn := chat.NewConnection("bob")
	sessions.Register(aliceConn)
	sessions.Register(bobConn)

	room := testRoom("alice", "bob")
	d.NotifyRoomCreated(room, "")

	aliceEvents := drain(aliceConn)
	bobEvents := drain(bobConn)
	assert.Len(t, aliceEvents, 1)
	assert.Len(t, bobEvents, 1)

	assert.Equal(t, models.EventRoomCreated, aliceEvents[0].Event)

	// Each recipient sees the participant that is not themselves.
	alicePayload := aliceEvents[0].Data.(models.RoomCreatedEvent)
	bobPayload := bobEvents[0].Data.(models.RoomCreatedEvent)
	assert.Equal(t, "bob", alicePayload.OtherParticipantID)
	assert.Equal(t, "alice", bobPayload.OtherParticipantID)
}

func TestDispatcher_DeadConnectionDoesNotAbortOthers(t *testing.T) {
	sessions := chat.NewSessionRegistry()
	d := chat.NewDispatcher(sessions)

	dead := chat.NewConnection("bob")
	live := chat.NewConnection("bob")
	sessions.Register(dead)
	sessions.Register(live)

	// Saturate the dead connection's outbox so pushes to it fail.
	for dead.Push(envelope("filler")) {
	}

	room := testRoom("alice", "bob")
	d.NotifyMessageCreated(room, &models.Message{RoomID: room.ID, SenderID: "alice"}, "")

	assert.Len(t, drain(live), 1)
}
