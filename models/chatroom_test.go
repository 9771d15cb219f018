package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/admarket/chat-api/models"
)

func TestRoomKeyNormalizesParticipantOrder(t *testing.T) {
	a := models.RoomKey("listing", "5fc51f58c72ff10004dca382", "alice", "bob")
	b := models.RoomKey("listing", "5fc51f58c72ff10004dca382", "bob", "alice")

	assert.Equal(t, a, b)
	assert.Equal(t, "listing:5fc51f58c72ff10004dca382:alice:bob", a)
}

func TestRoomKeyDistinguishesContexts(t *testing.T) {
	a := models.RoomKey("listing", "5fc51f58c72ff10004dca382", "alice", "bob")
	b := models.RoomKey("listing", "65a000000000000000000000", "alice", "bob")
	c := models.RoomKey("job", "5fc51f58c72ff10004dca382", "alice", "bob")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestRoomKeyDistinguishesPairs(t *testing.T) {
	a := models.RoomKey("listing", "5fc51f58c72ff10004dca382", "alice", "bob")
	b := models.RoomKey("listing", "5fc51f58c72ff10004dca382", "alice", "carol")

	assert.NotEqual(t, a, b)
}

func TestHasParticipant(t *testing.T) {
	room := models.ChatRoom{Participants: []string{"alice", "bob"}}

	assert.True(t, room.HasParticipant("alice"))
	assert.True(t, room.HasParticipant("bob"))
	assert.False(t, room.HasParticipant("carol"))
}

func TestOtherParticipant(t *testing.T) {
	room := models.ChatRoom{Participants: []string{"alice", "bob"}}

	assert.Equal(t, "bob", room.OtherParticipant("alice"))
	assert.Equal(t, "alice", room.OtherParticipant("bob"))
}
