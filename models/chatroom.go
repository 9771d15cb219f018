package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatRoom holds the structure for the chatrooms collection in mongo.
// A room is anchored to one context entity (e.g. a listing) and exactly
// one unordered pair of participants.
type ChatRoom struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	RoomKey       string             `json:"-" bson:"roomKey"`
	ContextType   string             `json:"contextType" bson:"contextType"`
	ContextID     string             `json:"contextId" bson:"contextId"`
	Participants  []string           `json:"participants" bson:"participants"`
	CreatedAt     primitive.DateTime `json:"createdAt" bson:"createdAt"`
	LastMessageAt primitive.DateTime `json:"lastMessageAt,omitempty" bson:"lastMessageAt,omitempty"`
}

// HasParticipant reports whether the given user belongs to the room
func (c *ChatRoom) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not the given user.
// With exactly two participants per room there is always at most one.
func (c *ChatRoom) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// RoomKey builds the normalized identity of a room. The participant pair
// is sorted so that (A,B) and (B,A) produce the same key, which is what
// the unique index on roomKey enforces at creation time.
func RoomKey(contextType, contextID, participantA, participantB string) string {
	lo, hi := participantA, participantB
	if lo > hi {
		lo, hi = hi, lo
	}
	return strings.Join([]string{contextType, contextID, lo, hi}, ":")
}
