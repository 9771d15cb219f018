package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxMessageLength bounds the content of a single chat message
const MaxMessageLength = 4000

// Message holds the structure for the chatmessages collection in mongo.
// Messages are append only; ordering within a room is (createdAt, _id).
type Message struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	RoomID    primitive.ObjectID `json:"roomId" bson:"roomId"`
	SenderID  string             `json:"senderId" bson:"senderId"`
	Content   string             `json:"content" bson:"content"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
