package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Listing holds the narrow view of the listings collection this service
// reads. Listings themselves are owned by the marketplace API; the chat
// core only resolves existence and the posting user.
type Listing struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	OwnerID string             `json:"ownerID" bson:"ownerID"`
	Title   string             `json:"title" bson:"title"`
}
