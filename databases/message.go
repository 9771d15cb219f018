package databases

// go generate: mockery --name MessageDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/admarket/chat-api/models"
)

const messageName = "chatmessages"

// MessageDatabase contains the methods to use with the chat message database
type MessageDatabase interface {
	Insert(ctx context.Context, message models.Message) (*models.Message, error)
	FindByRoom(ctx context.Context, roomID primitive.ObjectID, limit, page int64) ([]models.Message, error)
	CountByRoom(ctx context.Context, roomID primitive.ObjectID) (int64, error)
}

type messageDatabase struct {
	db DatabaseHelper
}

// NewMessageDatabase initializes a new instance of message database with the provided db connection
func NewMessageDatabase(db DatabaseHelper) MessageDatabase {
	return &messageDatabase{
		db: db,
	}
}

func (m *messageDatabase) Insert(ctx context.Context, message models.Message) (*models.Message, error) {
	res, err := m.db.Collection(messageName).InsertOne(ctx, message)
	if err != nil {
		return nil, err
	}
	if id, ok := res.Decode().(primitive.ObjectID); ok {
		message.ID = id
	}
	return &message, nil
}

// FindByRoom returns one page of a room's history, oldest first. Offset
// pagination stays stable here because messages are append only: new
// writes land after every already-issued page boundary.
func (m *messageDatabase) FindByRoom(ctx context.Context, roomID primitive.ObjectID, limit, page int64) ([]models.Message, error) {
	skip := page * limit
	var messages []models.Message
	curr, err := m.db.Collection(messageName).Find(ctx, bson.M{"roomId": roomID},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
			SetLimit(limit).
			SetSkip(skip))
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &messages)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (m *messageDatabase) CountByRoom(ctx context.Context, roomID primitive.ObjectID) (int64, error) {
	return m.db.Collection(messageName).CountDocuments(ctx, bson.M{"roomId": roomID})
}
