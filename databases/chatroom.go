package databases

// go generate: mockery --name ChatRoomDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/admarket/chat-api/models"
)

const chatRoomName = "chatrooms"

// ChatRoomDatabase contains the methods to use with the chat room database
type ChatRoomDatabase interface {
	GetOrCreate(ctx context.Context, contextType, contextID, participantA, participantB string) (*models.ChatRoom, bool, error)
	FindByID(ctx context.Context, roomID primitive.ObjectID) (*models.ChatRoom, error)
	FindForUser(ctx context.Context, userID string, opts ...*options.FindOptions) ([]models.ChatRoom, error)
	TouchLastMessage(ctx context.Context, roomID primitive.ObjectID, at primitive.DateTime) error
	EnsureIndexes(ctx context.Context) error
}

type chatRoomDatabase struct {
	db DatabaseHelper
}

// NewChatRoomDatabase initializes a new instance of chat room database with the provided db connection
func NewChatRoomDatabase(db DatabaseHelper) ChatRoomDatabase {
	return &chatRoomDatabase{
		db: db,
	}
}

// GetOrCreate resolves the room for a (context, unordered participant pair)
// key, creating it when absent. The single upsert against the unique roomKey
// index is what guarantees at-most-one creation under concurrent callers;
// the caller whose upsert inserted the document observes isNew=true.
func (c *chatRoomDatabase) GetOrCreate(ctx context.Context, contextType, contextID, participantA, participantB string) (*models.ChatRoom, bool, error) {
	key := models.RoomKey(contextType, contextID, participantA, participantB)

	first, second := participantA, participantB
	if first > second {
		first, second = second, first
	}

	update := bson.M{
		"$setOnInsert": bson.M{
			"roomKey":      key,
			"contextType":  contextType,
			"contextId":    contextID,
			"participants": []string{first, second},
			"createdAt":    primitive.NewDateTimeFromTime(time.Now().UTC()),
		},
	}

	res, err := c.db.Collection(chatRoomName).UpdateOne(ctx, bson.M{"roomKey": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		// Two racing upserts on the same absent key can both attempt the
		// insert; the loser hits the unique index and succeeds on retry as
		// a plain match. Also covers a transient connection blip.
		res, err = c.db.Collection(chatRoomName).UpdateOne(ctx, bson.M{"roomKey": key}, update, options.Update().SetUpsert(true))
		if err != nil {
			return nil, false, err
		}
	}
	isNew := res.UpsertedCount() == 1

	room := &models.ChatRoom{}
	err = c.db.Collection(chatRoomName).FindOne(ctx, bson.M{"roomKey": key}).Decode(&room)
	if err != nil {
		return nil, false, err
	}
	return room, isNew, nil
}

func (c *chatRoomDatabase) FindByID(ctx context.Context, roomID primitive.ObjectID) (*models.ChatRoom, error) {
	room := &models.ChatRoom{}
	err := c.db.Collection(chatRoomName).FindOne(ctx, bson.M{"_id": roomID}).Decode(&room)
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (c *chatRoomDatabase) FindForUser(ctx context.Context, userID string, opts ...*options.FindOptions) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	curr, err := c.db.Collection(chatRoomName).Find(ctx, bson.M{"participants": userID}, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &rooms)
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *chatRoomDatabase) TouchLastMessage(ctx context.Context, roomID primitive.ObjectID, at primitive.DateTime) error {
	_, err := c.db.Collection(chatRoomName).UpdateOne(ctx, bson.M{"_id": roomID}, bson.M{"$set": bson.M{"lastMessageAt": at}})
	return err
}

// EnsureIndexes creates the unique roomKey index the get-or-create
// contract depends on. Invoked once at startup.
func (c *chatRoomDatabase) EnsureIndexes(ctx context.Context) error {
	return c.db.Collection(chatRoomName).EnsureIndex(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "roomKey", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
}
