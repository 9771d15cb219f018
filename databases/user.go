package databases

// go generate: mockery --name UserDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/admarket/chat-api/models"
)

const userName = "users"

// UserDatabase contains the narrow read methods the chat core needs from
// the users collection. Account management is an external concern.
type UserDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.User, error)
	Exists(ctx context.Context, userID string) (bool, error)
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) FindOne(ctx context.Context, filter interface{}) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(userName).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userDatabase) Exists(ctx context.Context, userID string) (bool, error) {
	count, err := u.db.Collection(userName).CountDocuments(ctx, bson.M{"_id": userID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
