package databases

// go generate: mockery --name ListingDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/admarket/chat-api/models"
)

const listingName = "listings"

// ListingDatabase contains the narrow read methods the chat core needs
// from the listings collection. Listing CRUD and search belong to the
// marketplace API, not here.
type ListingDatabase interface {
	FindByID(ctx context.Context, listingID primitive.ObjectID) (*models.Listing, error)
}

type listingDatabase struct {
	db DatabaseHelper
}

// NewListingDatabase initializes a new instance of listing database with the provided db connection
func NewListingDatabase(db DatabaseHelper) ListingDatabase {
	return &listingDatabase{
		db: db,
	}
}

func (l *listingDatabase) FindByID(ctx context.Context, listingID primitive.ObjectID) (*models.Listing, error) {
	listing := &models.Listing{}
	err := l.db.Collection(listingName).FindOne(ctx, bson.M{"_id": listingID}).Decode(&listing)
	if err != nil {
		return nil, err
	}
	return listing, nil
}
