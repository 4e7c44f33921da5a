package databases

//go generate: mockery --name PhotoDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snofleet/fleet-rental-api/models"
)

const photoName = "photos"

// PhotoDatabase contains the methods to use with the trip photo database
type PhotoDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.TripPhoto, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.TripPhoto, error)
	InsertOne(ctx context.Context, photo models.TripPhoto) (interface{}, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type photoDatabase struct {
	db DatabaseHelper
}

// NewPhotoDatabase initializes a new instance of photo database with the provided db connection
func NewPhotoDatabase(db DatabaseHelper) PhotoDatabase {
	return &photoDatabase{
		db: db,
	}
}

func (c *photoDatabase) FindOne(ctx context.Context, filter interface{}) (*models.TripPhoto, error) {
	photo := &models.TripPhoto{}
	err := c.db.Collection(photoName).FindOne(ctx, filter).Decode(&photo)
	if err != nil {
		return nil, err
	}
	return photo, nil
}

func (c *photoDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.TripPhoto, error) {
	var photos []models.TripPhoto
	err := c.db.Collection(photoName).Find(ctx, filter, opts...).Decode(&photos)
	if err != nil {
		return nil, err
	}
	return photos, nil
}

func (c *photoDatabase) InsertOne(ctx context.Context, photo models.TripPhoto) (interface{}, error) {
	return c.db.Collection(photoName).InsertOne(ctx, photo)
}

func (c *photoDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(photoName).DeleteOne(ctx, filter)
}

func (c *photoDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(photoName).CountDocuments(ctx, filter)
}
