package drivers

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/snofleet/fleet-rental-api/databases"
	"github.com/snofleet/fleet-rental-api/models"
)

// MongoDirectory validates drivers against the drivers collection. Only
// active drivers are accepted.
type MongoDirectory struct {
	DB databases.DriverDatabase
}

// NewMongoDirectory returns a directory backed by the drivers collection.
func NewMongoDirectory(db databases.DriverDatabase) *MongoDirectory {
	return &MongoDirectory{DB: db}
}

// Validate looks up the exact code/name pair. A missing document maps to
// ErrInvalidCredentials; other store errors pass through.
func (d *MongoDirectory) Validate(ctx context.Context, code, name string) (*models.Driver, error) {
	driver, err := d.DB.FindOne(ctx, bson.M{
		"driverCode": code,
		"name":       name,
		"status":     models.DriverActive,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return driver, nil
}
