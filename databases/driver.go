package databases

//go generate: mockery --name DriverDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snofleet/fleet-rental-api/models"
)

const driverName = "drivers"

// DriverDatabase contains the methods to use with the driver database
type DriverDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Driver, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Driver, error)
	InsertOne(ctx context.Context, driver models.Driver) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (int64, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
}

type driverDatabase struct {
	db DatabaseHelper
}

// NewDriverDatabase initializes a new instance of driver database with the provided db connection
func NewDriverDatabase(db DatabaseHelper) DriverDatabase {
	return &driverDatabase{
		db: db,
	}
}

func (c *driverDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Driver, error) {
	driver := &models.Driver{}
	err := c.db.Collection(driverName).FindOne(ctx, filter).Decode(&driver)
	if err != nil {
		return nil, err
	}
	return driver, nil
}

func (c *driverDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Driver, error) {
	var drivers []models.Driver
	err := c.db.Collection(driverName).Find(ctx, filter, opts...).Decode(&drivers)
	if err != nil {
		return nil, err
	}
	return drivers, nil
}

func (c *driverDatabase) InsertOne(ctx context.Context, driver models.Driver) (interface{}, error) {
	return c.db.Collection(driverName).InsertOne(ctx, driver)
}

func (c *driverDatabase) UpdateOne(ctx context.Context, filter, update interface{}) (int64, error) {
	return c.db.Collection(driverName).UpdateOne(ctx, filter, update)
}

func (c *driverDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(driverName).DeleteOne(ctx, filter)
}
