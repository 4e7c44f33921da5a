package databases

//go generate: mockery --name ScheduleDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snofleet/fleet-rental-api/models"
)

const scheduleName = "schedules"

// ScheduleDatabase contains the methods to use with the schedule database
type ScheduleDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.ScheduleEntry, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ScheduleEntry, error)
	InsertOne(ctx context.Context, entry models.ScheduleEntry) (interface{}, error)
	InsertMany(ctx context.Context, entries []interface{}) ([]interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (int64, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}) (int64, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
}

type scheduleDatabase struct {
	db DatabaseHelper
}

// NewScheduleDatabase initializes a new instance of schedule database with the provided db connection
func NewScheduleDatabase(db DatabaseHelper) ScheduleDatabase {
	return &scheduleDatabase{
		db: db,
	}
}

func (c *scheduleDatabase) FindOne(ctx context.Context, filter interface{}) (*models.ScheduleEntry, error) {
	entry := &models.ScheduleEntry{}
	err := c.db.Collection(scheduleName).FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (c *scheduleDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ScheduleEntry, error) {
	var entries []models.ScheduleEntry
	err := c.db.Collection(scheduleName).Find(ctx, filter, opts...).Decode(&entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *scheduleDatabase) InsertOne(ctx context.Context, entry models.ScheduleEntry) (interface{}, error) {
	return c.db.Collection(scheduleName).InsertOne(ctx, entry)
}

func (c *scheduleDatabase) InsertMany(ctx context.Context, entries []interface{}) ([]interface{}, error) {
	return c.db.Collection(scheduleName).InsertMany(ctx, entries)
}

func (c *scheduleDatabase) UpdateOne(ctx context.Context, filter, update interface{}) (int64, error) {
	return c.db.Collection(scheduleName).UpdateOne(ctx, filter, update)
}

func (c *scheduleDatabase) UpdateMany(ctx context.Context, filter, update interface{}) (int64, error) {
	return c.db.Collection(scheduleName).UpdateMany(ctx, filter, update)
}

func (c *scheduleDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(scheduleName).DeleteOne(ctx, filter)
}
