package databases

//go generate: mockery --name ReservationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snofleet/fleet-rental-api/models"
)

const reservationName = "reservations"

// ReservationDatabase contains the methods to use with the reservation database
type ReservationDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Reservation, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Reservation, error)
	InsertOne(ctx context.Context, reservation models.Reservation) (interface{}, error)
	InsertMany(ctx context.Context, reservations []interface{}) ([]interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (int64, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}) (int64, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
}

type reservationDatabase struct {
	db DatabaseHelper
}

// NewReservationDatabase initializes a new instance of reservation database with the provided db connection
func NewReservationDatabase(db DatabaseHelper) ReservationDatabase {
	return &reservationDatabase{
		db: db,
	}
}

func (c *reservationDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Reservation, error) {
	reservation := &models.Reservation{}
	err := c.db.Collection(reservationName).FindOne(ctx, filter).Decode(&reservation)
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

func (c *reservationDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := c.db.Collection(reservationName).Find(ctx, filter, opts...).Decode(&reservations)
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (c *reservationDatabase) InsertOne(ctx context.Context, reservation models.Reservation) (interface{}, error) {
	return c.db.Collection(reservationName).InsertOne(ctx, reservation)
}

func (c *reservationDatabase) InsertMany(ctx context.Context, reservations []interface{}) ([]interface{}, error) {
	return c.db.Collection(reservationName).InsertMany(ctx, reservations)
}

func (c *reservationDatabase) UpdateOne(ctx context.Context, filter, update interface{}) (int64, error) {
	return c.db.Collection(reservationName).UpdateOne(ctx, filter, update)
}

func (c *reservationDatabase) UpdateMany(ctx context.Context, filter, update interface{}) (int64, error) {
	return c.db.Collection(reservationName).UpdateMany(ctx, filter, update)
}

func (c *reservationDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(reservationName).DeleteOne(ctx, filter)
}
