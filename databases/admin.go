package databases

//go generate: mockery --name AdminDatabase

import (
	"context"

	"github.com/snofleet/fleet-rental-api/models"
)

const adminName = "admins"

// AdminDatabase contains the methods to use with the admin user database
type AdminDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.AdminUser, error)
	InsertOne(ctx context.Context, admin models.AdminUser) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (int64, error)
}

type adminDatabase struct {
	db DatabaseHelper
}

// NewAdminDatabase initializes a new instance of admin database with the provided db connection
func NewAdminDatabase(db DatabaseHelper) AdminDatabase {
	return &adminDatabase{
		db: db,
	}
}

func (c *adminDatabase) FindOne(ctx context.Context, filter interface{}) (*models.AdminUser, error) {
	admin := &models.AdminUser{}
	err := c.db.Collection(adminName).FindOne(ctx, filter).Decode(&admin)
	if err != nil {
		return nil, err
	}
	return admin, nil
}

func (c *adminDatabase) InsertOne(ctx context.Context, admin models.AdminUser) (interface{}, error) {
	return c.db.Collection(adminName).InsertOne(ctx, admin)
}

func (c *adminDatabase) UpdateOne(ctx context.Context, filter, update interface{}) (int64, error) {
	return c.db.Collection(adminName).UpdateOne(ctx, filter, update)
}
