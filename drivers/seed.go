package drivers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/snofleet/fleet-rental-api/databases"
)

// Seed inserts the built-in sample drivers when the collection is empty, so a
// fresh deployment accepts the shared-code logins out of the box. A populated
// collection is left untouched.
func Seed(ctx context.Context, db databases.DriverDatabase) error {
	existing, err := db.Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	now := time.Now()
	sample := NewSampleDirectory().All()
	for _, d := range sample {
		d.ID = primitive.NewObjectID()
		d.CreatedAt = now
		if _, err := db.InsertOne(ctx, d); err != nil {
			return err
		}
	}
	zap.S().Infow("seeded drivers collection", "count", len(sample))
	return nil
}
