package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripPhoto holds the structure for the photo collection in mongo. One row
// per uploaded image; the binary itself lives in Cloudinary under PublicID.
type TripPhoto struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID  primitive.ObjectID `json:"vehicle_id" bson:"vehicleID"`
	DriverName string             `json:"driver_name" bson:"driverName"`
	TripType   string             `json:"trip_type" bson:"tripType"`
	Position   string             `json:"photo_type" bson:"position"`
	PhotoURL   string             `json:"photo_url" bson:"photoURL"`
	FileName   string             `json:"file_name" bson:"fileName"`
	PublicID   string             `json:"-" bson:"publicID"`
	UploadedAt time.Time          `json:"uploaded_at" bson:"uploadedAt"`
	CreatedAt  time.Time          `json:"created_at" bson:"createdAt"`
}
