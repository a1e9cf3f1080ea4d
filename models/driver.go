package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Driver carries orders from merchants to customers.
type Driver struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Role         Role               `bson:"role" json:"role"`
	FullName     string             `bson:"full_name" json:"full_name"`
	City         string             `bson:"city" json:"city"` // city of operation
	VehicleType  string             `bson:"vehicle_type" json:"vehicle_type"`
	VehiclePlate *string            `bson:"vehicle_plate" json:"vehicle_plate"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone" json:"phone"`
	NationalID   *string            `bson:"national_id" json:"national_id"` // national ID or license number
	PasswordHash string             `bson:"password_hash" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

func (d *Driver) AccountID() primitive.ObjectID { return d.ID }
func (d *Driver) AccountRole() Role              { return RoleDriver }
func (d *Driver) AccountEmail() string           { return d.Email }
func (d *Driver) AccountPasswordHash() string    { return d.PasswordHash }
