package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Customer orders deliveries to an address.
type Customer struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Role         Role               `bson:"role" json:"role"`
	FullName     string             `bson:"full_name" json:"full_name"`
	City         string             `bson:"city" json:"city"`
	Address      string             `bson:"address" json:"address"` // delivery address
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone" json:"phone"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

func (c *Customer) AccountID() primitive.ObjectID { return c.ID }
func (c *Customer) AccountRole() Role              { return RoleCustomer }
func (c *Customer) AccountEmail() string           { return c.Email }
func (c *Customer) AccountPasswordHash() string    { return c.PasswordHash }
