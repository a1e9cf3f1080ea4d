package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Merchant is a shop selling through the marketplace.
type Merchant struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Role          Role               `bson:"role" json:"role"`
	ShopName      string             `bson:"shop_name" json:"shop_name"`
	Category      string             `bson:"category" json:"category"` // handmade, crochet, clothing, cosmetics, crafts...
	City          string             `bson:"city" json:"city"`
	Address       string             `bson:"address" json:"address"` // pickup address
	Email         string             `bson:"email" json:"email"`
	Phone         string             `bson:"phone" json:"phone"`
	PasswordHash  string             `bson:"password_hash" json:"-"`
	DeliveryNotes *string            `bson:"delivery_notes" json:"delivery_notes"`
	WorkingHours  *string            `bson:"working_hours" json:"working_hours"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

func (m *Merchant) AccountID() primitive.ObjectID { return m.ID }
func (m *Merchant) AccountRole() Role              { return RoleMerchant }
func (m *Merchant) AccountEmail() string           { return m.Email }
func (m *Merchant) AccountPasswordHash() string    { return m.PasswordHash }
