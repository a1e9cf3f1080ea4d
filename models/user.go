package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role defines the account kinds of the marketplace. Each role owns one collection.
type Role string

const (
	RoleMerchant Role = "merchant"
	RoleCustomer Role = "customer"
	RoleDriver   Role = "driver"
)

// Roles lists every role in a stable order.
var Roles = []Role{RoleMerchant, RoleCustomer, RoleDriver}

// ParseRole maps a raw string onto one of the known roles.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.TrimSpace(s)); r {
	case RoleMerchant, RoleCustomer, RoleDriver:
		return r, nil
	default:
		return "", fmt.Errorf("models: unknown role %q", s)
	}
}

// Collection returns the name of the collection holding accounts of this role.
func (r Role) Collection() string {
	switch r {
	case RoleMerchant:
		return "merchant"
	case RoleCustomer:
		return "customer"
	case RoleDriver:
		return "driver"
	default:
		panic(fmt.Sprintf("models: collection for unknown role %q", string(r)))
	}
}

// Label is the capitalised role name used in user-facing messages.
func (r Role) Label() string {
	switch r {
	case RoleMerchant:
		return "Merchant"
	case RoleCustomer:
		return "Customer"
	case RoleDriver:
		return "Driver"
	default:
		return string(r)
	}
}

// Account is the contract shared by every stored record kind.
type Account interface {
	AccountID() primitive.ObjectID
	AccountRole() Role
	AccountEmail() string
	AccountPasswordHash() string
}

// NewAccount returns an empty record for the role, ready to be decoded into.
func NewAccount(r Role) Account {
	switch r {
	case RoleMerchant:
		return &Merchant{}
	case RoleCustomer:
		return &Customer{}
	case RoleDriver:
		return &Driver{}
	default:
		panic(fmt.Sprintf("models: account for unknown role %q", string(r)))
	}
}
