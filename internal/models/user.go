package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserType string

const (
	UserTypeCustomer UserType = "customer"
	UserTypeAdmin    UserType = "admin"
)

type Address struct {
	Name       string `json:"name" bson:"name"`
	Phone      string `json:"phone" bson:"phone"`
	HouseNo    string `json:"house_no" bson:"house_no"`
	Street     string `json:"street" bson:"street"`
	City       string `json:"city" bson:"city"`
	State      string `json:"state" bson:"state"`
	PostalCode string `json:"postal_code" bson:"postal_code"`
	Country    string `json:"country" bson:"country" default:"India"`
	IsDefault  bool   `json:"is_default" bson:"is_default"`
}

// Line joins the populated address segments with commas, skipping empty
// parts so the carrier never sees stray separators.
func (a Address) Line() string {
	parts := []string{a.HouseNo, a.Street, a.City, a.State, a.PostalCode}
	filled := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			filled = append(filled, s)
		}
	}
	return strings.Join(filled, ", ")
}

type User struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email     string             `json:"email" bson:"email" validate:"required,email"`
	FirstName string             `json:"first_name" bson:"first_name"`
	LastName  string             `json:"last_name" bson:"last_name"`
	Phone     string             `json:"phone" bson:"phone"`
	UserType  UserType           `json:"user_type" bson:"user_type" default:"customer"`
	Addresses []Address          `json:"addresses" bson:"addresses"`
	IsActive  bool               `json:"is_active" bson:"is_active" default:"true"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// DefaultAddress returns the user's default address, falling back to the
// first one on file.
func (u *User) DefaultAddress() *Address {
	for i := range u.Addresses {
		if u.Addresses[i].IsDefault {
			return &u.Addresses[i]
		}
	}
	if len(u.Addresses) > 0 {
		return &u.Addresses[0]
	}
	return nil
}
