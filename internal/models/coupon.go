package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFlat       DiscountType = "flat"
)

// Coupon codes are stored uppercase and matched case-insensitively.
// UsedCount and UsedBy are mutated only through the redeem and release
// operations on the coupon repository.
type Coupon struct {
	ID                   primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Code                 string               `json:"code" bson:"code" validate:"required"`
	Description          string               `json:"description" bson:"description"`
	DiscountType         DiscountType         `json:"discount_type" bson:"discount_type" validate:"required"`
	DiscountValue        float64              `json:"discount_value" bson:"discount_value" validate:"required,gt=0"`
	MinPurchase          float64              `json:"min_purchase" bson:"min_purchase" default:"0"`
	ExpiryDate           time.Time            `json:"expiry_date" bson:"expiry_date" validate:"required"`
	IsActive             bool                 `json:"is_active" bson:"is_active" default:"true"`
	MaxUses              int                  `json:"max_uses" bson:"max_uses" default:"0"`
	UsedCount            int                  `json:"used_count" bson:"used_count" default:"0"`
	OncePerUser          bool                 `json:"once_per_user" bson:"once_per_user"`
	UsedBy               []primitive.ObjectID `json:"used_by" bson:"used_by"`
	ApplicableCategories []string             `json:"applicable_categories" bson:"applicable_categories"`
	CreatedAt            time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at" bson:"updated_at"`
}

func (c *Coupon) Expired(now time.Time) bool {
	return now.After(c.ExpiryDate)
}

func (c *Coupon) UsageExhausted() bool {
	return c.MaxUses > 0 && c.UsedCount >= c.MaxUses
}

func (c *Coupon) UsedByUser(userID primitive.ObjectID) bool {
	for _, id := range c.UsedBy {
		if id == userID {
			return true
		}
	}
	return false
}
