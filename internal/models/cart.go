package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is a line in a user's cart, keyed by (ProductID, VariantID).
// Subtotal is derived; it is recomputed on every cart mutation.
type CartItem struct {
	ProductID   primitive.ObjectID `json:"product_id" bson:"product_id" validate:"required"`
	VariantID   primitive.ObjectID `json:"variant_id" bson:"variant_id" validate:"required"`
	Quantity    int                `json:"quantity" bson:"quantity" validate:"required,gte=1"`
	UnitPrice   float64            `json:"unit_price" bson:"unit_price"`
	WeightLabel string             `json:"weight_label" bson:"weight_label"`
	Subtotal    float64            `json:"subtotal" bson:"subtotal"`
}

// Cart is the per-user staging area before checkout. One cart per user,
// created lazily on first add and cleared (not deleted) once converted
// into an order.
type Cart struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID         primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Items          []CartItem         `json:"items" bson:"items"`
	CouponCode     string             `json:"coupon_code" bson:"coupon_code"`
	DiscountAmount float64            `json:"discount_amount" bson:"discount_amount" default:"0"`
	TotalAmount    float64            `json:"total_amount" bson:"total_amount" default:"0"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

func (c *Cart) Subtotal() float64 {
	var sum float64
	for _, item := range c.Items {
		sum += item.Subtotal
	}
	return sum
}

// Recalculate re-derives every line subtotal and the cart total. Lines with
// a non-positive quantity are pruned. The total never goes below zero.
func (c *Cart) Recalculate() {
	items := c.Items[:0]
	for _, item := range c.Items {
		if item.Quantity <= 0 {
			continue
		}
		item.Subtotal = item.UnitPrice * float64(item.Quantity)
		items = append(items, item)
	}
	c.Items = items
	c.TotalAmount = math.Max(0, c.Subtotal()-c.DiscountAmount)
}

// FindItem returns the index of the line matching the product/variant pair,
// or -1 when absent.
func (c *Cart) FindItem(productID, variantID primitive.ObjectID) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.VariantID == variantID {
			return i
		}
	}
	return -1
}

func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}
